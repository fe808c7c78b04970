// Package goid identifies the calling goroutine.
//
// Goroutines are the unit of ownership for the recursive and reentrant locks: a lock
// records the ID of the goroutine that acquired it and compares it on every reentry and
// release. The runtime does not export goroutine IDs, so Current parses the header line of
// the goroutine's own stack trace ("goroutine 123 [running]:").
package goid

import (
	"runtime"
	"strconv"
)

// ID identifies a goroutine. The zero ID never names a live goroutine.
type ID int64

// None is the zero ID, used for "no owner".
const None ID = 0

// Current returns the ID of the calling goroutine.
func Current() ID {
	// Only the first line is needed; 64 bytes always holds it.
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parse(buf[:n])
}

// Equal reports whether a and b name the same goroutine. None equals nothing.
func Equal(a, b ID) bool {
	return a != None && a == b
}

// IsCurrent reports whether id names the calling goroutine.
func (id ID) IsCurrent() bool {
	return Equal(id, Current())
}

func (id ID) String() string {
	if id == None {
		return "none"
	}
	return strconv.FormatInt(int64(id), 10)
}

// parse extracts the number from "goroutine 123 [running]:...". It returns None when the
// buffer does not have that shape.
func parse(buf []byte) ID {
	const prefix = "goroutine "
	if len(buf) <= len(prefix) || string(buf[:len(prefix)]) != prefix {
		return None
	}
	var id int64
	digits := 0
	for _, c := range buf[len(prefix):] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + int64(c-'0')
		digits++
	}
	if digits == 0 {
		return None
	}
	return ID(id)
}

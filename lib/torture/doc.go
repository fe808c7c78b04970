// Package torture hammers the locks in lib/lock from many goroutines and checks that at most
// one goroutine is ever inside a critical section. It also samples the monotonic clock and
// checks that it never runs backwards.
//
// Each run mixes blocking, non-blocking and timed acquisitions. Contention (WouldBlock) and
// expired deadlines (TimedOut) are counted, not treated as failures; any other error aborts
// the run.
package torture

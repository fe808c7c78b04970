package torture

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Report is the outcome of a run.
type Report struct {
	Kind         string        `yaml:"kind"`
	Workers      int           `yaml:"workers"`
	Elapsed      time.Duration `yaml:"elapsed"`
	Acquisitions uint64        `yaml:"acquisitions"`
	WouldBlock   uint64        `yaml:"would_block"`
	TimedOut     uint64        `yaml:"timed_out"`
	Reentries    uint64        `yaml:"reentries,omitempty"`
	Samples      uint64        `yaml:"samples,omitempty"`
	Violations   uint64        `yaml:"violations"`
	Interrupted  bool          `yaml:"interrupted"`
}

// OK reports whether the run saw no violations.
func (r Report) OK() bool {
	return r.Violations == 0
}

// Text renders r for a terminal.
func (r Report) Text() string {
	var b strings.Builder
	status := "ok"
	if !r.OK() {
		status = "FAILED"
	}
	fmt.Fprintf(&b, "%s: %s after %s with %d workers\n", r.Kind, status, r.Elapsed.Round(time.Millisecond), r.Workers)
	if r.Samples > 0 {
		fmt.Fprintf(&b, "  samples      %d\n", r.Samples)
	} else {
		fmt.Fprintf(&b, "  acquisitions %d\n", r.Acquisitions)
		fmt.Fprintf(&b, "  would block  %d\n", r.WouldBlock)
		fmt.Fprintf(&b, "  timed out    %d\n", r.TimedOut)
	}
	if r.Reentries > 0 {
		fmt.Fprintf(&b, "  reentries    %d\n", r.Reentries)
	}
	fmt.Fprintf(&b, "  violations   %d\n", r.Violations)
	if r.Interrupted {
		b.WriteString("  (interrupted)\n")
	}
	return b.String()
}

// YAML renders r as a YAML document.
func (r Report) YAML() ([]byte, error) {
	return yaml.Marshal(r)
}

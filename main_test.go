package main

import (
	"flag"
	"io"
	"testing"
)

func TestFlagSet(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"absent", nil, false},
		{"zero seed", []string{"-seed", "0"}, true},
		{"nonzero seed", []string{"-seed=42"}, true},
		{"other flag only", []string{"-ticks", "10"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("anemone", flag.ContinueOnError)
			fs.SetOutput(io.Discard)
			fs.Int64("seed", 0, "")
			fs.Int("ticks", 0, "")
			if err := fs.Parse(tt.args); err != nil {
				t.Fatal(err)
			}
			if got := flagSet(fs, "seed"); got != tt.want {
				t.Errorf("flagSet(seed) = %v, want %v", got, tt.want)
			}
		})
	}
}

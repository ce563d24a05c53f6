package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// loadTrace reads one frame time in milliseconds per line. Blank lines and
// lines starting with # are ignored.
func loadTrace(path string) ([]time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseTrace(f)
}

func parseTrace(r io.Reader) ([]time.Duration, error) {
	var out []time.Duration
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ms, err := strconv.ParseFloat(line, 64)
		if err != nil || ms <= 0 {
			return nil, fmt.Errorf("trace line %d: invalid frame time %q", n, line)
		}
		out = append(out, time.Duration(ms*float64(time.Millisecond)))
	}
	return out, sc.Err()
}

// syntheticTrace returns n frames at fps, switching to slowFPS from frame
// slowFrom when slowFrom is not negative.
func syntheticTrace(n int, fps float64, slowFrom int, slowFPS float64) []time.Duration {
	if fps <= 0 {
		fps = 60
	}
	if slowFPS <= 0 {
		slowFPS = fps
	}
	out := make([]time.Duration, n)
	for i := range out {
		rate := fps
		if slowFrom >= 0 && i >= slowFrom {
			rate = slowFPS
		}
		out[i] = time.Duration(float64(time.Second) / rate)
	}
	return out
}

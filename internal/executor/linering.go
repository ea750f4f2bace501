package executor

import (
	"strings"
	"sync"
)

// lineRing keeps the last lines written to it. It is safe for concurrent use
// and is used as ffmpeg's stderr sink.
type lineRing struct {
	mu      sync.Mutex
	lines   []string
	head    int
	count   int
	partial string
}

func newLineRing(capacity int) *lineRing {
	if capacity < 1 {
		capacity = 20
	}
	return &lineRing{lines: make([]string, capacity)}
}

func (r *lineRing) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	text := r.partial + strings.ReplaceAll(string(p), "\r", "\n")
	parts := strings.Split(text, "\n")
	r.partial = parts[len(parts)-1]
	for _, line := range parts[:len(parts)-1] {
		r.push(line)
	}
	return len(p), nil
}

func (r *lineRing) push(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	r.lines[r.head] = line
	r.head = (r.head + 1) % len(r.lines)
	if r.count < len(r.lines) {
		r.count++
	}
}

// Lines returns the retained lines oldest first, including an unterminated
// trailing line.
func (r *lineRing) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, r.count+1)
	start := (r.head - r.count + len(r.lines)) % len(r.lines)
	for i := 0; i < r.count; i++ {
		out = append(out, r.lines[(start+i)%len(r.lines)])
	}
	if tail := strings.TrimSpace(r.partial); tail != "" {
		out = append(out, tail)
	}
	return out
}

func (r *lineRing) String() string {
	return strings.Join(r.Lines(), "\n")
}

package plan

import (
	"fmt"
	"time"
)

// Frame is the canonical output frame size.
type Frame struct {
	Width  int `json:"width" toml:"width"`
	Height int `json:"height" toml:"height"`
}

// DefaultFrame is used when neither configuration nor the base video
// provides a frame size.
var DefaultFrame = Frame{Width: 1920, Height: 1080}

func (f Frame) String() string {
	return fmt.Sprintf("%dx%d", f.Width, f.Height)
}

// IsZero reports whether no dimension is set.
func (f Frame) IsZero() bool {
	return f.Width == 0 && f.Height == 0
}

// Valid reports whether the frame can be encoded as 4:2:0 video.
func (f Frame) Valid() bool {
	return f.Width > 0 && f.Height > 0 && f.Width%2 == 0 && f.Height%2 == 0
}

// OpKind names a plan operation.
type OpKind string

const (
	OpNormalize        OpKind = "normalize"
	OpOverlay          OpKind = "overlay"
	OpAudioPassthrough OpKind = "audio_passthrough"
)

// Op is one node of the plan. Sources name the streams it consumes and
// Output the stream it produces; stream names are ffmpeg pad labels.
type Op struct {
	Kind       OpKind
	Label      string
	Identifier string
	Input      int
	Sources    []string
	Output     string
	Start      time.Duration
	End        time.Duration
	Duration   time.Duration
	Frame      Frame
}

// Input is one media file handed to the executor, in argument order. Index
// 0 is always the base.
type Input struct {
	Index      int
	Path       string
	Label      string
	Identifier string
}

// Interval is the span of the base timeline an overlay is visible on,
// half-open at End.
type Interval struct {
	Label string
	Start time.Duration
	End   time.Duration
}

// Segment is one auxiliary clip in the executor contract.
type Segment struct {
	Label      string        `json:"label"`
	Identifier string        `json:"identifier"`
	Path       string        `json:"path"`
	Start      time.Duration `json:"start"`
	End        time.Duration `json:"end"`
}

// Request is the executor contract: base media, ordered clips and the
// canonical frame.
type Request struct {
	BasePath string    `json:"base_path"`
	Segments []Segment `json:"segments"`
	Frame    Frame     `json:"frame"`
}

// Options configures Build.
type Options struct {
	Frame        Frame
	BaseDuration time.Duration
	BasePath     string
}

package plan

import (
	"fmt"
	"strings"

	"inlay/internal/timeline"
)

// FilterGraph renders the video operations as an ffmpeg filter_complex
// description, one chain per op joined by semicolons.
func (p *Plan) FilterGraph() string {
	chains := make([]string, 0, len(p.ops))
	for _, op := range p.ops {
		if chain := op.filter(); chain != "" {
			chains = append(chains, chain)
		}
	}
	return strings.Join(chains, ";")
}

func (op Op) filter() string {
	switch op.Kind {
	case OpNormalize:
		var steps []string
		if op.Duration > 0 {
			steps = append(steps,
				"trim=duration="+timeline.Seconds(op.Duration),
				"setpts=PTS-STARTPTS+"+timeline.Seconds(op.Start)+"/TB",
			)
		}
		steps = append(steps, fitToFrame(op.Frame)...)
		return pads(op.Sources) + strings.Join(steps, ",") + "[" + op.Output + "]"
	case OpOverlay:
		enable := fmt.Sprintf("gte(t,%s)*lt(t,%s)", timeline.Seconds(op.Start), timeline.Seconds(op.End))
		return pads(op.Sources) + "overlay=0:0:enable='" + enable + "':eof_action=pass[" + op.Output + "]"
	default:
		return ""
	}
}

func fitToFrame(frame Frame) []string {
	w, h := frame.Width, frame.Height
	return []string{
		fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", w, h),
		fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2", w, h),
		"setsar=1",
	}
}

func pads(labels []string) string {
	var b strings.Builder
	for _, label := range labels {
		b.WriteByte('[')
		b.WriteString(label)
		b.WriteByte(']')
	}
	return b.String()
}

// Package windowsrc reads the window document produced by the analysis
// collaborator.
//
// The document is an ordered mapping of label to [start, end] timestamps,
// in JSON or YAML. Document order is preserved so that validation errors and
// diagnostics follow the author's order. Two alternative shapes are also
// accepted: a mapping of label to {start, end}, and a list of
// {label, start, end} entries, optionally nested under a "windows" key.
package windowsrc

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"inlay/internal/services"
	"inlay/internal/timeline"
)

const stageName = "windows"

// Load reads and parses the window document at path.
func Load(path string) ([]timeline.WindowSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.KindValidation, stageName, "read", path, err)
	}
	return Parse(data)
}

// Parse decodes a window document.
func Parse(data []byte) ([]timeline.WindowSpec, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, services.Errorf(services.KindValidation, stageName, "parse", "window document is empty")
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, services.Wrap(services.KindValidation, stageName, "parse", "window document is not valid JSON or YAML", err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	switch root.Kind {
	case yaml.MappingNode:
		if list, ok := nestedList(root); ok {
			return parseList(list)
		}
		return parseMapping(root)
	case yaml.SequenceNode:
		return parseList(root)
	default:
		return nil, services.Errorf(services.KindValidation, stageName, "parse",
			"line %d: expected a mapping of label to [start, end]", root.Line)
	}
}

func nestedList(root *yaml.Node) (*yaml.Node, bool) {
	if len(root.Content) != 2 || root.Content[0].Value != "windows" {
		return nil, false
	}
	value := root.Content[1]
	if value.Kind != yaml.SequenceNode {
		return nil, false
	}
	for _, item := range value.Content {
		if item.Kind != yaml.MappingNode {
			return nil, false
		}
	}
	return value, true
}

func parseMapping(root *yaml.Node) ([]timeline.WindowSpec, error) {
	var (
		specs  []timeline.WindowSpec
		bad    []string
		labels []string
	)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		label := key.Value
		start, end, err := bounds(value)
		if err != nil {
			bad = append(bad, fmt.Sprintf("%s (line %d): %v", label, value.Line, err))
			labels = append(labels, label)
			continue
		}
		specs = append(specs, timeline.WindowSpec{Label: label, Start: start, End: end})
	}
	if err := malformed(bad, labels); err != nil {
		return nil, err
	}
	return specs, nil
}

func parseList(list *yaml.Node) ([]timeline.WindowSpec, error) {
	var (
		specs  []timeline.WindowSpec
		bad    []string
		labels []string
	)
	for idx, item := range list.Content {
		if item.Kind != yaml.MappingNode {
			bad = append(bad, fmt.Sprintf("entry %d (line %d): expected {label, start, end}", idx+1, item.Line))
			continue
		}
		fields := map[string]*yaml.Node{}
		for i := 0; i+1 < len(item.Content); i += 2 {
			fields[strings.ToLower(item.Content[i].Value)] = item.Content[i+1]
		}
		label := ""
		if node, ok := fields["label"]; ok {
			label = node.Value
		}
		start, err := timestamp(fields["start"])
		if err == nil {
			var end string
			end, err = timestamp(fields["end"])
			if err == nil {
				specs = append(specs, timeline.WindowSpec{Label: label, Start: start, End: end})
				continue
			}
		}
		name := label
		if name == "" {
			name = fmt.Sprintf("entry %d", idx+1)
		}
		bad = append(bad, fmt.Sprintf("%s (line %d): %v", name, item.Line, err))
		labels = append(labels, label)
	}
	if err := malformed(bad, labels); err != nil {
		return nil, err
	}
	return specs, nil
}

func bounds(value *yaml.Node) (string, string, error) {
	switch value.Kind {
	case yaml.SequenceNode:
		if len(value.Content) != 2 {
			return "", "", fmt.Errorf("expected [start, end], got %d value(s)", len(value.Content))
		}
		start, err := timestamp(value.Content[0])
		if err != nil {
			return "", "", err
		}
		end, err := timestamp(value.Content[1])
		return start, end, err
	case yaml.MappingNode:
		fields := map[string]*yaml.Node{}
		for i := 0; i+1 < len(value.Content); i += 2 {
			fields[strings.ToLower(value.Content[i].Value)] = value.Content[i+1]
		}
		start, err := timestamp(fields["start"])
		if err != nil {
			return "", "", err
		}
		end, err := timestamp(fields["end"])
		return start, end, err
	default:
		return "", "", fmt.Errorf("expected [start, end]")
	}
}

// maxSeconds is the first seconds value a time.Duration cannot hold.
var maxSeconds = float64(math.MaxInt64) / float64(time.Second)

// timestamp returns the node as a timestamp string. Bare numbers are taken
// as seconds.
func timestamp(node *yaml.Node) (string, error) {
	if node == nil {
		return "", fmt.Errorf("missing timestamp")
	}
	if node.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("line %d: timestamp must be a scalar", node.Line)
	}
	value := strings.TrimSpace(node.Value)
	switch node.Tag {
	case "!!int", "!!float":
		seconds, err := strconv.ParseFloat(value, 64)
		if err != nil || seconds < 0 || math.IsNaN(seconds) {
			return "", fmt.Errorf("line %d: invalid seconds value %q", node.Line, value)
		}
		if seconds >= maxSeconds {
			return "", fmt.Errorf("line %d: seconds value %q out of range", node.Line, value)
		}
		return timeline.FormatTimestamp(time.Duration(seconds * float64(time.Second))), nil
	}
	return value, nil
}

func malformed(bad, labels []string) error {
	if len(bad) == 0 {
		return nil
	}
	return services.Errorf(services.KindValidation, stageName, "parse",
		"malformed window entries: %s", strings.Join(bad, "; ")).WithLabels(labels...)
}

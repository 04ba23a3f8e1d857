package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/garyjia/post-review/internal/application/port"
	"github.com/garyjia/post-review/internal/domain/workflow"
)

// ErrUnsupportedFormat is returned for an unknown render format
var ErrUnsupportedFormat = errors.New("unsupported format")

// Render formats
const (
	FormatYAML = "yaml"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// NewDefinitionRenderer returns the renderer for format
func NewDefinitionRenderer(format string) (port.DefinitionRenderer, error) {
	switch format {
	case FormatYAML:
		return YAMLRenderer{}, nil
	case FormatDOT:
		return DOTRenderer{}, nil
	case FormatJSON, "":
		return JSONRenderer{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// YAMLRenderer renders the transition table as YAML
type YAMLRenderer struct{}

func (YAMLRenderer) ContentType() string { return "application/yaml" }

func (YAMLRenderer) Render(w io.Writer, def workflow.Definition) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(def); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}

// JSONRenderer renders the transition table as indented JSON
type JSONRenderer struct{}

func (JSONRenderer) ContentType() string { return "application/json" }

func (JSONRenderer) Render(w io.Writer, def workflow.Definition) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(def)
}

// DOTRenderer renders the workflow as a Graphviz digraph.
// Identity edges are left out so the graph shows only real moves.
type DOTRenderer struct{}

func (DOTRenderer) ContentType() string { return "text/vnd.graphviz" }

func (DOTRenderer) Render(w io.Writer, def workflow.Definition) error {
	var b strings.Builder
	b.WriteString("digraph review {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  start [shape=point];\n")
	fmt.Fprintf(&b, "  start -> %q;\n", def.Initial)

	for _, s := range def.States {
		shape := "ellipse"
		if s.IsTerminal() {
			shape = "doublecircle"
		}
		fmt.Fprintf(&b, "  %q [shape=%s];\n", s, shape)
	}
	for _, e := range def.Edges {
		if e.IsIdentity() {
			continue
		}
		fmt.Fprintf(&b, "  %q -> %q [label=%q];\n", e.From, e.To, e.Trigger)
	}
	b.WriteString("}\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write dot: %w", err)
	}
	return nil
}

var (
	_ port.DefinitionRenderer = YAMLRenderer{}
	_ port.DefinitionRenderer = JSONRenderer{}
	_ port.DefinitionRenderer = DOTRenderer{}
)

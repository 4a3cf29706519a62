// Package visualization renders declared state hierarchies as Graphviz
// documents for debugging and documentation.
package visualization

import (
	"fmt"
	"os"
	"strings"

	"github.com/canopystate/canopy"
)

// DOTGenerator generates Graphviz DOT representations of a state hierarchy.
type DOTGenerator struct {
	hierarchy *canopy.Hierarchy
	options   DOTOptions
	active    map[canopy.StateType]bool
}

// DOTOptions configures the DOT generation.
type DOTOptions struct {
	RankDirection   string // "TB", "LR", "BT", "RL"
	NodeShape       string
	RootFillColor   string
	NodeFillColor   string
	ActiveFillColor string
}

// DefaultDOTOptions returns sensible default options for DOT generation.
func DefaultDOTOptions() DOTOptions {
	return DOTOptions{
		RankDirection:   "TB",
		NodeShape:       "box",
		RootFillColor:   "lightblue",
		NodeFillColor:   "white",
		ActiveFillColor: "lightgreen",
	}
}

// NewDOTGenerator creates a new DOT generator for the given hierarchy.
func NewDOTGenerator(hierarchy *canopy.Hierarchy, options ...DOTOptions) *DOTGenerator {
	opts := DefaultDOTOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	return &DOTGenerator{
		hierarchy: hierarchy,
		options:   opts,
		active:    make(map[canopy.StateType]bool),
	}
}

// HighlightActive marks the given states so Generate renders them with the
// active fill color. Pass a machine's ActiveStates() to visualize a live
// configuration.
func (g *DOTGenerator) HighlightActive(states []canopy.StateType) *DOTGenerator {
	g.active = make(map[canopy.StateType]bool, len(states))
	for _, stateType := range states {
		g.active[stateType] = true
	}
	return g
}

// Generate creates a DOT representation of the hierarchy. Edges run from
// each parent to its children; roots of the forest have no incoming edge.
func (g *DOTGenerator) Generate() (string, error) {
	if err := g.hierarchy.Validate(); err != nil {
		return "", fmt.Errorf("failed to generate DOT for invalid hierarchy: %w", err)
	}

	var dot strings.Builder

	dot.WriteString("digraph StateHierarchy {\n")
	dot.WriteString(fmt.Sprintf("  rankdir=%s;\n", g.options.RankDirection))
	dot.WriteString(fmt.Sprintf("  node [shape=%s];\n", g.options.NodeShape))
	dot.WriteString("  edge [fontsize=10];\n\n")

	g.generateNodes(&dot)
	g.generateEdges(&dot)

	dot.WriteString("}\n")

	return dot.String(), nil
}

// generateNodes generates a DOT node for every declared state.
func (g *DOTGenerator) generateNodes(dot *strings.Builder) {
	dot.WriteString("  // States\n")

	for _, stateType := range g.hierarchy.Types() {
		fillColor := g.options.NodeFillColor
		label := string(stateType)

		if g.hierarchy.IsRoot(stateType) {
			fillColor = g.options.RootFillColor
		}
		if g.active[stateType] {
			fillColor = g.options.ActiveFillColor
			label += "\\n(active)"
		}

		dot.WriteString(fmt.Sprintf("  %q [style=\"filled\" fillcolor=%s label=\"%s\"];\n",
			string(stateType), fillColor, label))
	}
}

// generateEdges generates containment edges from each parent to its children.
func (g *DOTGenerator) generateEdges(dot *strings.Builder) {
	dot.WriteString("\n  // Containment\n")

	for _, stateType := range g.hierarchy.Types() {
		parent, ok := g.hierarchy.ParentOf(stateType)
		if !ok {
			continue
		}
		dot.WriteString(fmt.Sprintf("  %q -> %q;\n", string(parent), string(stateType)))
	}
}

// GenerateToFile writes the DOT representation to a file.
func (g *DOTGenerator) GenerateToFile(filename string) error {
	content, err := g.Generate()
	if err != nil {
		return err
	}

	return os.WriteFile(filename, []byte(content), 0644)
}

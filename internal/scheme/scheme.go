// Package scheme holds the static registry of strategic presets. Each scheme
// bundles a system-instruction fragment with an optional provider tool
// binding; the orchestrator branches on the tool, so adding a preset is a
// data change, not a new code path.
package scheme

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tool string

const (
	ToolNone   Tool = ""
	ToolSearch Tool = "search"
	ToolMaps   Tool = "maps"
	ToolImage  Tool = "image"
)

type Scheme struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Tagline     string `yaml:"tagline" json:"tagline"`
	Instruction string `yaml:"instruction" json:"-"`
	Tool        Tool   `yaml:"tool" json:"tool"`
	Color       string `yaml:"color" json:"color"`
}

// IDs is the fixed set of scheme identifiers. The registry always resolves
// every one of them; a lookup outside this set is a programming error on the
// caller's side, not a runtime condition.
var IDs = []string{"vision", "intel", "entry", "design", "tech"}

var builtins = []Scheme{
	{
		ID:      "vision",
		Name:    "Corporate Vision",
		Tagline: "Long-horizon positioning and ambition",
		Instruction: "You are a corporate strategy director. Craft bold, coherent " +
			"long-term vision statements and strategic narratives. Challenge weak " +
			"assumptions and push toward a defensible ambition.",
		Tool:  ToolNone,
		Color: "#8b5cf6",
	},
	{
		ID:      "intel",
		Name:    "Market Intelligence",
		Tagline: "Competitor and market research, grounded in live sources",
		Instruction: "You are a market intelligence analyst. Investigate competitors, " +
			"market sizes and trends. Ground every claim in current sources and cite " +
			"them; say so plainly when the data is thin.",
		Tool:  ToolSearch,
		Color: "#38bdf8",
	},
	{
		ID:      "entry",
		Name:    "Market Entry",
		Tagline: "Regional expansion and location analysis",
		Instruction: "You are a market entry strategist. Evaluate regions, cities and " +
			"sites for expansion: demand density, local competition, regulatory " +
			"friction, logistics. Prefer concrete places over generalities.",
		Tool:  ToolMaps,
		Color: "#34d399",
	},
	{
		ID:      "design",
		Name:    "Concept Design",
		Tagline: "Visual concepts for products and campaigns",
		Instruction: "You are a concept designer. Turn strategic briefs into striking " +
			"visual concepts.",
		Tool:  ToolImage,
		Color: "#fb7185",
	},
	{
		ID:      "tech",
		Name:    "Technology Radar",
		Tagline: "Build-vs-buy and emerging technology bets",
		Instruction: "You are a technology strategist. Assess emerging technologies, " +
			"architectural bets and build-vs-buy tradeoffs in business terms: cost, " +
			"risk, time-to-market, lock-in.",
		Tool:  ToolNone,
		Color: "#fbbf24",
	},
}

// Registry is a read-only scheme lookup built at startup.
type Registry struct {
	order   []string
	schemes map[string]Scheme
}

// NewRegistry returns the built-in registry.
func NewRegistry() *Registry {
	r := &Registry{schemes: make(map[string]Scheme, len(builtins))}
	for _, s := range builtins {
		r.order = append(r.order, s.ID)
		r.schemes[s.ID] = s
	}
	return r
}

// LoadFile applies a YAML override file on top of the built-ins. Every entry
// must carry one of the fixed IDs; overrides can reword a scheme or rebind its
// tool but cannot add or remove presets. An empty path is a no-op.
func (r *Registry) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scheme file %s: %w", path, err)
	}
	var overrides []Scheme
	if err := yaml.Unmarshal(b, &overrides); err != nil {
		return fmt.Errorf("parse scheme file %s: %w", path, err)
	}
	for _, o := range overrides {
		base, ok := r.schemes[o.ID]
		if !ok {
			return fmt.Errorf("scheme file %s: unknown scheme id %q", path, o.ID)
		}
		if o.Name != "" {
			base.Name = o.Name
		}
		if o.Tagline != "" {
			base.Tagline = o.Tagline
		}
		if o.Instruction != "" {
			base.Instruction = o.Instruction
		}
		if o.Tool != "" {
			switch o.Tool {
			case ToolSearch, ToolMaps, ToolImage:
				base.Tool = o.Tool
			default:
				return fmt.Errorf("scheme file %s: scheme %q has unknown tool %q", path, o.ID, o.Tool)
			}
		}
		if o.Color != "" {
			base.Color = o.Color
		}
		r.schemes[o.ID] = base
	}
	return nil
}

// Get looks up a scheme by ID.
func (r *Registry) Get(id string) (Scheme, bool) {
	s, ok := r.schemes[id]
	return s, ok
}

// All returns the schemes in display order.
func (r *Registry) All() []Scheme {
	out := make([]Scheme, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.schemes[id])
	}
	return out
}

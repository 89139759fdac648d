// Package bot loads a CSML bot definition: a bundle of named flows (one
// marked default), discovered from a directory of `.csml` files and
// described by a YAML manifest (SPEC_FULL.md §1.3/§2.2). Custom-component
// sources are not loaded.
package bot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/csml-dev/csml-go/pkg/parser"
)

// Manifest is the on-disk YAML description of a bot: which flow is the
// default entry point, and where to find the rest (SPEC_FULL.md's
// "Bot definition bundles a map of named flows alongside the default").
type Manifest struct {
	Name          string   `yaml:"name"`
	DefaultFlow   string   `yaml:"default_flow"`
	FlowsDir      string   `yaml:"flows_dir"`
	FnEndpoint    string   `yaml:"fn_endpoint"`
	CustomFlows   []string `yaml:"extra_flows,omitempty"`
}

// Flow is one loaded flow: its name and raw CSML source, kept
// unparsed here so the caller can decide when to parse/cache it
// (spec.md §4.7 step 1, "parse or retrieve cached Flow").
type Flow struct {
	Name string
	Src  []byte
}

// Bot is a fully loaded bot definition: the default flow's name and every
// discovered flow's source, keyed by name.
type Bot struct {
	Manifest    Manifest
	Flows       map[string][]byte
	DefaultFlow string
}

// Load reads manifestPath (a YAML Manifest) and every `.csml` file
// matching `**/*.csml` under its flows_dir (resolved relative to the
// manifest's directory), using doublestar for the recursive glob instead
// of a hand-rolled directory walk.
func Load(manifestPath string) (*Bot, error) {
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("reading bot manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing bot manifest: %w", err)
	}
	if m.DefaultFlow == "" {
		return nil, fmt.Errorf("bot manifest %s: default_flow is required", manifestPath)
	}

	base := filepath.Dir(manifestPath)
	flowsDir := m.FlowsDir
	if flowsDir == "" {
		flowsDir = "."
	}
	root := filepath.Join(base, flowsDir)

	fsys := os.DirFS(root)
	matches, err := doublestar.Glob(fsys, "**/*.csml")
	if err != nil {
		return nil, fmt.Errorf("globbing flows under %s: %w", root, err)
	}

	flows := map[string][]byte{}
	for _, rel := range matches {
		src, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			return nil, fmt.Errorf("reading flow %s: %w", rel, err)
		}
		name := flowNameFromPath(rel)
		flows[name] = src
	}

	if _, ok := flows[m.DefaultFlow]; !ok {
		return nil, fmt.Errorf("bot manifest %s: default_flow %q not found among discovered flows", manifestPath, m.DefaultFlow)
	}

	return &Bot{Manifest: m, Flows: flows, DefaultFlow: m.DefaultFlow}, nil
}

func flowNameFromPath(rel string) string {
	base := filepath.Base(rel)
	return base[:len(base)-len(filepath.Ext(base))]
}

// ValidateAll parses every discovered flow, surfacing parse errors eagerly
// rather than at first use (a bot-loading-time check rather than a
// per-turn one).
func (b *Bot) ValidateAll() error {
	for name, src := range b.Flows {
		if _, err := parser.ParseFlow(src); err != nil {
			return fmt.Errorf("flow %q: %w", name, err)
		}
	}
	return nil
}

package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Layout is the discriminated part of a Blueprint. It is implemented only by
// NicheLayout and BlockLayout.
type Layout interface {
	layoutKind() string
}

// NicheLayout renders the site with a predefined template for a recognised
// business category.
type NicheLayout struct {
	Template string
	Data     map[string]any
}

func (NicheLayout) layoutKind() string { return "niche" }

// BlockLayout renders the site as an ordered list of generic blocks.
type BlockLayout struct {
	Blocks []Block
}

func (BlockLayout) layoutKind() string { return "block" }

// Block is one typed layout section.
type Block struct {
	Type  string         `json:"type"`
	ID    string         `json:"id,omitempty"`
	Props map[string]any `json:"props,omitempty"`
}

type ColorScheme struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary,omitempty"`
	Accent     string `json:"accent,omitempty"`
	Background string `json:"background,omitempty"`
	Text       string `json:"text,omitempty"`
}

type SiteMeta struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Blueprint is the terminal artifact of a run.
type Blueprint struct {
	Layout      Layout
	ColorScheme ColorScheme
	Meta        *SiteMeta

	// DiscoveredURLs are same-site pages that were found but not scraped,
	// kept for later on-demand page generation.
	DiscoveredURLs []string
}

// NewNicheBlueprint builds a niche-path blueprint.
func NewNicheBlueprint(template string, data map[string]any, scheme ColorScheme) *Blueprint {
	return &Blueprint{
		Layout:      NicheLayout{Template: template, Data: data},
		ColorScheme: scheme,
	}
}

// NewBlockBlueprint builds a block-path blueprint.
func NewBlockBlueprint(blocks []Block, scheme ColorScheme) *Blueprint {
	return &Blueprint{
		Layout:      BlockLayout{Blocks: blocks},
		ColorScheme: scheme,
	}
}

// Kind reports "niche" or "block"; "" when no layout is set.
func (b *Blueprint) Kind() string {
	if b.Layout == nil {
		return ""
	}
	return b.Layout.layoutKind()
}

// blueprintJSON is the wire shape. Layout is always an array so consumers
// never see it absent.
type blueprintJSON struct {
	Kind           string         `json:"kind"`
	Template       string         `json:"template,omitempty"`
	NicheData      map[string]any `json:"nicheData,omitempty"`
	Layout         []Block        `json:"layout"`
	ColorScheme    ColorScheme    `json:"colorScheme"`
	Meta           *SiteMeta      `json:"meta,omitempty"`
	DiscoveredURLs []string       `json:"discoveredUrls"`
}

func (b Blueprint) MarshalJSON() ([]byte, error) {
	out := blueprintJSON{
		Layout:         []Block{},
		ColorScheme:    b.ColorScheme,
		Meta:           b.Meta,
		DiscoveredURLs: b.DiscoveredURLs,
	}
	if out.DiscoveredURLs == nil {
		out.DiscoveredURLs = []string{}
	}

	switch l := b.Layout.(type) {
	case NicheLayout:
		out.Kind = "niche"
		out.Template = l.Template
		out.NicheData = l.Data
	case BlockLayout:
		out.Kind = "block"
		if l.Blocks != nil {
			out.Layout = l.Blocks
		}
	default:
		return nil, errors.New("blueprint: layout not set")
	}
	return json.Marshal(out)
}

func (b *Blueprint) UnmarshalJSON(data []byte) error {
	var in blueprintJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	switch in.Kind {
	case "niche":
		b.Layout = NicheLayout{Template: in.Template, Data: in.NicheData}
	case "block":
		b.Layout = BlockLayout{Blocks: in.Layout}
	default:
		return fmt.Errorf("blueprint: unknown kind %q", in.Kind)
	}
	b.ColorScheme = in.ColorScheme
	b.Meta = in.Meta
	b.DiscoveredURLs = in.DiscoveredURLs
	return nil
}

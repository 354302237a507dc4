package palette

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrUnknownPalette = errors.New("unknown palette")

// Palette is one named color set. DomAndAlts colors balls by identity.
type Palette struct {
	Name           string   `yaml:"name"`
	MainForeground string   `yaml:"main_foreground"`
	MainBackground string   `yaml:"main_background"`
	Alt1           string   `yaml:"alt1"`
	DomAndAlts     []string `yaml:"dom_and_alts"`
}

// BallColor picks the ball color for an identity: identity modulo the
// palette size.
func (p Palette) BallColor(id uint64) string {
	if len(p.DomAndAlts) == 0 {
		return p.MainForeground
	}
	return p.DomAndAlts[id%uint64(len(p.DomAndAlts))]
}

type paletteFile struct {
	Palettes []Palette `yaml:"palettes"`
}

// Theme is the palette context handed to a simulation at construction. It is
// owned by the composing application and mutated only from the tick loop.
type Theme struct {
	palettes []Palette
	current  int
}

// NewTheme starts on the named palette, or the first one when initial is
// empty.
func NewTheme(palettes []Palette, initial string) (*Theme, error) {
	if len(palettes) == 0 {
		return nil, errors.New("theme: no palettes")
	}
	t := &Theme{palettes: palettes}
	if initial != "" {
		if err := t.Select(initial); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Theme) Current() Palette {
	return t.palettes[t.current]
}

func (t *Theme) Select(name string) error {
	for i, p := range t.palettes {
		if p.Name == name {
			t.current = i
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownPalette, name)
}

// Cycle advances to the next palette and returns it.
func (t *Theme) Cycle() Palette {
	t.current = (t.current + 1) % len(t.palettes)
	return t.Current()
}

// Names lists the palettes in file order.
func (t *Theme) Names() []string {
	out := make([]string, len(t.palettes))
	for i, p := range t.palettes {
		out[i] = p.Name
	}
	return out
}

// Load reads palettes from a YAML file.
func Load(path string) ([]Palette, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read palettes: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and checks a palettes document.
func Parse(raw []byte) ([]Palette, error) {
	var f paletteFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse palettes: %w", err)
	}
	if len(f.Palettes) == 0 {
		return nil, errors.New("parse palettes: no palettes defined")
	}
	seen := make(map[string]bool, len(f.Palettes))
	for _, p := range f.Palettes {
		if p.Name == "" {
			return nil, errors.New("parse palettes: palette without name")
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("parse palettes: duplicate palette %q", p.Name)
		}
		seen[p.Name] = true
		if p.MainForeground == "" {
			return nil, fmt.Errorf("parse palettes: %q has no main_foreground", p.Name)
		}
	}
	return f.Palettes, nil
}

// Package names maps ball identities to participant names and the short
// labels drawn on the balls.
package names

import (
	"fmt"
	"math/rand"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

type namesFile struct {
	Names []string `yaml:"names"`
}

// Source is a shuffled, read-only name list. Identities wrap around the
// list, so any number of balls can be labelled.
type Source struct {
	names []string
	short []string
	order []int
}

// NewSource shuffles names once with rng. A nil rng keeps file order.
func NewSource(names []string, rng *rand.Rand) *Source {
	s := &Source{
		names: names,
		short: make([]string, len(names)),
		order: make([]int, len(names)),
	}
	for i, n := range names {
		s.short[i] = Short(n)
		s.order[i] = i
	}
	if rng != nil {
		rng.Shuffle(len(s.order), func(i, j int) {
			s.order[i], s.order[j] = s.order[j], s.order[i]
		})
	}
	return s
}

func (s *Source) Len() int { return len(s.names) }

// NameOf returns the participant name for an identity.
func (s *Source) NameOf(id uint64) string {
	if s == nil || len(s.names) == 0 {
		return fmt.Sprintf("#%d", id)
	}
	return s.names[s.order[id%uint64(len(s.order))]]
}

// ShortOf returns the ball label for an identity.
func (s *Source) ShortOf(id uint64) string {
	if s == nil || len(s.names) == 0 {
		return fmt.Sprintf("%d", id)
	}
	return s.short[s.order[id%uint64(len(s.order))]]
}

// Short keeps the first two characters of each word. Characters are NFC
// segments, so a letter and its combining accents stay together.
func Short(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		var it norm.Iter
		it.InitString(norm.NFC, word)
		for n := 0; n < 2 && !it.Done(); n++ {
			b.Write(it.Next())
		}
	}
	return b.String()
}

// Load reads a names YAML file.
func Load(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read names: %w", err)
	}
	var f namesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse names: %w", err)
	}
	out := f.Names[:0]
	for _, n := range f.Names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out, nil
}

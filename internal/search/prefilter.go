package search

import (
	"strings"

	"github.com/coregx/ahocorasick"

	"github.com/funkybooboo/grep/internal/regex"
)

// prefilter answers the per-line hit question for pattern sets made up
// entirely of plain literals, using one Aho-Corasick automaton over all of
// them instead of the backtracking engine. For such patterns a literal
// occurrence is the whole match, so no verification pass is needed.
type prefilter struct {
	auto *ahocorasick.Automaton
	fold bool
}

// newPrefilter returns nil when any pattern needs the full engine.
func newPrefilter(patterns []*regex.Pattern, fold bool) *prefilter {
	if len(patterns) == 0 {
		return nil
	}
	builder := ahocorasick.NewBuilder()
	for _, p := range patterns {
		lit, ok := p.LiteralOnly()
		if !ok {
			return nil
		}
		if fold {
			lit = strings.ToLower(lit)
		}
		builder.AddPattern([]byte(lit))
	}
	auto, err := builder.Build()
	if err != nil {
		return nil
	}
	return &prefilter{auto: auto, fold: fold}
}

func (f *prefilter) match(text string) bool {
	if f.fold {
		text = strings.ToLower(text)
	}
	return f.auto.IsMatch([]byte(text))
}

// Package moderation censors configured words in outgoing message text
// before it reaches the relay.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"

	apperrors "messenger-lab/errors"
)

// Censor matches a fixed word list case-insensitively with an Aho-Corasick
// automaton and replaces every matched rune.
type Censor struct {
	machine     *goahocorasick.Machine
	replacement rune
}

// NewCensor builds the automaton over the lowercased word list. Lowering is
// done rune by rune on both patterns and input, so match offsets in the
// lowered text line up with the original.
func NewCensor(words []string, replacement rune) (*Censor, error) {
	if len(words) == 0 {
		return nil, apperrors.ErrEmptyWords
	}
	patterns := make([][]rune, len(words))
	for i, word := range words {
		patterns[i] = lowerRunes([]rune(word))
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Censor{machine: machine, replacement: replacement}, nil
}

// Apply replaces every occurrence of a censored word in text and returns the
// result together with the distinct words that were hit.
func (c *Censor) Apply(text string) (string, []string) {
	original := []rune(text)
	lowered := lowerRunes(original)

	matches := c.machine.MultiPatternSearch(lowered, false)
	if len(matches) == 0 {
		return text, nil
	}

	var hits []string
	for _, match := range matches {
		hits = append(hits, string(match.Word))
		for i := match.Pos; i < match.Pos+len(match.Word) && i < len(original); i++ {
			original[i] = c.replacement
		}
	}
	return string(original), hits
}

func lowerRunes(in []rune) []rune {
	out := make([]rune, len(in))
	for i, r := range in {
		out[i] = unicode.ToLower(r)
	}
	return out
}

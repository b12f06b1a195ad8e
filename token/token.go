/*
Package token defines the immutable token types that flow between the
tokeniser, the morphological analyser, and the chart parser.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>
Copyright © 2024 the yargo authors
*/
package token

import "fmt"

// Type is a closed, extensible category for a Token. The zero value is Other.
type Type int8

const (
	Other Type = iota
	RussianWord
	LatinWord
	Integer
	Punctuation
	LineBreak
)

func (t Type) String() string {
	switch t {
	case RussianWord:
		return "RU-WORD"
	case LatinWord:
		return "LAT-WORD"
	case Integer:
		return "INT"
	case Punctuation:
		return "PUNCT"
	case LineBreak:
		return "EOL"
	default:
		return "OTHER"
	}
}

// Span is a half-open character range [Start, Stop) into the original text.
type Span struct {
	Start int
	Stop  int
}

// Len returns the number of characters covered by the span.
func (s Span) Len() int { return s.Stop - s.Start }

// Adjacent reports whether s immediately precedes other with no gap.
func (s Span) Adjacent(other Span) bool {
	return s.Stop == other.Start
}

// Extend returns the smallest span covering both s and other.
func (s Span) Extend(other Span) Span {
	out := s
	if other.Start < out.Start {
		out.Start = other.Start
	}
	if other.Stop > out.Stop {
		out.Stop = other.Stop
	}
	return out
}

func (s Span) String() string {
	return fmt.Sprintf("[%d:%d)", s.Start, s.Stop)
}

// Token is the immutable record produced by the tokeniser: a value, its
// span in the source text, and a closed type category.
type Token struct {
	Value string
	Span  Span
	Type  Type
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)%s", t.Type, t.Value, t.Span)
}

// Form is one morphological analysis of a word: a lemma and a set of
// grammemes, plus a handle back to the analyser that can inflect it.
//
// The inflection handle is a plain function value bound by the morph
// package's Analyzer, so that token does not import morph (which would
// be a dependency cycle), mirroring how gorgo.Token keeps Span a
// standalone value type.
type Form struct {
	Lemma string
	Grams map[string]struct{}
	// inflect is bound by the morph adapter when it builds Forms; nil for
	// synthetic/OOV forms that only ever carry a lemma.
	inflect func(grams map[string]struct{}) (string, bool)
}

// NewForm constructs a Form with a bound inflection function.
func NewForm(lemma string, grams map[string]struct{}, inflect func(map[string]struct{}) (string, bool)) Form {
	return Form{Lemma: lemma, Grams: grams, inflect: inflect}
}

// HasGram reports whether the form carries the given grammeme.
func (f Form) HasGram(g string) bool {
	_, ok := f.Grams[g]
	return ok
}

// Inflect transforms the form to the requested target grammeme set,
// returning the inflected surface string. If the analyser cannot produce
// a matching form it returns ok=false.
func (f Form) Inflect(grams map[string]struct{}) (string, bool) {
	if f.inflect == nil {
		return "", false
	}
	return f.inflect(grams)
}

// Clone returns a copy of f with an independent Grams set, so that a
// predicate's constrain step can narrow forms in place without aliasing
// the original token's form list (see predicate.Predicate.Constrain).
func (f Form) Clone() Form {
	g := make(map[string]struct{}, len(f.Grams))
	for k := range f.Grams {
		g[k] = struct{}{}
	}
	return Form{Lemma: f.Lemma, Grams: g, inflect: f.inflect}
}

// Morph is a token additionally carrying an ordered list of morphological
// forms, most-probable first.
type Morph struct {
	Token
	Forms []Form
}

// Clone returns a Morph with its own Forms slice (each Form independently
// cloned), so constrain() can narrow in place without mutating shared state.
func (m Morph) Clone() Morph {
	forms := make([]Form, len(m.Forms))
	for i, f := range m.Forms {
		forms[i] = f.Clone()
	}
	return Morph{Token: m.Token, Forms: forms}
}

// Tagged is a token additionally carrying a single tag symbol, assigned by
// the BNF/chart layer once a predicate (or a completed non-terminal) has
// matched it.
type Tagged struct {
	Morph
	Tag string
}

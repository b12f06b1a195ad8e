package interp

import (
	"strings"

	"github.com/rugram/yargo/token"
)

// NormKind discriminates the normaliser sum type (spec §4.6).
type NormKind int

const (
	NormNormalized NormKind = iota
	NormInflected
	NormConst
	NormCustom
)

// Normalizer maps a token chain (or an upstream scalar, for composition)
// to a value, per spec §4.6. Compositions (norm.Custom(f)) chain through
// Then.
type Normalizer struct {
	Kind   NormKind
	Grams  map[string]struct{} // NormInflected
	Const  interface{}         // NormConst
	Custom func(interface{}) interface{}
	Then   *Normalizer
}

// Normalized joins token lemmas with single spaces (spec §4.6).
func Normalized() *Normalizer { return &Normalizer{Kind: NormNormalized} }

// Inflected inflects each morph token's first form to the target gram
// set and joins the results with single spaces.
func Inflected(grams ...string) *Normalizer {
	set := make(map[string]struct{}, len(grams))
	for _, g := range grams {
		set[g] = struct{}{}
	}
	return &Normalizer{Kind: NormInflected, Grams: set}
}

// ConstNorm ignores its input and always produces v.
func ConstNorm(v interface{}) *Normalizer { return &Normalizer{Kind: NormConst, Const: v} }

// CustomNorm applies f to the raw joined string (or the upstream scalar,
// when composed after another normaliser/attribute).
func CustomNorm(f func(interface{}) interface{}) *Normalizer {
	return &Normalizer{Kind: NormCustom, Custom: f}
}

// Title applies strings.Title-style capitalisation of every word (kept
// simple and locale-free — recovered from natasha/yargy's title(),
// SPEC_FULL.md).
func Title() *Normalizer {
	return CustomNorm(func(v interface{}) interface{} {
		s, _ := v.(string)
		words := strings.Fields(s)
		for i, w := range words {
			words[i] = capitalizeWord(w)
		}
		return strings.Join(words, " ")
	})
}

// Capitalize upper-cases only the first rune of the input string
// (natasha/yargy's capitalize(), SPEC_FULL.md).
func Capitalize() *Normalizer {
	return CustomNorm(func(v interface{}) interface{} {
		s, _ := v.(string)
		return capitalizeWord(s)
	})
}

func capitalizeWord(w string) string {
	r := []rune(w)
	if len(r) == 0 {
		return w
	}
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// Custom returns a new normaliser that applies n, then f to n's result
// (the norm.custom(f) composition of spec §4.6).
func (n *Normalizer) Custom(f func(interface{}) interface{}) *Normalizer {
	cp := *n
	tail := &cp
	for tail.Then != nil {
		tailCp := *tail.Then
		tail.Then = &tailCp
		tail = tail.Then
	}
	tail.Then = CustomNorm(f)
	return &cp
}

// apply evaluates n over toks (the leaf chain feeding this interpretator)
// and raw (their already-joined surface text), then threads the result
// through any Then composition.
func (n *Normalizer) apply(toks []token.Morph, raw string) (interface{}, error) {
	var out interface{}
	switch n.Kind {
	case NormNormalized:
		out = joinLemmas(toks, raw)
	case NormInflected:
		out = joinInflected(toks, n.Grams, raw)
	case NormConst:
		out = n.Const
	case NormCustom:
		if n.Custom == nil {
			out = raw
		} else {
			out = n.Custom(raw)
		}
	}
	for link := n.Then; link != nil; link = link.Then {
		if link.Custom != nil {
			out = link.Custom(out)
		}
	}
	return out, nil
}

func joinLemmas(toks []token.Morph, fallback string) string {
	if len(toks) == 0 {
		return fallback
	}
	parts := make([]string, 0, len(toks))
	for i, t := range toks {
		lemma := t.Value
		if len(t.Forms) > 0 {
			lemma = t.Forms[0].Lemma
		}
		if i > 0 {
			parts = append(parts, " ")
		}
		parts = append(parts, lemma)
	}
	return strings.Join(parts, "")
}

func joinInflected(toks []token.Morph, grams map[string]struct{}, fallback string) string {
	if len(toks) == 0 {
		return fallback
	}
	parts := make([]string, 0, len(toks))
	for i, t := range toks {
		surface := t.Value
		if len(t.Forms) > 0 {
			if inflected, ok := t.Forms[0].Inflect(grams); ok {
				surface = inflected
			}
		}
		if i > 0 {
			parts = append(parts, " ")
		}
		parts = append(parts, surface)
	}
	return strings.Join(parts, "")
}

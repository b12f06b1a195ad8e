/*
Package predicate implements decidable boolean tests on a single token
(spec §3 "Predicate"/§4.1), the lexical, morphological and dictionary
tests that form the terminals of a yargo grammar.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2024 the yargo authors
*/
package predicate

import (
	"fmt"
	"strings"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"

	"github.com/rugram/yargo/relation"
	"github.com/rugram/yargo/token"
)

// tracer traces with key 'yargo.predicate'. Per-token predicate tests are
// far too frequent to log individually; this exists for parity with the
// rest of the engine and for construction-time diagnostics.
func tracer() tracing.Trace {
	if t := tracing.Select("yargo.predicate"); t != nil {
		return t
	}
	return gtrace.SyntaxTracer
}

// Predicate is a decidable boolean test over a single morph token, with
// an optional narrowing step (spec §3): Constrain never widens the
// token's form list.
type Predicate interface {
	// Test reports whether tok satisfies the predicate.
	Test(tok token.Morph) bool
	// Constrain returns tok with its form list narrowed to the forms
	// that justify Test returning true. Predicates with no morphological
	// opinion return tok unchanged.
	Constrain(tok token.Morph) token.Morph
	String() string
}

// base is an embeddable no-op Constrain for predicates with no
// morphological narrowing of their own (lexical/structural predicates).
type base struct{ name string }

func (b base) Constrain(tok token.Morph) token.Morph { return tok }
func (b base) String() string                        { return b.name }

// --- lexical / structural predicates ------------------------------------

type eqPredicate struct {
	base
	value      string
	caseless   bool
}

// Eq matches tokens whose Value equals value exactly. Bare string
// literals passed to rule.Production(...) are coerced to this predicate (spec
// §4.1).
func Eq(value string) Predicate {
	return eqPredicate{base{fmt.Sprintf("eq(%q)", value)}, value, false}
}

// EqCaseless matches tokens whose Value equals value, Unicode
// case-folded.
func EqCaseless(value string) Predicate {
	return eqPredicate{base{fmt.Sprintf("caseless(%q)", value)}, strings.ToLower(value), true}
}

func (p eqPredicate) Test(tok token.Morph) bool {
	if p.caseless {
		return strings.EqualFold(tok.Value, p.value)
	}
	return tok.Value == p.value
}

// In matches tokens whose Value is a member of values (exact match).
func In(values ...string) Predicate {
	set := toSet(values, false)
	return inPredicate{base{fmt.Sprintf("in(%d values)", len(values))}, set, false}
}

// InCaseless matches tokens whose Value, case-folded, is a member of
// values (case-folded).
func InCaseless(values ...string) Predicate {
	set := toSet(values, true)
	return inPredicate{base{fmt.Sprintf("in_caseless(%d values)", len(values))}, set, true}
}

type inPredicate struct {
	base
	set      map[string]struct{}
	caseless bool
}

func toSet(values []string, caseless bool) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		if caseless {
			v = strings.ToLower(v)
		}
		out[v] = struct{}{}
	}
	return out
}

func (p inPredicate) Test(tok token.Morph) bool {
	key := tok.Value
	if p.caseless {
		key = strings.ToLower(key)
	}
	_, ok := p.set[key]
	return ok
}

// Type matches tokens of the given closed type category.
func Type(t token.Type) Predicate {
	return typePredicate{base{fmt.Sprintf("type(%s)", t)}, t}
}

type typePredicate struct {
	base
	t token.Type
}

func (p typePredicate) Test(tok token.Morph) bool { return tok.Type == p.t }

// LengthEq matches tokens whose Value is exactly n characters long
// (rune count), recovered from natasha/yargy's length_eq (SPEC_FULL.md).
func LengthEq(n int) Predicate {
	return lengthPredicate{base{fmt.Sprintf("length_eq(%d)", n)}, n}
}

type lengthPredicate struct {
	base
	n int
}

func (p lengthPredicate) Test(tok token.Morph) bool { return len([]rune(tok.Value)) == p.n }

// IsCapitalized matches tokens whose first rune is upper case and the
// remainder is not all upper case (distinguishing "Иванов" from
// "ИВАНОВ"), recovered from natasha/yargy's is_capitalized.
func IsCapitalized() Predicate {
	return base{"is_capitalized()"}.wrap(func(tok token.Morph) bool {
		r := []rune(tok.Value)
		if len(r) == 0 || !strings.ContainsRune(strings.ToUpper(string(r[0])), r[0]) {
			return false
		}
		if r[0] == []rune(strings.ToLower(string(r[0])))[0] {
			return false
		}
		rest := string(r[1:])
		return rest == "" || strings.ToUpper(rest) != rest
	})
}

// wrap is a small helper so simple structural predicates can be defined
// as closures without hand-writing a type each time.
func (b base) wrap(fn func(token.Morph) bool) Predicate {
	return funcPredicate{b, fn}
}

type funcPredicate struct {
	base
	fn func(token.Morph) bool
}

func (p funcPredicate) Test(tok token.Morph) bool { return p.fn(tok) }

// Custom wraps an arbitrary user function as a predicate.
func Custom(name string, fn func(token.Morph) bool) Predicate {
	return funcPredicate{base{fmt.Sprintf("custom(%s)", name)}, fn}
}

// --- morphological predicates --------------------------------------------

// Gram matches morph tokens carrying the given grammeme in at least one
// form, and narrows the token's form list to the matching forms (spec
// §3: "morph predicates such as gram('NOUN') reduce the form set").
func Gram(gram string) Predicate {
	return gramPredicate{base{fmt.Sprintf("gram(%s)", gram)}, gram, false}
}

// GramNot matches morph tokens that have at least one form WITHOUT the
// given grammeme, and narrows to those forms (recovered from
// natasha/yargy's gram_not, SPEC_FULL.md — distinct from Not(Gram(x)),
// which negates the boolean test but does not narrow).
func GramNot(gram string) Predicate {
	return gramPredicate{base{fmt.Sprintf("gram_not(%s)", gram)}, gram, true}
}

type gramPredicate struct {
	base
	gram    string
	negate  bool
}

func (p gramPredicate) matchingForms(tok token.Morph) []token.Form {
	var out []token.Form
	for _, f := range tok.Forms {
		has := f.HasGram(p.gram)
		if has != p.negate {
			out = append(out, f)
		}
	}
	return out
}

func (p gramPredicate) Test(tok token.Morph) bool { return len(p.matchingForms(tok)) > 0 }

func (p gramPredicate) Constrain(tok token.Morph) token.Morph {
	forms := p.matchingForms(tok)
	out := tok
	out.Forms = forms
	return out
}

// CollectGrammemes recursively gathers every grammeme name referenced by
// p (through Gram/GramNot and the And/Or/Not combinators), for grammar
// activation to validate against the morphology's known vocabulary
// (spec §4.2 pass 1 "Activate").
func CollectGrammemes(p Predicate) []string {
	switch v := p.(type) {
	case gramPredicate:
		return []string{v.gram}
	case andPredicate:
		var out []string
		for _, sub := range v.ps {
			out = append(out, CollectGrammemes(sub)...)
		}
		return out
	case orPredicate:
		var out []string
		for _, sub := range v.ps {
			out = append(out, CollectGrammemes(sub)...)
		}
		return out
	case notPredicate:
		return CollectGrammemes(v.p)
	case Relational:
		return CollectGrammemes(v.Predicate)
	default:
		return nil
	}
}

// Lemma matches morph tokens carrying any of the given lemmas in at
// least one form, narrowing to the matching forms. This is the
// terminal test a Pipeline rule's lemma-set mode compiles each
// dictionary entry down to (SPEC_FULL.md, rule.PipelineLemma).
func Lemma(lemmas ...string) Predicate {
	set := toSet(lemmas, false)
	return lemmaPredicate{base{fmt.Sprintf("lemma(%d values)", len(lemmas))}, set}
}

type lemmaPredicate struct {
	base
	set map[string]struct{}
}

func (p lemmaPredicate) matchingForms(tok token.Morph) []token.Form {
	var out []token.Form
	for _, f := range tok.Forms {
		if _, ok := p.set[f.Lemma]; ok {
			out = append(out, f)
		}
	}
	return out
}

func (p lemmaPredicate) Test(tok token.Morph) bool { return len(p.matchingForms(tok)) > 0 }

func (p lemmaPredicate) Constrain(tok token.Morph) token.Morph {
	out := tok
	out.Forms = p.matchingForms(tok)
	return out
}

// --- combinators -----------------------------------------------------------

type andPredicate struct{ ps []Predicate }

// And builds the conjunction of ps. Constrain applies every predicate's
// narrowing in sequence, so the result is never wider than any single
// predicate's constraint (spec §3/§8 "predicate narrowing monotonicity").
func And(ps ...Predicate) Predicate { return andPredicate{ps} }

func (p andPredicate) Test(tok token.Morph) bool {
	for _, sub := range p.ps {
		if !sub.Test(tok) {
			return false
		}
	}
	return true
}

func (p andPredicate) Constrain(tok token.Morph) token.Morph {
	for _, sub := range p.ps {
		tok = sub.Constrain(tok)
	}
	return tok
}

func (p andPredicate) String() string { return joinNames("and", p.ps) }

type orPredicate struct{ ps []Predicate }

// Or builds the disjunction of ps. Constrain narrows to the union of
// forms accepted by any satisfied sub-predicate.
func Or(ps ...Predicate) Predicate { return orPredicate{ps} }

func (p orPredicate) Test(tok token.Morph) bool {
	for _, sub := range p.ps {
		if sub.Test(tok) {
			return true
		}
	}
	return false
}

func (p orPredicate) Constrain(tok token.Morph) token.Morph {
	seen := map[string]token.Form{}
	for _, sub := range p.ps {
		if !sub.Test(tok) {
			continue
		}
		constrained := sub.Constrain(tok)
		for _, f := range constrained.Forms {
			seen[f.Lemma+"|"+fmt.Sprint(f.Grams)] = f
		}
	}
	out := tok
	out.Forms = out.Forms[:0]
	for _, f := range seen {
		out.Forms = append(out.Forms, f)
	}
	return out
}

func (p orPredicate) String() string { return joinNames("or", p.ps) }

type notPredicate struct{ p Predicate }

// Not negates p's boolean test. It never narrows forms: negation is not
// a morphological constraint, merely a gate (spec §3).
func Not(p Predicate) Predicate { return notPredicate{p} }

func (p notPredicate) Test(tok token.Morph) bool            { return !p.p.Test(tok) }
func (p notPredicate) Constrain(tok token.Morph) token.Morph { return tok }
func (p notPredicate) String() string                        { return "not(" + p.p.String() + ")" }

func joinNames(op string, ps []Predicate) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.String()
	}
	return op + "(" + strings.Join(names, ",") + ")"
}

// --- relation predicates ---------------------------------------------------

// Relational wraps base with the relations it participates in (spec §3
// "relation predicate"). Package tree's interpretation walk recognises a
// leaf scanned by a Relational predicate and folds every bound relation
// into the derivation's relation-graph snapshot (see tree.Interpret).
type Relational struct {
	Predicate
	Relations []*relation.Relation
}

// Match attaches one or more relations to base, returning a Relational.
func Match(base Predicate, rels ...*relation.Relation) Relational {
	return Relational{Predicate: base, Relations: rels}
}

func (r Relational) String() string {
	return fmt.Sprintf("%s.match(%v)", r.Predicate.String(), r.Relations)
}

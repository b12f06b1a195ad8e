/*
Package bnf is the flat grammar representation produced by package
normalize's rewrite pipeline (spec §4.2 pass 7 "BNF build"): every
non-terminal a fixed list of alternative productions, every production a
fixed sequence of terms, each term either a terminal predicate or a
reference to another non-terminal. This is the representation the chart
parser (package earley) actually runs against.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2024 the yargo authors
*/
package bnf

import (
	"fmt"
	"strings"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rugram/yargo/interp"
	"github.com/rugram/yargo/predicate"
	"github.com/rugram/yargo/relation"
	"github.com/rugram/yargo/rule"
	"github.com/rugram/yargo/token"
)

// tracer traces with key 'yargo.bnf'.
func tracer() tracing.Trace {
	if t := tracing.Select("yargo.bnf"); t != nil {
		return t
	}
	return gtrace.SyntaxTracer
}

// Term is a single symbol inside a Production: either a terminal
// predicate or a reference to another non-terminal of the owning
// Grammar (by index).
type Term struct {
	Pred predicate.Predicate // non-nil for a terminal
	NT   int                 // index into Grammar.Rules, meaningful when Pred == nil
}

func (t Term) String() string {
	if t.Pred != nil {
		return t.Pred.String()
	}
	return fmt.Sprintf("#%d", t.NT)
}

// Production is one alternative of a non-terminal: a sequence of terms
// plus the index of the semantic head (spec §3 "Production"). Rank
// orders productions within their non-terminal for ambiguity preference
// (spec §4.1 reverse, §4.7 determinism).
type Production struct {
	Terms []Term
	Main  int // index into Terms, or -1 if Terms is empty
	Rank  int
}

func (p Production) String() string {
	parts := make([]string, len(p.Terms))
	for i, t := range p.Terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

// NonTerminal is a named or auto-named BNF symbol with its alternative
// productions, plus the grammar-author annotations (interpretation,
// whole-rule relation binding, pipeline index) that survived
// normalisation (spec §4.2 pass 7).
type NonTerminal struct {
	ID          int
	Name        string
	Productions []Production
	Interp      *interp.Spec
	Relation    *relation.Relation
	Pipeline    *PipelineIndex
}

func (nt *NonTerminal) String() string { return nt.Name }

// Grammar is the fully normalised rule set. Rules[0] is always the start
// symbol.
type Grammar struct {
	Rules []*NonTerminal
}

// Start returns the grammar's start non-terminal.
func (g *Grammar) Start() *NonTerminal { return g.Rules[0] }

// PipelineIndex accelerates prediction over a dictionary rule (spec
// §4.3): rather than trying every entry's production at every column,
// the parser looks up the lookahead token's key and only predicts
// productions registered under that key. Keyed containers use
// emirpasic/gods' treeset for deterministic, sorted iteration order so
// that otherwise-tied productions resolve identically across runs.
type PipelineIndex struct {
	Mode rule.PipelineMode
	byKey map[string]*treeset.Set
}

// NewPipelineIndex builds an empty index for mode.
func NewPipelineIndex(mode rule.PipelineMode) *PipelineIndex {
	return &PipelineIndex{Mode: mode, byKey: map[string]*treeset.Set{}}
}

// Register associates production index prodIdx with every key entry
// produces under the index's mode.
func (p *PipelineIndex) Register(entry string, prodIdx int) {
	tracer().Debugf("bnf: registering pipeline entry %q -> production %d", entry, prodIdx)
	for _, key := range p.keysFor(entry) {
		set, ok := p.byKey[key]
		if !ok {
			set = treeset.NewWith(utils.IntComparator)
			p.byKey[key] = set
		}
		set.Add(prodIdx)
	}
}

var caseFolder = cases.Fold()

// SetCaseFoldLocale switches the case-folded PipelineIndex variant from
// Unicode's locale-independent fold (the default, correct for almost
// every language including Russian) to a locale-sensitive lower-caser
// for tag. Only a handful of languages (Turkish, Azeri) actually need
// this; it exists so yargo.Config's pipeline_locale setting has
// somewhere real to land.
func SetCaseFoldLocale(tag language.Tag) {
	if tag == language.Und {
		caseFolder = cases.Fold()
		return
	}
	caseFolder = cases.Lower(tag)
}

func (p *PipelineIndex) keysFor(value string) []string {
	switch p.Mode {
	case rule.PipelineCaseFolded:
		return []string{caseFolder.String(value)}
	default:
		return []string{value}
	}
}

// KeysForToken derives the lookup keys a lookahead token presents to
// this index: a single key for the exact/case-folded modes, or one key
// per candidate lemma for the lemma-set mode (a token can carry several
// morphological readings, spec §4.3 "lemma variant").
func (p *PipelineIndex) KeysForToken(tok token.Morph) []string {
	switch p.Mode {
	case rule.PipelineExact:
		return []string{tok.Value}
	case rule.PipelineCaseFolded:
		return []string{caseFolder.String(tok.Value)}
	case rule.PipelineLemma:
		seen := map[string]struct{}{}
		var keys []string
		for _, f := range tok.Forms {
			if _, ok := seen[f.Lemma]; ok {
				continue
			}
			seen[f.Lemma] = struct{}{}
			keys = append(keys, f.Lemma)
		}
		return keys
	default:
		return nil
	}
}

// Predict returns the production indices registered under key, in
// deterministic ascending order, or nil if key is unknown.
func (p *PipelineIndex) Predict(key string) []int {
	set, ok := p.byKey[key]
	if !ok {
		return nil
	}
	vals := set.Values()
	out := make([]int, len(vals))
	for i, v := range vals {
		out[i] = v.(int)
	}
	return out
}

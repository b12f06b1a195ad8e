/*
Package normalize implements the grammar normalisation pipeline of spec
§4.2: it rewrites the arena graph built by package rule (an open sum
type of Production/Or/Optional/Repeatable/Named/Interpretation/
RelationBound/Forward/Empty/Pipeline nodes) into the flat BNF
representation of package bnf that the chart parser consumes.

The eight named passes of spec §4.2 are not eight separate tree walks
over eight separate intermediate representations — that would mean
allocating and throwing away seven scratch grammars for no behavioural
difference. Instead Normalize performs one recursive compilation,
organised as named helper functions that each correspond to exactly one
pass, applied in the pass order the spec lists:

  1. activate          -- Activate: validate grammemes, repeat bounds,
                           Forward closure before anything else runs
                           (relation arity is checked on the built
                           grammar afterwards, by checkRelationArity).
  2. unwrap             -- Squash extended: Named/Interpretation/
                           RelationBound/Forward wrappers are peeled
                           from a node without ever becoming their own
                           BNF symbol; they attach their annotation to
                           whichever non-terminal their unwrapped core
                           becomes.
  3. expandRepeatable, expandOptional
                        -- Replace extended: Optional and Repeatable
                           are rewritten into their or()/self-reference
                           unrolling (spec's "temp := or(x, seq(x,temp))").
  4. altProductions     -- Replace or: an Or's alternatives are folded
                           directly into the alternatives of the single
                           BNF rule the Or becomes.
  5. (KindEmpty case throughout)
                        -- Replace empty: Empty already denotes a
                           zero-term production; no rewrite needed, only
                           a terminal case in the production builders.
  6. flattenTarget       -- Flatten: a rule whose sole production is a
                           single bare rule-reference collapses to that
                           referenced rule directly (no redundant alias
                           symbol).
  7. resolve, materialize
                        -- BNF build: decide which rule IDs become their
                           own addressable non-terminal (the start rule,
                           anything referenced more than once, anything
                           carrying a name/interpretation/relation/
                           pipeline annotation) versus being resolved
                           away by flattenTarget.
  8. unwrap's KindForward case
                        -- Remove forward: a Forward rule's identity
                           disappears once resolved to its Target; only
                           the target non-terminal survives in the
                           output grammar.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2024 the yargo authors
*/
package normalize

import (
	"fmt"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"

	"github.com/rugram/yargo/bnf"
	"github.com/rugram/yargo/interp"
	"github.com/rugram/yargo/morph"
	"github.com/rugram/yargo/predicate"
	"github.com/rugram/yargo/relation"
	"github.com/rugram/yargo/rule"
)

// tracer traces with key 'yargo.normalize'.
func tracer() tracing.Trace {
	if t := tracing.Select("yargo.normalize"); t != nil {
		return t
	}
	return gtrace.SyntaxTracer
}

// compiler holds the state threaded through a single Normalize call.
type compiler struct {
	arena *rule.Arena
	start rule.ID
	refs  map[rule.ID]int
	nts   map[rule.ID]*bnf.NonTerminal
	order []*bnf.NonTerminal
	auto  int
}

// Normalize compiles start (and everything it transitively references)
// into a flat bnf.Grammar, or a GrammarError if the grammar is
// ill-formed (spec §4.2 pass 1 "Activate"; §7 GrammarError).
func Normalize(start rule.Rule) (*bnf.Grammar, error) {
	c := &compiler{
		arena: start.Arena(),
		start: start.ID(),
		nts:   map[rule.ID]*bnf.NonTerminal{},
	}
	if err := c.activate(start.ID(), map[rule.ID]bool{}); err != nil {
		return nil, err
	}
	c.refs = countRefs(c.arena, start.ID())
	if _, err := c.resolve(start.ID()); err != nil {
		return nil, err
	}
	g := &bnf.Grammar{Rules: c.order}
	if err := checkRelationArity(g); err != nil {
		return nil, err
	}
	tracer().Debugf("normalize: compiled %d non-terminal(s)", len(g.Rules))
	return g, nil
}

// --- pass 1: activate ------------------------------------------------------

// activate walks the raw arena graph validating every grammeme name and
// every Forward rule's closure before normalisation begins, so
// construction-time mistakes surface as a GrammarError rather than a
// parser that silently never matches (spec §4.2 pass 1).
func (c *compiler) activate(id rule.ID, seen map[rule.ID]bool) error {
	if seen[id] {
		return nil
	}
	seen[id] = true
	n := c.arena.Node(id)
	switch n.Kind {
	case rule.KindProduction:
		for _, t := range n.Terms {
			if t.Pred != nil {
				if err := checkGrammemes(t.Pred); err != nil {
					return err
				}
				continue
			}
			if err := c.activate(t.Ref, seen); err != nil {
				return err
			}
		}
	case rule.KindOr:
		for _, alt := range n.Alts {
			if err := c.activate(alt, seen); err != nil {
				return err
			}
		}
	case rule.KindOptional, rule.KindNamed, rule.KindInterpretation, rule.KindRelationBound:
		return c.activate(n.Child, seen)
	case rule.KindRepeatable:
		if n.Min < 0 {
			return errf("activate", "repeatable minimum must be >= 0, got %d", n.Min)
		}
		if n.Max != 0 && n.Max < n.Min {
			return errf("activate", "repeatable maximum %d is less than minimum %d", n.Max, n.Min)
		}
		return c.activate(n.Child, seen)
	case rule.KindForward:
		if n.Target < 0 {
			return errf("activate", "forward rule %d was never closed with Define", id)
		}
		return c.activate(n.Target, seen)
	case rule.KindPipeline:
		if len(n.Entries) == 0 {
			return errf("activate", "pipeline rule %d has no entries", id)
		}
	case rule.KindEmpty:
		// nothing to validate
	default:
		return errf("activate", "unknown rule kind %v", n.Kind)
	}
	return nil
}

func checkGrammemes(p predicate.Predicate) error {
	for _, g := range predicate.CollectGrammemes(p) {
		if !morph.CheckGram(g) {
			return errf("activate", "unknown grammeme %q referenced by %s", g, p.String())
		}
	}
	return nil
}

// --- reference counting, for BNF-build's "referenced more than once" ------

func countRefs(arena *rule.Arena, start rule.ID) map[rule.ID]int {
	refs := map[rule.ID]int{}
	seen := map[rule.ID]bool{}
	var walk func(id rule.ID)
	walk = func(id rule.ID) {
		if seen[id] {
			return
		}
		seen[id] = true
		n := arena.Node(id)
		mark := func(child rule.ID) {
			refs[child]++
			walk(child)
		}
		switch n.Kind {
		case rule.KindProduction:
			for _, t := range n.Terms {
				if t.Pred == nil {
					mark(t.Ref)
				}
			}
		case rule.KindOr:
			for _, alt := range n.Alts {
				mark(alt)
			}
		case rule.KindOptional, rule.KindNamed, rule.KindInterpretation, rule.KindRelationBound:
			mark(n.Child)
		case rule.KindRepeatable:
			mark(n.Child)
		case rule.KindForward:
			if n.Target >= 0 {
				mark(n.Target)
			}
		}
	}
	walk(start)
	return refs
}

// --- passes 2 & 8: unwrap wrapper nodes (Named/Interpretation/
// RelationBound/Forward), accumulating their annotations -------------------

type annotations struct {
	name   string
	interp *interp.Spec
	rel    *relation.Relation
}

// unwrap peels every wrapper kind from id, returning the accumulated
// annotations and the id of the first non-wrapper ("core") node
// reached. Forward rules vanish here (pass 8 "Remove forward"): their
// identity is replaced by their Target's.
func (c *compiler) unwrap(id rule.ID) (annotations, rule.ID) {
	var ann annotations
	for {
		n := c.arena.Node(id)
		switch n.Kind {
		case rule.KindNamed:
			ann.name = n.Name
			id = n.Child
		case rule.KindInterpretation:
			spec := n.Spec
			ann.interp = &spec
			id = n.Child
		case rule.KindRelationBound:
			ann.rel = n.Rel
			id = n.Child
		case rule.KindForward:
			id = n.Target
		default:
			return ann, id
		}
	}
}

// resolve decides pass 7's question for id and then acts on it: after
// peeling wrappers (unwrap), id gets its own addressable BNF
// non-terminal unless flattenTarget's pass-6 shortcut applies. Or,
// Optional and Repeatable cores always end up as their own
// non-terminal (materialize's coreProductions has no other case for
// them): they are inherently multi-alternative or self-referential and
// so cannot be spliced into a surrounding sequential term list without
// either combinatorial blowup or an actual grammar cycle. Named,
// Interpretation and RelationBound annotations block the Flatten
// shortcut outright, keeping their boundary addressable. flattenTarget
// resolves away only a bare Production core whose sole term is a rule
// reference, and only when it is neither the start rule nor referenced
// from more than one place; every other core gets its own symbol.
//
// resolve resolves a rule reference encountered as a Production term,
// Optional's child, or Repeatable's child: it always yields a
// non-terminal reference (creating or reusing one), applying the
// Flatten shortcut (pass 6) when id's core is a trivial single-term
// alias for another rule.
func (c *compiler) resolve(id rule.ID) (*bnf.NonTerminal, error) {
	ann, core := c.unwrap(id)
	if flat, ok := c.flattenTarget(id, ann, core); ok {
		return c.resolve(flat)
	}
	return c.materialize(id, ann, core)
}

// flattenTarget implements pass 6: if id carries no annotations of its
// own, is referenced from nowhere else, and its core is a Production
// whose sole term is itself a bare rule-reference, then id is a
// redundant alias and resolving id should really resolve that inner
// reference instead.
func (c *compiler) flattenTarget(id rule.ID, ann annotations, core rule.ID) (rule.ID, bool) {
	if ann.name != "" || ann.interp != nil || ann.rel != nil {
		return 0, false
	}
	if c.refs[id] > 1 || id == c.start {
		return 0, false
	}
	n := c.arena.Node(core)
	if n.Kind != rule.KindProduction || len(n.Terms) != 1 {
		return 0, false
	}
	t := n.Terms[0]
	if t.Pred != nil {
		return 0, false
	}
	return t.Ref, true
}

// materialize returns the (possibly cached) non-terminal for id,
// peeling id's annotations onto it. Cached before recursing into its
// own productions so a Forward-induced cycle terminates.
func (c *compiler) materialize(id rule.ID, ann annotations, core rule.ID) (*bnf.NonTerminal, error) {
	if nt, ok := c.nts[id]; ok {
		return nt, nil
	}
	nt := &bnf.NonTerminal{ID: len(c.order), Name: c.nameFor(id, ann)}
	c.nts[id] = nt
	c.order = append(c.order, nt)
	nt.Interp = ann.interp
	nt.Relation = ann.rel
	prods, pipeline, err := c.coreProductions(core)
	if err != nil {
		return nil, err
	}
	for i := range prods {
		prods[i].Rank = i
	}
	nt.Productions = prods
	nt.Pipeline = pipeline
	return nt, nil
}

func (c *compiler) nameFor(id rule.ID, ann annotations) string {
	if ann.name != "" {
		return ann.name
	}
	c.auto++
	return fmt.Sprintf("R%d_%d", id, c.auto)
}

// coreProductions builds the production list for a core node (a
// Production, Or, Optional, Repeatable, Empty, or Pipeline kind --
// anything left after unwrap has peeled the wrapper kinds away).
func (c *compiler) coreProductions(core rule.ID) ([]bnf.Production, *bnf.PipelineIndex, error) {
	n := c.arena.Node(core)
	switch n.Kind {
	case rule.KindEmpty:
		return []bnf.Production{{Terms: nil, Main: -1}}, nil, nil
	case rule.KindProduction:
		p, err := c.buildProduction(n.Terms)
		if err != nil {
			return nil, nil, err
		}
		return []bnf.Production{p}, nil, nil
	case rule.KindOr:
		prods, err := c.altProductions(n.Alts)
		return prods, nil, err
	case rule.KindOptional:
		return c.expandOptional(n.Child)
	case rule.KindRepeatable:
		return c.expandRepeatable(core)
	case rule.KindPipeline:
		return c.expandPipeline(core)
	default:
		return nil, nil, errf("bnf-build", "unexpected core kind %v", n.Kind)
	}
}

func (c *compiler) buildProduction(terms []rule.Term) (bnf.Production, error) {
	out := make([]bnf.Term, len(terms))
	main := -1
	for i, t := range terms {
		if t.Pred != nil {
			out[i] = bnf.Term{Pred: t.Pred}
		} else {
			nt, err := c.resolve(t.Ref)
			if err != nil {
				return bnf.Production{}, err
			}
			out[i] = bnf.Term{NT: nt.ID}
		}
		if t.Main {
			main = i
		}
	}
	return bnf.Production{Terms: out, Main: main}, nil
}

// altProductions implements pass 4 (Replace or): each alternative
// contributes its own production(s) directly to the Or's non-terminal,
// recursing through further unnamed/unannotated Or/Production/Empty
// cores so nested or()s flatten into one list of alternatives, exactly
// as a hand-written BNF rule would be written.
func (c *compiler) altProductions(alts []rule.ID) ([]bnf.Production, error) {
	var out []bnf.Production
	for _, alt := range alts {
		prods, err := c.altProduction(alt)
		if err != nil {
			return nil, err
		}
		out = append(out, prods...)
	}
	return out, nil
}

func (c *compiler) altProduction(id rule.ID) ([]bnf.Production, error) {
	ann, core := c.unwrap(id)
	if ann.name != "" || ann.interp != nil || ann.rel != nil || c.refs[id] > 1 {
		nt, err := c.resolve(id)
		if err != nil {
			return nil, err
		}
		return []bnf.Production{{Terms: []bnf.Term{{NT: nt.ID}}, Main: 0}}, nil
	}
	n := c.arena.Node(core)
	switch n.Kind {
	case rule.KindEmpty:
		return []bnf.Production{{Terms: nil, Main: -1}}, nil
	case rule.KindProduction:
		p, err := c.buildProduction(n.Terms)
		if err != nil {
			return nil, err
		}
		return []bnf.Production{p}, nil
	case rule.KindOr:
		return c.altProductions(n.Alts)
	default:
		// Optional/Repeatable/Pipeline alternatives keep their own
		// identity as a symbol: referencing them in place is simpler
		// and just as correct as unrolling their internals here.
		nt, err := c.resolve(id)
		if err != nil {
			return nil, err
		}
		return []bnf.Production{{Terms: []bnf.Term{{NT: nt.ID}}, Main: 0}}, nil
	}
}

// expandOptional implements the Optional half of pass 3 (Replace
// extended): optional(x) becomes or(x, empty).
func (c *compiler) expandOptional(child rule.ID) ([]bnf.Production, *bnf.PipelineIndex, error) {
	prods, err := c.altProduction(child)
	if err != nil {
		return nil, nil, err
	}
	prods = append(prods, bnf.Production{Terms: nil, Main: -1})
	return prods, nil, nil
}

// expandRepeatable implements the Repeatable half of pass 3: an
// unbounded repeatable unrolls to a self-referencing alternation
// (spec's "temp := or(x, seq(x, temp))"); a repeatable-optional (Min ==
// 0) adds the empty alternative; a bounded repeatable (Max > 0) expands
// to `min` mandatory repetitions followed by a tail of up to
// (max-min) further optional repetitions, so the resulting grammar
// stays finite and acyclic in that tail.
func (c *compiler) expandRepeatable(core rule.ID) ([]bnf.Production, *bnf.PipelineIndex, error) {
	n := c.arena.Node(core)
	if n.Max > 0 {
		return c.expandBoundedRepeatable(core)
	}
	return c.expandUnboundedRepeatable(core)
}

func (c *compiler) expandUnboundedRepeatable(core rule.ID) ([]bnf.Production, *bnf.PipelineIndex, error) {
	n := c.arena.Node(core)
	self := c.reserveAuto()
	single, err := c.altProduction(n.Child)
	if err != nil {
		return nil, nil, err
	}
	childNT, err := c.resolve(n.Child)
	if err != nil {
		return nil, nil, err
	}
	chain := bnf.Production{Terms: []bnf.Term{{NT: childNT.ID}, {NT: self.ID}}, Main: 0}
	var prods []bnf.Production
	if n.Reverse {
		prods = append(prods, single...)
		prods = append(prods, chain)
	} else {
		prods = append(prods, chain)
		prods = append(prods, single...)
	}
	if n.Min == 0 {
		empty := bnf.Production{Terms: nil, Main: -1}
		if n.Reverse {
			prods = append([]bnf.Production{empty}, prods...)
		} else {
			prods = append(prods, empty)
		}
	}
	self.Productions = prods
	return []bnf.Production{{Terms: []bnf.Term{{NT: self.ID}}, Main: 0}}, nil, nil
}

func (c *compiler) expandBoundedRepeatable(core rule.ID) ([]bnf.Production, *bnf.PipelineIndex, error) {
	n := c.arena.Node(core)
	extra := n.Max - n.Min
	tail, err := c.boundedTail(n.Child, extra)
	if err != nil {
		return nil, nil, err
	}
	terms := make([]bnf.Term, 0, n.Min+1)
	for i := 0; i < n.Min; i++ {
		childNT, err := c.resolve(n.Child)
		if err != nil {
			return nil, nil, err
		}
		terms = append(terms, bnf.Term{NT: childNT.ID})
	}
	if tail != nil {
		terms = append(terms, bnf.Term{NT: tail.ID})
	}
	main := len(terms) - 1
	if main < 0 {
		main = -1
	}
	return []bnf.Production{{Terms: terms, Main: main}}, nil, nil
}

// boundedTail builds (if remaining > 0) a right-recursive NT accepting
// between 0 and remaining further repetitions of child, terminating the
// bounded unrolling in a finite number of auxiliary non-terminals.
func (c *compiler) boundedTail(child rule.ID, remaining int) (*bnf.NonTerminal, error) {
	if remaining <= 0 {
		return nil, nil
	}
	nt := c.reserveAuto()
	childNT, err := c.resolve(child)
	if err != nil {
		return nil, err
	}
	next, err := c.boundedTail(child, remaining-1)
	if err != nil {
		return nil, err
	}
	terms := []bnf.Term{{NT: childNT.ID}}
	if next != nil {
		terms = append(terms, bnf.Term{NT: next.ID})
	}
	nt.Productions = []bnf.Production{
		{Terms: nil, Main: -1},
		{Terms: terms, Main: len(terms) - 1},
	}
	return nt, nil
}

func (c *compiler) reserveAuto() *bnf.NonTerminal {
	c.auto++
	nt := &bnf.NonTerminal{ID: len(c.order), Name: fmt.Sprintf("_aux%d", c.auto)}
	c.order = append(c.order, nt)
	return nt
}

// expandPipeline implements spec §4.3: one production per dictionary
// entry, each a single term testing membership per the pipeline's mode,
// plus the predictive index bnf.PipelineIndex the parser consults
// instead of trying every entry blindly at every column.
func (c *compiler) expandPipeline(core rule.ID) ([]bnf.Production, *bnf.PipelineIndex, error) {
	n := c.arena.Node(core)
	idx := bnf.NewPipelineIndex(n.PipelineMode)
	prods := make([]bnf.Production, len(n.Entries))
	for i, entry := range n.Entries {
		pred := pipelinePredicate(n.PipelineMode, entry)
		prods[i] = bnf.Production{Terms: []bnf.Term{{Pred: pred}}, Main: 0, Rank: i}
		idx.Register(entry, i)
	}
	return prods, idx, nil
}

func pipelinePredicate(mode rule.PipelineMode, entry string) predicate.Predicate {
	switch mode {
	case rule.PipelineCaseFolded:
		return predicate.EqCaseless(entry)
	case rule.PipelineLemma:
		return predicate.Lemma(entry)
	default:
		return predicate.Eq(entry)
	}
}

// --- relation arity check (activation invariant enforced post-build) -----

// checkRelationArity walks the compiled grammar (each non-terminal
// visited once, since c.order already de-duplicates shared rules)
// verifying every relation appears exactly twice: once per occurrence
// the parser will bind into a relation.Graph snapshot (spec §3 "a
// relation may appear in the grammar exactly twice").
func checkRelationArity(g *bnf.Grammar) error {
	counts := map[*relation.Relation]int{}
	for _, nt := range g.Rules {
		if nt.Relation != nil {
			counts[nt.Relation]++
		}
		for _, p := range nt.Productions {
			for _, t := range p.Terms {
				if t.Pred == nil {
					continue
				}
				if rel, ok := t.Pred.(predicate.Relational); ok {
					for _, r := range rel.Relations {
						counts[r]++
					}
				}
			}
		}
	}
	for rel, n := range counts {
		if n != 2 {
			return errf("activate", "relation %s appears %d time(s) in the grammar, want exactly 2", rel, n)
		}
	}
	return nil
}

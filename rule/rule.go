/*
Package rule implements the grammar construction algebra of spec §4.1: a
composable, declarative way to build context-free rules out of token
predicates and other rules, before normalisation flattens them into BNF
(package normalize/bnf).

Following the design notes (spec §9 "Open-variant rule hierarchy" and
"Forward / cyclic rule references"), rules are a tagged sum type stored in
a shared arena and referenced by ID rather than by pointer, so that
self-referential (Forward) rules do not require unsafe cycles in Go's
ownership model.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2024 the yargo authors
*/
package rule

import (
	"fmt"
	"sync"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"

	"github.com/rugram/yargo/interp"
	"github.com/rugram/yargo/predicate"
	"github.com/rugram/yargo/relation"
)

// tracer traces with key 'yargo.rule'.
func tracer() tracing.Trace {
	if t := tracing.Select("yargo.rule"); t != nil {
		return t
	}
	return gtrace.SyntaxTracer
}

// Kind discriminates the rule sum type (spec §3 "Rule").
type Kind int

const (
	KindProduction Kind = iota
	KindOr
	KindOptional
	KindRepeatable
	KindNamed
	KindInterpretation
	KindRelationBound
	KindForward
	KindEmpty
	KindPipeline
)

func (k Kind) String() string {
	return [...]string{
		"Production", "Or", "Optional", "Repeatable", "Named",
		"Interpretation", "RelationBound", "Forward", "Empty", "Pipeline",
	}[k]
}

// ID is an arena index. It is never reused, so equal IDs always denote
// the same rule node within an Arena.
type ID int

const noID ID = -1

// Term is one element of a Production: either a terminal predicate or a
// reference to another rule in the arena.
type Term struct {
	Pred predicate.Predicate // non-nil for a terminal term
	Ref  ID                  // valid when Pred == nil
	Main bool                // this term is the production's semantic head (spec §3)
}

// PipelineMode selects how a dictionary pipeline indexes its entries
// (spec §4.3: "three pipeline variants differ only in the indexing key").
type PipelineMode int

const (
	PipelineExact PipelineMode = iota
	PipelineCaseFolded
	PipelineLemma
)

// node is the internal arena-stored representation of one rule, for
// every Kind. Only the fields relevant to n.Kind are meaningful.
type node struct {
	Kind Kind

	// KindProduction / KindEmpty
	Terms []Term

	// KindOr
	Alts []ID

	// KindOptional / KindNamed / KindInterpretation / KindRelationBound
	Child ID

	// KindRepeatable
	Min, Max int  // Max == 0 means unbounded
	Reverse  bool // single-match-first preference, spec §4.1

	// KindNamed
	Name string

	// KindInterpretation
	Spec interp.Spec

	// KindRelationBound
	Rel *relation.Relation

	// KindForward
	Target ID // noID until Define is called

	// KindPipeline
	PipelineMode PipelineMode
	Entries      []string
}

// Arena owns every rule node constructed by this package's builders. A
// single process-wide arena is sufficient because grammars are built once
// at program start and never mutated after activation (spec §3
// "Lifecycle").
type Arena struct {
	mu    sync.Mutex
	nodes []*node
}

func (a *Arena) alloc(n *node) ID {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := ID(len(a.nodes))
	a.nodes = append(a.nodes, n)
	return id
}

// Node returns the arena node for id. Exported for normalize/bnf, which
// walk the raw rule graph.
func (a *Arena) Node(id ID) *node { return a.nodes[id] }

// Len reports how many rules have been allocated.
func (a *Arena) Len() int { return len(a.nodes) }

var defaultArena = &Arena{}

// DefaultArena returns the package-level arena used by the free-function
// builders below. Exposed so normalize/bnf can walk it without a second
// import surface.
func DefaultArena() *Arena { return defaultArena }

// Rule is a lightweight handle into an Arena: a value type, copyable and
// comparable, carrying just enough information for method chaining
// (.Optional(), .Named(...), ...) to keep extending the same arena.
type Rule struct {
	arena *Arena
	id    ID
}

// ID returns the rule's arena identifier (used by normalize/bnf).
func (r Rule) ID() ID { return r.id }

// Arena returns the arena r belongs to.
func (r Rule) Arena() *Arena { return r.arena }

// Node exposes the underlying arena node for package normalize. Kept
// unexported in type but accessible via the normalize package through
// Arena.Node plus Rule.ID — Rule itself stays opaque to grammar authors.
func (r Rule) node() *node { return r.arena.Node(r.id) }

// item is anything acceptable as a Production term: a Predicate, a Rule,
// or a bare string (coerced to predicate.Eq per spec §4.1).
type item = interface{}

func coerce(arena *Arena, it item) Term {
	switch v := it.(type) {
	case string:
		return Term{Pred: predicate.Eq(v)}
	case predicate.Predicate:
		return Term{Pred: v}
	case Rule:
		if v.arena != arena {
			panic("rule: mixing rules from different arenas")
		}
		return Term{Ref: v.id}
	default:
		panic(fmt.Sprintf("rule: unsupported production item %T", it))
	}
}

// Production builds a single-production rule out of items (predicates,
// rules, or bare string literals). This is spec's `rule(a, b, c)`.
func Production(items ...item) Rule {
	terms := make([]Term, len(items))
	for i, it := range items {
		terms[i] = coerce(defaultArena, it)
	}
	if len(terms) > 0 {
		terms[len(terms)-1].Main = true // default head: rightmost term
	}
	id := defaultArena.alloc(&node{Kind: KindProduction, Terms: terms})
	return Rule{defaultArena, id}
}

// Main marks term index i (0-based) as the production's semantic head,
// overriding the default (rightmost term). Only meaningful for rules
// built with Production.
func (r Rule) Main(i int) Rule {
	n := r.node()
	if n.Kind != KindProduction {
		panic("rule: Main only applies to a Production rule")
	}
	for j := range n.Terms {
		n.Terms[j].Main = j == i
	}
	return r
}

// Or builds an alternation of rules (spec's `or_`).
func Or(rules ...Rule) Rule {
	arena := requireSameArena(rules)
	alts := make([]ID, len(rules))
	for i, r := range rules {
		alts[i] = r.id
	}
	id := arena.alloc(&node{Kind: KindOr, Alts: alts})
	return Rule{arena, id}
}

func requireSameArena(rules []Rule) *Arena {
	if len(rules) == 0 {
		return defaultArena
	}
	arena := rules[0].arena
	for _, r := range rules[1:] {
		if r.arena != arena {
			panic("rule: mixing rules from different arenas")
		}
	}
	return arena
}

// Empty builds the empty rule (matches zero tokens).
func Empty() Rule {
	id := defaultArena.alloc(&node{Kind: KindEmpty})
	return Rule{defaultArena, id}
}

// Optional wraps r so it may be absent from a derivation.
func (r Rule) Optional() Rule {
	id := r.arena.alloc(&node{Kind: KindOptional, Child: r.id})
	return Rule{r.arena, id}
}

// RepeatOpts configures Repeatable.
type RepeatOpts struct {
	Min     int
	Max     int // 0 == unbounded
	Reverse bool
}

// RepeatOption configures a RepeatOpts value (functional-options, mirrors
// the teacher's earley.Option/scanner.Option pattern).
type RepeatOption func(*RepeatOpts)

// WithMin sets the minimum repeat count. Activation (package normalize)
// rejects a negative minimum; a minimum of 0 makes the repetition
// optional by adding an empty alternative.
func WithMin(n int) RepeatOption { return func(o *RepeatOpts) { o.Min = n } }

// WithMax sets the maximum repeat count; 0 (the default) means unbounded.
func WithMax(n int) RepeatOption { return func(o *RepeatOpts) { o.Max = n } }

// WithReverse selects the "single match preferred first" ranking
// preference (spec §4.1) instead of the default greedy-first ranking.
func WithReverse(b bool) RepeatOption { return func(o *RepeatOpts) { o.Reverse = b } }

// Repeatable wraps r to match one-or-more (by default) repetitions,
// modulated by opts (spec §4.1: unbounded, reverse, or bounded min..max).
func (r Rule) Repeatable(opts ...RepeatOption) Rule {
	o := RepeatOpts{Min: 1}
	for _, opt := range opts {
		opt(&o)
	}
	id := r.arena.alloc(&node{Kind: KindRepeatable, Child: r.id, Min: o.Min, Max: o.Max, Reverse: o.Reverse})
	return Rule{r.arena, id}
}

// Named attaches a grammar-visible name to r; the normaliser always
// promotes a Named rule to a distinct BNF non-terminal (spec §4.2 pass 7).
func (r Rule) Named(name string) Rule {
	id := r.arena.alloc(&node{Kind: KindNamed, Child: r.id, Name: name})
	return Rule{r.arena, id}
}

// Interpretation attaches spec to r, so that parse-tree reduction (package
// interp) knows how to turn matches of r into fact/attribute/normalizer
// values (spec §4.6).
func (r Rule) Interpretation(spec interp.Spec) Rule {
	id := r.arena.alloc(&node{Kind: KindInterpretation, Child: r.id, Spec: spec})
	return Rule{r.arena, id}
}

// Match binds rel to r as a whole: when a derivation containing r's BNF
// non-terminal is interpreted (package tree), its main child's token is
// registered against rel in that derivation's relation-graph snapshot, exactly as if a terminal predicate
// inside r had been built with predicate.Match (spec §3 "Relation
// predicate", §4.4 "complete").
func (r Rule) Match(rel *relation.Relation) Rule {
	id := r.arena.alloc(&node{Kind: KindRelationBound, Child: r.id, Rel: rel})
	return Rule{r.arena, id}
}

// Forward returns a sentinel rule that must be closed with Define before
// grammar activation (spec §4.1 "forward()"). It is the mechanism for
// expressing cyclic rules such as hand-unrolled repetition.
func Forward() Rule {
	id := defaultArena.alloc(&node{Kind: KindForward, Target: noID})
	return Rule{defaultArena, id}
}

// Define closes a Forward rule by pointing it at target. Calling Define
// twice, or never calling it before activation, are both grammar
// construction errors (spec §4.2 "Forward without definition").
func (r Rule) Define(target Rule) {
	n := r.node()
	if n.Kind != KindForward {
		panic("rule: Define only applies to a Forward rule")
	}
	if target.arena != r.arena {
		panic("rule: mixing rules from different arenas")
	}
	if n.Target != noID {
		panic("rule: Define called twice on the same Forward rule")
	}
	n.Target = target.id
	tracer().Debugf("rule: forward reference %d resolved to %d", r.id, target.id)
}

// Pipeline builds a dictionary rule out of entries, a possibly large set
// of literal phrase values, indexed per mode for predictive parsing
// (spec §4.3). Each entry becomes one production whose single term tests
// membership per mode (exact value, case-folded value, or lemma set).
func Pipeline(mode PipelineMode, entries ...string) Rule {
	cp := make([]string, len(entries))
	copy(cp, entries)
	id := defaultArena.alloc(&node{Kind: KindPipeline, PipelineMode: mode, Entries: cp})
	return Rule{defaultArena, id}
}

/*
Package tree reconstructs candidate parse derivations from an earley.Chart
and reduces each bottom-up into an interp.Value, checking relation
agreement along the way (spec §4.5/§4.6).

The teacher builds a single shared-packed forest (lr/sppf) and walks it
with a visitor; this package instead enumerates a bounded number of
candidate derivations directly from the chart's recorded Causes (see
package earley's doc comment for why no forest is built), since relation
agreement is a property of one concrete derivation and is cheapest to
check while that derivation is being assembled, not afterwards.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2024 the yargo authors
*/
package tree

import (
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"

	"github.com/rugram/yargo/earley"
	"github.com/rugram/yargo/interp"
	"github.com/rugram/yargo/predicate"
	"github.com/rugram/yargo/relation"
	"github.com/rugram/yargo/token"
)

// tracer traces with key 'yargo.tree'.
func tracer() tracing.Trace {
	if t := tracing.Select("yargo.tree"); t != nil {
		return t
	}
	return gtrace.SyntaxTracer
}

// Node is one non-terminal occurrence in a chosen candidate derivation:
// an ordered list of children, each either a scanned leaf token or a
// nested Node, plus the Main index inherited from the production's
// semantic head (spec §3 "Production", used to resolve a whole-rule
// relation binding down to an actual leaf token).
type Node struct {
	NT       int
	Prod     int
	Start    int
	End      int
	Main     int
	Children []Child
}

// Child is one term's contribution to a Node: exactly one of Tok (a
// leaf) or Node (a nested non-terminal) is meaningful.
type Child struct {
	Tok  token.Morph
	Node *Node
}

func (c Child) isLeaf() bool { return c.Node == nil }

// maxCandidates bounds how many alternative derivations Candidates will
// enumerate for a single completion, to keep pathologically ambiguous
// grammars from enumerating an exponential candidate set. Dropped
// alternatives are simply never produced — the resolver only ever sees
// what survives this cap.
const maxCandidates = 64

// Candidates enumerates up to maxCandidates distinct parse derivations
// for the completed production c, all spanning [c.Start, c.End).
func Candidates(chart *earley.Chart, c earley.Completion) []*Node {
	budget := maxCandidates
	nodes := buildNode(chart, c.NT, c.Prod, c.Start, c.End, &budget)
	tracer().Debugf("tree: enumerated %d candidate(s) for NT %d over [%d,%d)", len(nodes), c.NT, c.Start, c.End)
	return nodes
}

func buildNode(chart *earley.Chart, ntID, prodIdx, origin, end int, budget *int) []*Node {
	prod := chart.Grammar.Rules[ntID].Productions[prodIdx]
	lists := buildChildLists(chart, ntID, prodIdx, len(prod.Terms), origin, end, budget)
	nodes := make([]*Node, 0, len(lists))
	for _, children := range lists {
		nodes = append(nodes, &Node{
			NT: ntID, Prod: prodIdx, Start: origin, End: end,
			Main: prod.Main, Children: children,
		})
	}
	return nodes
}

// buildChildLists recovers every way (up to *budget) that the first dot
// terms of (ntID, prodIdx, origin) could have been derived, ending
// exactly at column col. dot==0 is the base case: a single empty
// children prefix.
func buildChildLists(chart *earley.Chart, ntID, prodIdx, dot, origin, col int, budget *int) [][]Child {
	if dot == 0 {
		return [][]Child{{}}
	}
	if *budget <= 0 {
		return nil
	}
	item := earley.Item{NT: ntID, Prod: prodIdx, Dot: dot, Origin: origin}
	causes := chart.Columns[col].CausesFor(item)
	var out [][]Child
	for _, cause := range causes {
		if *budget <= 0 {
			break
		}
		switch cause.Kind {
		case earley.CauseScan:
			prefixes := buildChildLists(chart, ntID, prodIdx, dot-1, origin, col-1, budget)
			out = append(out, appendChild(prefixes, Child{Tok: cause.Tok}, budget)...)
		case earley.CauseComplete:
			childNodes := buildNode(chart, cause.Child.NT, cause.Child.Prod, cause.Child.Origin, col, budget)
			for _, cn := range childNodes {
				if *budget <= 0 {
					break
				}
				prefixes := buildChildLists(chart, ntID, prodIdx, dot-1, origin, cause.Child.Origin, budget)
				out = append(out, appendChild(prefixes, Child{Node: cn}, budget)...)
			}
		}
	}
	return out
}

func appendChild(prefixes [][]Child, c Child, budget *int) [][]Child {
	out := make([][]Child, 0, len(prefixes))
	for _, prefix := range prefixes {
		if *budget <= 0 {
			break
		}
		combined := make([]Child, len(prefix)+1)
		copy(combined, prefix)
		combined[len(prefix)] = c
		out = append(out, combined)
		*budget--
	}
	return out
}

// Interpret reduces one candidate derivation bottom-up into a value
// (spec §4.6), narrowing a fresh relation-graph snapshot at every
// relation-bound leaf or non-terminal encountered (spec §4.5). ok is
// false when the derivation's relation bindings are jointly
// unsatisfiable; such a derivation must be discarded by the resolver.
func Interpret(chart *earley.Chart, n *Node) (v interp.Value, ok bool, err error) {
	val, g, err := walk(chart, n, relation.Empty())
	if err != nil {
		return interp.Value{}, false, err
	}
	return val, g.Satisfiable(), nil
}

func walk(chart *earley.Chart, n *Node, g *relation.Graph) (interp.Value, *relation.Graph, error) {
	nt := chart.Grammar.Rules[n.NT]
	prod := nt.Productions[n.Prod]
	children := make([]interp.Value, len(n.Children))
	cur := g
	for i, ch := range n.Children {
		term := prod.Terms[i]
		if ch.isLeaf() {
			tok := ch.Tok
			if rel, ok := term.Pred.(predicate.Relational); ok {
				for _, r := range rel.Relations {
					cur, _ = cur.Add(tok, r)
				}
			}
			children[i] = interp.Chain([]token.Morph{tok})
			continue
		}
		val, ng, err := walk(chart, ch.Node, cur)
		if err != nil {
			return interp.Value{}, cur, err
		}
		cur = ng
		children[i] = val
	}
	if nt.Relation != nil {
		if head, ok := mainToken(n); ok {
			cur, _ = cur.Add(head, nt.Relation)
		}
	}
	if nt.Interp != nil {
		val, err := interp.Apply(*nt.Interp, children)
		return val, cur, err
	}
	return collapse(children), cur, nil
}

// collapse implements spec §4.6's "keep interpretation, drop structure"
// tree-normalisation pass for non-terminals the grammar author never
// annotated: their children's already-reduced values are merged into a
// single value for the parent to consume. A node with at most one
// semantically-productive child (fact, attribute or scalar) simply
// forwards it; plain token chains concatenate.
func collapse(children []interp.Value) interp.Value {
	var produced *interp.Value
	var chain []token.Morph
	for i := range children {
		c := children[i]
		if c.Kind == interp.KindChain {
			chain = append(chain, c.Tokens...)
			continue
		}
		if produced == nil {
			produced = &children[i]
		}
	}
	if produced != nil {
		return *produced
	}
	return interp.Chain(chain)
}

// mainToken recursively resolves a node's semantic head (spec's
// Production.Main) down to an actual leaf token, descending through
// nested non-terminals until it reaches one.
func mainToken(n *Node) (token.Morph, bool) {
	if n.Main < 0 || n.Main >= len(n.Children) {
		return token.Morph{}, false
	}
	ch := n.Children[n.Main]
	if ch.isLeaf() {
		return ch.Tok, true
	}
	return mainToken(ch.Node)
}

// Tokens flattens n's full leaf-token span, left to right — the surface
// text a candidate derivation actually covers.
func Tokens(n *Node) []token.Morph {
	var out []token.Morph
	for _, ch := range n.Children {
		if ch.isLeaf() {
			out = append(out, ch.Tok)
			continue
		}
		out = append(out, Tokens(ch.Node)...)
	}
	return out
}

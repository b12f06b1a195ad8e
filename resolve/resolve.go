/*
Package resolve implements the match resolver of spec §4.7: picking a
maximal, deterministic, non-overlapping subset of candidate matches.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2024 the yargo authors
*/
package resolve

import (
	"sort"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"

	"github.com/rugram/yargo/earley"
	"github.com/rugram/yargo/tree"
)

// tracer traces with key 'yargo.resolve'.
func tracer() tracing.Trace {
	if t := tracing.Select("yargo.resolve"); t != nil {
		return t
	}
	return gtrace.SyntaxTracer
}

// Candidate is one candidate match: a span plus the rank path that
// identifies which alternative was chosen at every ambiguous node along
// its derivation (spec §4.7 "parse rank tuple"), used only to break ties
// deterministically between otherwise-equal candidates.
type Candidate struct {
	Start, End int
	Rank       []int
	Node       *tree.Node
}

// NewCandidate wraps a built tree.Node as a resolver Candidate.
func NewCandidate(chart *earley.Chart, n *tree.Node) Candidate {
	return Candidate{Start: n.Start, End: n.End, Rank: rankPath(chart, n), Node: n}
}

func rankPath(chart *earley.Chart, n *tree.Node) []int {
	prod := chart.Grammar.Rules[n.NT].Productions[n.Prod]
	path := []int{prod.Rank}
	for _, ch := range n.Children {
		if ch.Node != nil {
			path = append(path, rankPath(chart, ch.Node)...)
		}
	}
	return path
}

// compareRank lexicographically orders two rank paths; a shorter path
// that is a prefix of a longer one sorts before it.
func compareRank(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func tokenCount(c Candidate) int { return c.End - c.Start }

// Dedup implements spec §4.7's first resolver pass: sort candidates by
// token count descending, then keep a candidate iff it is not contained
// within any already-kept candidate's span. Ties (identical span) are
// broken by rank, so the result is fully deterministic.
func Dedup(cands []Candidate) []Candidate {
	sorted := append([]Candidate(nil), cands...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if li, lj := tokenCount(sorted[i]), tokenCount(sorted[j]); li != lj {
			return li > lj
		}
		return compareRank(sorted[i].Rank, sorted[j].Rank) < 0
	})
	var kept []Candidate
	for _, c := range sorted {
		contained := false
		for _, k := range kept {
			if k.Start <= c.Start && c.End <= k.End {
				contained = true
				break
			}
		}
		if !contained {
			kept = append(kept, c)
		}
	}
	return kept
}

// MaxCoverage implements spec §4.7's findall-specific second pass: the
// maximum-coverage non-overlapping subset of cands, via the standard
// weighted-interval-scheduling algorithm (weight = span length),
// reconstructed by scanning in reverse. Input is expected to already
// have passed through Dedup (but MaxCoverage is correct on any input).
// Output is ordered by span start, ascending (spec §5 "left-to-right
// span start for findall").
func MaxCoverage(cands []Candidate) []Candidate {
	tracer().Debugf("resolve: max-coverage over %d candidate(s)", len(cands))
	sorted := append([]Candidate(nil), cands...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].End != sorted[j].End {
			return sorted[i].End < sorted[j].End
		}
		return compareRank(sorted[i].Rank, sorted[j].Rank) < 0
	})
	n := len(sorted)
	pred := make([]int, n) // pred[i]: last index j<i whose End <= sorted[i].Start, or -1
	for i := 0; i < n; i++ {
		pred[i] = -1
		for j := i - 1; j >= 0; j-- {
			if sorted[j].End <= sorted[i].Start {
				pred[i] = j
				break
			}
		}
	}
	opt := make([]int, n+1) // opt[i]: best total coverage over sorted[0:i]
	for i := 1; i <= n; i++ {
		withI := tokenCount(sorted[i-1]) + opt[pred[i-1]+1]
		if without := opt[i-1]; withI > without {
			opt[i] = withI
		} else {
			opt[i] = without
		}
	}
	var chosen []Candidate
	for i := n; i > 0; {
		withI := tokenCount(sorted[i-1]) + opt[pred[i-1]+1]
		if withI >= opt[i-1] {
			chosen = append(chosen, sorted[i-1])
			i = pred[i-1] + 1
		} else {
			i--
		}
	}
	sort.Slice(chosen, func(i, j int) bool { return chosen[i].Start < chosen[j].Start })
	return chosen
}

// Best returns the single highest-ranked candidate among cands whose
// span is exactly [0, length) — the semantics of Parser.Match (spec §6
// "match(text) yields matches whose span exactly covers the whole
// input"). ok is false if no candidate covers the full span.
func Best(cands []Candidate, length int) (Candidate, bool) {
	var full []Candidate
	for _, c := range cands {
		if c.Start == 0 && c.End == length {
			full = append(full, c)
		}
	}
	if len(full) == 0 {
		return Candidate{}, false
	}
	kept := Dedup(full)
	return kept[0], true
}

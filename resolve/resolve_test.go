package resolve

import "testing"

func cand(start, end int, rank ...int) Candidate {
	return Candidate{Start: start, End: end, Rank: rank}
}

func TestDedupDropsContained(t *testing.T) {
	cands := []Candidate{
		cand(0, 2, 0),
		cand(0, 1, 0),
		cand(1, 2, 0),
	}
	kept := Dedup(cands)
	if len(kept) != 1 {
		t.Fatalf("expected the single wider span to subsume both single-token spans, got %d kept", len(kept))
	}
	if kept[0].Start != 0 || kept[0].End != 2 {
		t.Fatalf("expected the kept span to be [0,2), got [%d,%d)", kept[0].Start, kept[0].End)
	}
}

func TestDedupBreaksTiesByRank(t *testing.T) {
	cands := []Candidate{
		cand(0, 2, 1),
		cand(0, 2, 0),
	}
	kept := Dedup(cands)
	if len(kept) != 1 {
		t.Fatalf("expected identical spans to dedup to one, got %d", len(kept))
	}
	if kept[0].Rank[0] != 0 {
		t.Fatalf("expected the lower-rank candidate to win the tie, got rank %v", kept[0].Rank)
	}
}

func TestMaxCoverageResolverExample(t *testing.T) {
	// Grounded on spec §8's resolver-coverage scenario: a two-token person
	// span at [0,2) and a one-token city span at [4,5), both disjoint —
	// findall must keep both rather than some smaller subset.
	cands := []Candidate{
		cand(0, 2, 0),
		cand(4, 5, 0),
	}
	kept := MaxCoverage(cands)
	if len(kept) != 2 {
		t.Fatalf("expected both disjoint spans to be kept, got %d", len(kept))
	}
}

func TestMaxCoveragePrefersWiderOverlappingSpan(t *testing.T) {
	cands := []Candidate{
		cand(0, 3, 0), // coverage 3
		cand(0, 1, 0), // coverage 1, overlaps with the above
		cand(1, 3, 0), // coverage 2, overlaps with the above
	}
	kept := MaxCoverage(cands)
	total := 0
	for _, c := range kept {
		total += c.End - c.Start
	}
	if total != 3 {
		t.Fatalf("expected maximum total coverage 3, got %d from %v", total, kept)
	}
}

func TestMaxCoverageOrdersByStart(t *testing.T) {
	cands := []Candidate{
		cand(4, 5, 0),
		cand(0, 2, 0),
	}
	kept := MaxCoverage(cands)
	if len(kept) != 2 || kept[0].Start != 0 || kept[1].Start != 4 {
		t.Fatalf("expected output ordered by span start, got %v", kept)
	}
}

func TestBestPicksFullSpanOnly(t *testing.T) {
	cands := []Candidate{
		cand(0, 1, 0),
		cand(0, 2, 1),
		cand(0, 2, 0),
	}
	best, ok := Best(cands, 2)
	if !ok {
		t.Fatalf("expected a full-span candidate to be found")
	}
	if best.Start != 0 || best.End != 2 || best.Rank[0] != 0 {
		t.Fatalf("unexpected best candidate: %+v", best)
	}
}

func TestBestNoFullSpan(t *testing.T) {
	cands := []Candidate{cand(0, 1, 0)}
	if _, ok := Best(cands, 2); ok {
		t.Fatalf("expected no full-span match")
	}
}

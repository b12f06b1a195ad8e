package rule

import (
	"testing"

	"github.com/rugram/yargo/predicate"
	"github.com/rugram/yargo/token"
)

func TestProductionDefaultsHeadToRightmostTerm(t *testing.T) {
	r := Production(predicate.Eq("a"), predicate.Eq("b"), predicate.Eq("c"))
	n := r.node()
	if n.Kind != KindProduction {
		t.Fatalf("expected KindProduction, got %v", n.Kind)
	}
	for i, term := range n.Terms {
		if term.Main != (i == len(n.Terms)-1) {
			t.Errorf("term %d: Main=%v, expected head only at the rightmost term", i, term.Main)
		}
	}
}

func TestMainOverridesDefaultHead(t *testing.T) {
	r := Production(predicate.Eq("a"), predicate.Eq("b")).Main(0)
	n := r.node()
	if !n.Terms[0].Main || n.Terms[1].Main {
		t.Fatalf("expected term 0 to be the head after Main(0), got %+v", n.Terms)
	}
}

func TestStringLiteralCoercesToEq(t *testing.T) {
	r := Production("hello")
	n := r.node()
	if n.Terms[0].Pred == nil {
		t.Fatalf("expected a bare string literal to coerce to a predicate term")
	}
	tok := token.Morph{Token: token.Token{Value: "hello"}}
	if !n.Terms[0].Pred.Test(tok) {
		t.Fatalf("expected the coerced predicate to match its literal value")
	}
}

func TestOrAllocatesAlternation(t *testing.T) {
	a := Production(predicate.Eq("a"))
	b := Production(predicate.Eq("b"))
	alt := Or(a, b)
	n := alt.node()
	if n.Kind != KindOr || len(n.Alts) != 2 {
		t.Fatalf("expected an Or node with 2 alternatives, got %+v", n)
	}
}

func TestOrAcrossArenasPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic when mixing arenas")
		}
	}()
	other := &Arena{}
	foreign := Rule{arena: other, id: 0}
	other.alloc(&node{Kind: KindEmpty})
	Or(Production(predicate.Eq("a")), foreign)
}

func TestRepeatableDefaultsToOneOrMore(t *testing.T) {
	r := Production(predicate.Eq("a")).Repeatable()
	n := r.node()
	if n.Kind != KindRepeatable || n.Min != 1 || n.Max != 0 {
		t.Fatalf("expected Min=1, Max=0 (unbounded), got Min=%d Max=%d", n.Min, n.Max)
	}
}

func TestRepeatableHonorsOptions(t *testing.T) {
	r := Production(predicate.Eq("a")).Repeatable(WithMin(2), WithMax(5), WithReverse(true))
	n := r.node()
	if n.Min != 2 || n.Max != 5 || !n.Reverse {
		t.Fatalf("expected Min=2 Max=5 Reverse=true, got %+v", n)
	}
}

func TestForwardMustBeDefinedBeforeUse(t *testing.T) {
	fwd := Forward()
	if fwd.node().Target != noID {
		t.Fatalf("expected an undefined Forward to carry noID")
	}
	target := Production(predicate.Eq("x"))
	fwd.Define(target)
	if fwd.node().Target != target.id {
		t.Fatalf("expected Define to point the Forward at its target")
	}
}

func TestPipelineCopiesEntries(t *testing.T) {
	entries := []string{"a", "b"}
	r := Pipeline(PipelineCaseFolded, entries...)
	entries[0] = "mutated"
	n := r.node()
	if n.Entries[0] != "a" {
		t.Fatalf("expected Pipeline to copy its entries, got %v", n.Entries)
	}
}

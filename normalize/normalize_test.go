package normalize

import (
	"testing"

	"github.com/rugram/yargo/predicate"
	"github.com/rugram/yargo/relation"
	"github.com/rugram/yargo/rule"
)

func TestNormalizeSimpleProduction(t *testing.T) {
	r := rule.Production("a", "b")
	g, err := Normalize(r)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	start := g.Start()
	if len(start.Productions) != 1 {
		t.Fatalf("expected 1 production, got %d", len(start.Productions))
	}
	if len(start.Productions[0].Terms) != 2 {
		t.Fatalf("expected 2 terms, got %d", len(start.Productions[0].Terms))
	}
	if start.Productions[0].Main != 1 {
		t.Errorf("expected default Main to be the rightmost term (1), got %d", start.Productions[0].Main)
	}
}

func TestNormalizeOrFlattensAlternatives(t *testing.T) {
	r := rule.Or(rule.Production("a"), rule.Production("b"), rule.Production("c"))
	g, err := Normalize(r)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	start := g.Start()
	if len(start.Productions) != 3 {
		t.Fatalf("expected or() to flatten to 3 productions, got %d", len(start.Productions))
	}
}

func TestNormalizeNestedOrFlattens(t *testing.T) {
	inner := rule.Or(rule.Production("b"), rule.Production("c"))
	r := rule.Or(rule.Production("a"), inner)
	g, err := Normalize(r)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	start := g.Start()
	if len(start.Productions) != 3 {
		t.Fatalf("expected a nested unnamed or() to flatten into 3 productions, got %d", len(start.Productions))
	}
}

func TestNormalizeOptionalAddsEmptyAlternative(t *testing.T) {
	r := rule.Production("a").Optional()
	g, err := Normalize(r)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	start := g.Start()
	if len(start.Productions) != 2 {
		t.Fatalf("expected optional() to produce 2 alternatives (x, empty), got %d", len(start.Productions))
	}
	var sawEmpty bool
	for _, p := range start.Productions {
		if len(p.Terms) == 0 {
			sawEmpty = true
		}
	}
	if !sawEmpty {
		t.Errorf("expected one alternative to be the empty production")
	}
}

func TestNormalizeUnboundedRepeatable(t *testing.T) {
	r := rule.Production("a").Repeatable()
	g, err := Normalize(r)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	start := g.Start()
	if len(start.Productions) != 1 || len(start.Productions[0].Terms) != 1 {
		t.Fatalf("expected the start rule to hold a single reference to the unrolled repeat symbol")
	}
	auxID := start.Productions[0].Terms[0].NT
	aux := g.Rules[auxID]
	if len(aux.Productions) != 2 {
		t.Fatalf("expected the unrolled repeat symbol to have 2 alternatives (x, seq(x,self)), got %d", len(aux.Productions))
	}
}

func TestNormalizeRepeatableOptionalAddsEmpty(t *testing.T) {
	r := rule.Production("a").Repeatable(rule.WithMin(0))
	g, err := Normalize(r)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	aux := g.Rules[g.Start().Productions[0].Terms[0].NT]
	if len(aux.Productions) != 3 {
		t.Fatalf("expected a Min==0 repeatable to add the empty alternative, got %d productions", len(aux.Productions))
	}
}

func TestNormalizeBoundedRepeatable(t *testing.T) {
	r := rule.Production("a").Repeatable(rule.WithMin(1), rule.WithMax(3))
	g, err := Normalize(r)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	start := g.Start()
	if len(start.Productions) != 1 {
		t.Fatalf("expected a single production for the bounded repeat, got %d", len(start.Productions))
	}
	// min=1 mandatory term + a tail reference for the remaining 2 optional reps.
	if len(start.Productions[0].Terms) != 2 {
		t.Fatalf("expected 1 mandatory term + 1 tail reference, got %d terms", len(start.Productions[0].Terms))
	}
}

func TestNormalizeNamedRuleGetsStableNonTerminal(t *testing.T) {
	named := rule.Production("a").Named("Letter")
	r := rule.Production(named, named)
	g, err := Normalize(r)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	start := g.Start()
	if len(start.Productions[0].Terms) != 2 {
		t.Fatalf("expected 2 terms in the start production")
	}
	t0, t1 := start.Productions[0].Terms[0], start.Productions[0].Terms[1]
	if t0.NT != t1.NT {
		t.Errorf("expected both references to the named rule to share one non-terminal, got %d and %d", t0.NT, t1.NT)
	}
	if g.Rules[t0.NT].Name != "Letter" {
		t.Errorf("expected the non-terminal's name to be %q, got %q", "Letter", g.Rules[t0.NT].Name)
	}
}

func TestNormalizeFlattensSingleRefAlias(t *testing.T) {
	inner := rule.Production("a")
	alias := rule.Production(inner) // a redundant single-term wrapper
	g, err := Normalize(alias)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	// alias is the start rule, so it is never flattened away itself, but
	// its own production should resolve straight to inner's rather than
	// introducing a pointless intermediate symbol pointing at inner.
	start := g.Start()
	if len(start.Productions) != 1 || len(start.Productions[0].Terms) != 1 {
		t.Fatalf("expected start's production to be a single term")
	}
}

func TestNormalizeForwardRequiresDefine(t *testing.T) {
	fw := rule.Forward()
	r := rule.Production(fw)
	if _, err := Normalize(r); err == nil {
		t.Fatalf("expected an error for an undefined forward rule")
	}
}

func TestNormalizeForwardCycle(t *testing.T) {
	fw := rule.Forward()
	body := rule.Or(rule.Production("a"), rule.Production("a", fw))
	fw.Define(body)
	g, err := Normalize(fw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(g.Start().Productions) != 2 {
		t.Fatalf("expected the cyclic rule to resolve to 2 alternatives, got %d", len(g.Start().Productions))
	}
}

func TestNormalizeUnknownGrammeme(t *testing.T) {
	r := rule.Production(predicate.Gram("NUON"))
	if _, err := Normalize(r); err == nil {
		t.Fatalf("expected an unknown-grammeme error")
	}
}

func TestNormalizeRelationArity(t *testing.T) {
	rel := relation.Gender()
	// Only one occurrence: must fail.
	r := rule.Production(predicate.Match(predicate.Gram("NOUN"), rel))
	if _, err := Normalize(r); err == nil {
		t.Fatalf("expected a relation-arity error for a relation used only once")
	}

	relOK := relation.Gender()
	okRule := rule.Production(
		predicate.Match(predicate.Gram("ADJF"), relOK),
		predicate.Match(predicate.Gram("NOUN"), relOK),
	)
	if _, err := Normalize(okRule); err != nil {
		t.Fatalf("expected a relation used exactly twice to be accepted, got %v", err)
	}
}

func TestNormalizePipelineIndex(t *testing.T) {
	r := rule.Pipeline(rule.PipelineExact, "москва", "санкт-петербург")
	g, err := Normalize(r)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	start := g.Start()
	if start.Pipeline == nil {
		t.Fatalf("expected the pipeline non-terminal to carry a predictive index")
	}
	if len(start.Productions) != 2 {
		t.Fatalf("expected one production per entry, got %d", len(start.Productions))
	}
	if idxs := start.Pipeline.Predict("москва"); len(idxs) != 1 {
		t.Errorf("expected exactly one production indexed under %q, got %v", "москва", idxs)
	}
}

package yargo

import (
	"context"
	"testing"

	"github.com/rugram/yargo/interp"
	"github.com/rugram/yargo/morph"
	"github.com/rugram/yargo/predicate"
	"github.com/rugram/yargo/relation"
	"github.com/rugram/yargo/rule"
)

// fakeBackend is a minimal morph.Backend stand-in so tests never touch
// the real embedded gomorphy dictionary.
type fakeBackend struct{}

func (fakeBackend) WordForms(word string) []string { return nil }
func (fakeBackend) Tag(word string) string         { return "" }

func testAnalyzer(t *testing.T) *morph.Analyzer {
	t.Helper()
	a, err := morph.New(fakeBackend{}, 16)
	if err != nil {
		t.Fatalf("morph.New: %v", err)
	}
	return a
}

// Grounded on spec §8 scenario 1: a single eq/attribute rule wrapped in
// a fact schema, matched against input that covers it exactly.
func TestParserMatchAssemblesFact(t *testing.T) {
	schema := interp.NewSchema("F", interp.Attr("a"))
	g := rule.Production(predicate.EqCaseless("a")).Interpretation(schema.A("a").Spec())
	full := rule.Production(g).Interpretation(schema.Interpretation())

	p, err := NewParser(full, WithAnalyzer(testAnalyzer(t)))
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	m, ok, err := p.Match(context.Background(), "a")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if !ok {
		t.Fatalf("expected a match")
	}
	val, err := m.Fact()
	if err != nil {
		t.Fatalf("Fact: %v", err)
	}
	if val.Kind != interp.KindFactResult {
		t.Fatalf("expected a fact result, got kind %v", val.Kind)
	}
	if got := val.Fact.Get("a"); got != "a" {
		t.Errorf("expected a=%q, got %v", "a", got)
	}
}

// Grounded on spec §8 scenario 6 (resolver coverage): two disjoint
// single-token facts in a three-token stream must both survive FindAll
// without being fused or dropped.
func TestParserFindAllKeepsDisjointMatches(t *testing.T) {
	person := interp.NewSchema("Person", interp.Attr("name"))
	personRule := rule.Production(predicate.EqCaseless("first")).Interpretation(person.A("name").Spec())
	personFull := rule.Production(personRule).Interpretation(person.Interpretation())

	p, err := NewParser(personFull, WithAnalyzer(testAnalyzer(t)))
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	matches, err := p.FindAll(context.Background(), "first middle first")
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 disjoint matches, got %d: %v", len(matches), matches)
	}
	if matches[0].Start() >= matches[1].Start() {
		t.Errorf("expected matches ordered left to right by span start")
	}
}

// genderBackend tags "сашу" masculine-accusative and "ивановой"
// feminine-ablative, so the two never agree in gender.
type genderBackend struct{}

func (genderBackend) Tag(word string) string {
	switch word {
	case "сашу":
		return "NOUN,masc,sing,accs"
	case "ивановой":
		return "NOUN,femn,sing,ablt"
	}
	return ""
}

func (genderBackend) WordForms(word string) []string {
	switch word {
	case "сашу":
		return []string{"саша", "сашу"}
	case "ивановой":
		return []string{"иванова", "ивановой"}
	}
	return nil
}

// Grounded on spec §8 scenario 5's negative case: a CFG shape that
// completes but whose bound relation disagrees must yield no match, not
// a spurious one whose .Fact() merely errors later.
func TestParserMatchRejectsRelationDisagreement(t *testing.T) {
	rel := relation.Gender()
	schema := interp.NewSchema("Name", interp.Attr("a"))
	g := rule.Production(
		predicate.Match(predicate.Gram("NOUN"), rel),
		predicate.Match(predicate.Gram("NOUN"), rel),
	).Interpretation(schema.A("a").Spec())
	full := rule.Production(g).Interpretation(schema.Interpretation())

	backend := genderBackend{}
	analyzer, err := morph.New(backend, 16)
	if err != nil {
		t.Fatalf("morph.New: %v", err)
	}
	p, err := NewParser(full, WithAnalyzer(analyzer))
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}

	if _, ok, err := p.Match(context.Background(), "сашу ивановой"); err != nil {
		t.Fatalf("Match: %v", err)
	} else if ok {
		t.Fatalf("expected no match: gender disagreement must exclude the derivation before resolution")
	}

	if matches, err := p.FindAll(context.Background(), "сашу ивановой"); err != nil {
		t.Fatalf("FindAll: %v", err)
	} else if len(matches) != 0 {
		t.Fatalf("expected FindAll to drop the disagreeing derivation too, got %d matches", len(matches))
	}
}

func TestCheckTokenType(t *testing.T) {
	if err := CheckTokenType("LAT-WORD"); err != nil {
		t.Errorf("expected LAT-WORD to be recognised, got %v", err)
	}
	if err := CheckTokenType("NOT-A-TYPE"); err == nil {
		t.Errorf("expected an error for an unrecognised token type")
	}
}


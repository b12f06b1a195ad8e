package earley

import (
	"context"
	"testing"

	"github.com/rugram/yargo/normalize"
	"github.com/rugram/yargo/predicate"
	"github.com/rugram/yargo/rule"
	"github.com/rugram/yargo/token"
)

func tok(value string) token.Morph {
	return token.Morph{Token: token.Token{Value: value, Type: token.RussianWord}}
}

func mustGrammar(t *testing.T, r rule.Rule) *Parser {
	t.Helper()
	g, err := normalize.Normalize(r)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return NewParser(g)
}

// grammar: Sum = Sum '+' Num | Num, adapted from the teacher's earley_test.go
// expression grammar, expressed over plain eq() predicates rather than a
// tokenizer.
func sumGrammar() rule.Rule {
	fw := rule.Forward()
	num := rule.Production(predicate.In("1", "2", "3")).Named("Num")
	sum := rule.Or(
		rule.Production(fw, predicate.Eq("+"), num),
		rule.Production(num),
	).Named("Sum")
	fw.Define(sum)
	return fw
}

func TestParseSimpleSum(t *testing.T) {
	p := mustGrammar(t, sumGrammar())
	tokens := []token.Morph{tok("1"), tok("+"), tok("2"), tok("+"), tok("3")}
	chart, err := p.Parse(context.Background(), tokens)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	found := false
	for _, c := range chart.Completions(0) {
		if c.Start == 0 && c.End == len(tokens) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a full-string completion of the start rule")
	}
}

func TestParseRejectsNonMatchingTail(t *testing.T) {
	p := mustGrammar(t, sumGrammar())
	tokens := []token.Morph{tok("1"), tok("+"), tok("x")}
	chart, err := p.Parse(context.Background(), tokens)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, c := range chart.Completions(0) {
		if c.Start == 0 && c.End == len(tokens) {
			t.Fatalf("did not expect a full-string completion over a non-matching tail")
		}
	}
}

func TestParseFindsSubstringMatches(t *testing.T) {
	p := mustGrammar(t, sumGrammar())
	tokens := []token.Morph{tok("x"), tok("1"), tok("+"), tok("2"), tok("y")}
	chart, err := p.Parse(context.Background(), tokens)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	found := false
	for _, c := range chart.Completions(0) {
		if c.Start == 1 && c.End == 4 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a start-rule completion over the embedded substring [1:4)")
	}
}

func TestParsePipelineDictionary(t *testing.T) {
	r := rule.Pipeline(rule.PipelineExact, "москва", "санкт-петербург")
	p := mustGrammar(t, r)
	tokens := []token.Morph{tok("привет"), tok("москва"), tok("здесь")}
	chart, err := p.Parse(context.Background(), tokens)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	found := false
	for _, c := range chart.Completions(0) {
		if c.Start == 1 && c.End == 2 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the pipeline rule to match token 'москва' at [1:2)")
	}
}

package tree

import (
	"context"
	"testing"

	"github.com/rugram/yargo/earley"
	"github.com/rugram/yargo/interp"
	"github.com/rugram/yargo/normalize"
	"github.com/rugram/yargo/predicate"
	"github.com/rugram/yargo/rule"
	"github.com/rugram/yargo/token"
)

func morphTok(value string) token.Morph {
	return token.Morph{Token: token.Token{Value: value, Type: token.RussianWord}}
}

var nameSchema = interp.NewSchema("Name",
	interp.Attr("first"),
	interp.Attr("last"),
)

func buildNameGrammar(t *testing.T) *earley.Parser {
	t.Helper()
	first := rule.Production(predicate.In("иван", "пётр")).Interpretation(nameSchema.A("first").Spec())
	last := rule.Production(predicate.In("иванов", "петров")).Interpretation(nameSchema.A("last").Spec())
	full := rule.Production(first, last).Interpretation(nameSchema.Interpretation())
	g, err := normalize.Normalize(full)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return earley.NewParser(g)
}

func TestInterpretAssemblesFact(t *testing.T) {
	p := buildNameGrammar(t)
	tokens := []token.Morph{morphTok("иван"), morphTok("иванов")}
	chart, err := p.Parse(context.Background(), tokens)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	completions := chart.Completions(0)
	var top *earley.Completion
	for i, c := range completions {
		if c.Start == 0 && c.End == len(tokens) {
			top = &completions[i]
		}
	}
	if top == nil {
		t.Fatalf("expected a full-string completion")
	}
	candidates := Candidates(chart, *top)
	if len(candidates) == 0 {
		t.Fatalf("expected at least one candidate derivation")
	}
	val, ok, err := Interpret(chart, candidates[0])
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if !ok {
		t.Fatalf("expected the derivation to be relation-satisfiable")
	}
	if val.Kind != interp.KindFactResult {
		t.Fatalf("expected a fact result, got kind %v", val.Kind)
	}
	if got := val.Fact.Get("first"); got != "иван" {
		t.Errorf("expected first=%q, got %v", "иван", got)
	}
	if got := val.Fact.Get("last"); got != "иванов" {
		t.Errorf("expected last=%q, got %v", "иванов", got)
	}
}

func TestTokensFlattensSpan(t *testing.T) {
	p := buildNameGrammar(t)
	tokens := []token.Morph{morphTok("пётр"), morphTok("петров")}
	chart, err := p.Parse(context.Background(), tokens)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	completions := chart.Completions(0)
	var top *earley.Completion
	for i, c := range completions {
		if c.Start == 0 && c.End == len(tokens) {
			top = &completions[i]
		}
	}
	if top == nil {
		t.Fatalf("expected a full-string completion")
	}
	cands := Candidates(chart, *top)
	got := Tokens(cands[0])
	if len(got) != 2 || got[0].Value != "пётр" || got[1].Value != "петров" {
		t.Fatalf("unexpected flattened tokens: %v", got)
	}
}

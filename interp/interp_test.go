package interp

import (
	"testing"

	"github.com/rugram/yargo/token"
)

func tok(value, lemma string, grams ...string) token.Morph {
	g := make(map[string]struct{}, len(grams))
	for _, x := range grams {
		g[x] = struct{}{}
	}
	return token.Morph{
		Token: token.Token{Value: value},
		Forms: []token.Form{token.NewForm(lemma, g, nil)},
	}
}

func TestApplyAssemblesFactFromAttributes(t *testing.T) {
	schema := NewSchema("Name", Attr("first"), Attr("last"))
	first := Value{Kind: KindAttrResult, Attr: AttrResult{Name: "first", Value: "иван"}}
	last := Value{Kind: KindAttrResult, Attr: AttrResult{Name: "last", Value: "иванов"}}

	val, err := Apply(schema.Interpretation(), []Value{first, last})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if val.Kind != KindFactResult {
		t.Fatalf("expected KindFactResult, got %v", val.Kind)
	}
	if got := val.Fact.Get("first"); got != "иван" {
		t.Errorf("first: got %v", got)
	}
	if got := val.Fact.Get("last"); got != "иванов" {
		t.Errorf("last: got %v", got)
	}
}

func TestApplyRejectsUnknownAttribute(t *testing.T) {
	schema := NewSchema("Name", Attr("first"))
	bad := Value{Kind: KindAttrResult, Attr: AttrResult{Name: "nope", Value: "x"}}
	if _, err := Apply(schema.Interpretation(), []Value{bad}); err == nil {
		t.Fatalf("expected an error for an attribute not declared on the schema")
	}
}

func TestApplyRejectsCrossSchemaFactMerge(t *testing.T) {
	a := NewSchema("A")
	b := NewSchema("B")
	nested := Value{Kind: KindFactResult, Fact: &FactResult{Schema: b, Scalars: map[string]interface{}{}, Repeated: map[string][]interface{}{}}}
	if _, err := Apply(a.Interpretation(), []Value{nested}); err == nil {
		t.Fatalf("expected an error merging a fact of the wrong schema")
	}
}

func TestReduceScalarJoinsRawSurfaceWithSpacing(t *testing.T) {
	schema := NewSchema("Name", Attr("first"))
	a := token.Morph{Token: token.Token{Value: "иван", Span: token.Span{Start: 0, Stop: 4}}}
	b := token.Morph{Token: token.Token{Value: "петров", Span: token.Span{Start: 5, Stop: 11}}}
	children := []Value{Chain([]token.Morph{a, b})}

	val, err := Apply(schema.A("first").Spec(), children)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if val.Attr.Value != "иван петров" {
		t.Errorf("expected a space-joined surface string, got %q", val.Attr.Value)
	}
}

func TestReduceScalarAppliesNormalized(t *testing.T) {
	schema := NewSchema("Name", Attr("first"))
	a := tok("Ивана", "иван")
	children := []Value{Chain([]token.Morph{a})}

	val, err := Apply(schema.A("first").Normalized(), children)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if val.Attr.Value != "иван" {
		t.Errorf("expected the lemma to replace the surface form, got %q", val.Attr.Value)
	}
}

func TestReduceScalarRejectsChainAfterFactOrAttr(t *testing.T) {
	schema := NewSchema("Name", Attr("first"))
	bad := Value{Kind: KindFactResult, Fact: &FactResult{Schema: schema}}
	if _, err := Apply(schema.A("first").Spec(), []Value{bad}); err == nil {
		t.Fatalf("expected an error when a fact result reaches an attribute reduction")
	}
}

func TestEmptyChainPropagatesThroughFact(t *testing.T) {
	schema := NewSchema("Name", Attr("first"))
	empty := Chain(nil)
	val, err := Apply(schema.Interpretation(), []Value{empty})
	if err != nil {
		t.Fatalf("expected an empty dropped production to be tolerated, got %v", err)
	}
	if val.Kind != KindFactResult {
		t.Fatalf("expected a (possibly empty) fact result, got %v", val.Kind)
	}
}

func TestJoinRawInsertsSpaceOnlyAcrossGaps(t *testing.T) {
	a := token.Morph{Token: token.Token{Value: "a", Span: token.Span{Start: 0, Stop: 1}}}
	b := token.Morph{Token: token.Token{Value: "b", Span: token.Span{Start: 1, Stop: 2}}} // adjacent
	c := token.Morph{Token: token.Token{Value: "c", Span: token.Span{Start: 5, Stop: 6}}} // gap

	got := JoinRaw([]token.Morph{a, b, c})
	if got != "ab c" {
		t.Errorf("expected %q, got %q", "ab c", got)
	}
}

func TestNormalizerCustomComposition(t *testing.T) {
	n := Normalized().Custom(func(v interface{}) interface{} {
		s, _ := v.(string)
		return s + "!"
	})
	a := tok("Ивана", "иван")
	out, err := n.apply([]token.Morph{a}, "ивана")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out != "иван!" {
		t.Errorf("expected the custom composition to run after normalization, got %q", out)
	}
}

func TestNormalizerCustomComposesAcrossMultipleLevels(t *testing.T) {
	n := Normalized().
		Custom(func(v interface{}) interface{} {
			s, _ := v.(string)
			return s + "!"
		}).
		Custom(func(v interface{}) interface{} {
			s, _ := v.(string)
			return s + "?"
		})
	a := tok("Ивана", "иван")
	out, err := n.apply([]token.Morph{a}, "ивана")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out != "иван!?" {
		t.Errorf("expected both chained custom steps to run in order, got %q", out)
	}
}

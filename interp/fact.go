/*
Package interp implements the parse-tree interpretation engine of spec
§4.6: fact schemas, the Interpretator sum type (Fact/Attribute/Normalizer),
and value normalisers. Package tree drives the bottom-up reduction; this
package only knows about token chains and the Value/FactResult algebra,
so the two packages do not import each other in a cycle.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2024 the yargo authors
*/
package interp

import (
	"fmt"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"

	"github.com/rugram/yargo/token"
)

// tracer traces with key 'yargo.interp'.
func tracer() tracing.Trace {
	if t := tracing.Select("yargo.interp"); t != nil {
		return t
	}
	return gtrace.SyntaxTracer
}

// AttrDef declares one attribute of a Schema (spec §3 "Fact schema").
type AttrDef struct {
	Name       string
	Repeatable bool
	Default    interface{}
}

// Attr declares a scalar attribute with no default value.
func Attr(name string) AttrDef { return AttrDef{Name: name} }

// Repeated marks the attribute as repeatable (a list).
func (a AttrDef) Repeated() AttrDef { a.Repeatable = true; return a }

// WithDefault sets the attribute's default scalar value.
func (a AttrDef) WithDefault(v interface{}) AttrDef { a.Default = v; return a }

// Schema is a fact type descriptor (spec §3 "Fact schema").
type Schema struct {
	Name  string
	Attrs []AttrDef
}

// NewSchema builds a named fact schema from attribute declarations.
func NewSchema(name string, attrs ...AttrDef) *Schema {
	return &Schema{Name: name, Attrs: attrs}
}

func (s *Schema) attr(name string) (AttrDef, bool) {
	for _, a := range s.Attrs {
		if a.Name == name {
			return a, true
		}
	}
	return AttrDef{}, false
}

// A returns a fluent reference to one of s's attributes, used to build
// AttributeInterpretator/NormalizerInterpretator specs (spec §3
// Interpretator; §9 "deep attribute-chain grammar").
func (s *Schema) A(name string) AttrRef {
	if _, ok := s.attr(name); !ok {
		panic(fmt.Sprintf("interp: schema %s has no attribute %q", s.Name, name))
	}
	return AttrRef{Schema: s, Name: name}
}

// Interpretation returns the FactInterpretator spec for s, attached to a
// rule via rule.Rule.Interpretation(schema.Interpretation()).
func (s *Schema) Interpretation() Spec {
	return Spec{Kind: KindFact, Schema: s}
}

// AttrRef is a builder for attribute-bound interpretators. Each of its
// methods returns a finished Spec carrying at most one normaliser; the
// methods do not chain. A longer chain such as normalized-then-custom is
// built with Normalizer.Custom (e.g. Normalized().Custom(f)) and set as
// the returned Spec's Norm.
type AttrRef struct {
	Schema *Schema
	Name   string
}

// Spec returns the bare AttributeInterpretator spec (raw surface-text
// join, no normaliser).
func (a AttrRef) Spec() Spec { return Spec{Kind: KindAttribute, Attr: a.Name} }

// Normalized attaches the normalized() normaliser (spec §4.6).
func (a AttrRef) Normalized() Spec {
	return Spec{Kind: KindAttribute, Attr: a.Name, Norm: Normalized()}
}

// Inflected attaches the inflected(grams) normaliser.
func (a AttrRef) Inflected(grams ...string) Spec {
	return Spec{Kind: KindAttribute, Attr: a.Name, Norm: Inflected(grams...)}
}

// Const attaches the const(v) normaliser.
func (a AttrRef) Const(v interface{}) Spec {
	return Spec{Kind: KindAttribute, Attr: a.Name, Norm: ConstNorm(v)}
}

// Custom attaches a user function as the normaliser.
func (a AttrRef) Custom(f func(interface{}) interface{}) Spec {
	return Spec{Kind: KindAttribute, Attr: a.Name, Norm: CustomNorm(f)}
}

// --- Spec: the Interpretator sum type -------------------------------------

// Kind discriminates the Interpretator sum type (spec §3).
type Kind int

const (
	KindFact Kind = iota
	KindAttribute
	KindNormalizer
)

// Spec is attached to a rule via rule.Rule.Interpretation and consumed by
// package tree during bottom-up reduction.
type Spec struct {
	Kind   Kind
	Schema *Schema // KindFact
	Attr   string  // KindAttribute
	Norm   *Normalizer
}

// NormalizerSpec builds a standalone NormalizerInterpretator spec (spec
// §3: "map a chain of tokens to a value via [a normalizer]").
func NormalizerSpec(n *Normalizer) Spec { return Spec{Kind: KindNormalizer, Norm: n} }

// --- Values flowing through interpretation --------------------------------

// ValueKind discriminates what an interpretator produced or consumed.
type ValueKind int

const (
	KindChain ValueKind = iota // a chain of raw tokens, not yet reduced
	KindScalar
	KindAttrResult
	KindFactResult
)

// AttrResult tags a scalar value with the fact attribute it belongs to
// (spec §3 Interpretator "AttributeResult").
type AttrResult struct {
	Name  string
	Value interface{}
}

// FactResult is an assembled fact instance (spec §3 "Fact instance").
type FactResult struct {
	Schema   *Schema
	Scalars  map[string]interface{}
	Repeated map[string][]interface{}
	Spans    []token.Span
}

// Get returns the value of a scalar attribute, or its schema default.
func (f *FactResult) Get(name string) interface{} {
	if v, ok := f.Scalars[name]; ok {
		return v
	}
	if def, ok := f.Schema.attr(name); ok {
		return def.Default
	}
	return nil
}

// GetRepeated returns the accumulated values of a repeatable attribute.
func (f *FactResult) GetRepeated(name string) []interface{} {
	return f.Repeated[name]
}

// Value is the tagged-union payload passed between tree nodes during
// bottom-up reduction.
type Value struct {
	Kind   ValueKind
	Tokens []token.Morph
	Scalar interface{}
	Attr   AttrResult
	Fact   *FactResult
}

// Chain wraps a token run as an un-reduced Value.
func Chain(toks []token.Morph) Value { return Value{Kind: KindChain, Tokens: toks} }

// FactValue wraps an assembled fact as a Value (so nested facts compose).
func FactValue(f *FactResult) Value { return Value{Kind: KindFactResult, Fact: f} }

// Error is raised lazily by Match.Fact() when reduction cannot proceed
// (spec §7 InterpretationError): a chain reaches an interpretator
// expecting a single value, or a fact is merged into an incompatible
// schema.
type Error struct {
	Op  string
	Msg string
}

func (e *Error) Error() string { return fmt.Sprintf("interpretation error in %s: %s", e.Op, e.Msg) }

func errf(op, format string, args ...interface{}) error {
	return &Error{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Apply reduces a node's children according to spec, producing the
// node's own Value. children is the ordered list of already-reduced
// child values (tree.interpret drives this bottom-up).
func Apply(spec Spec, children []Value) (Value, error) {
	switch spec.Kind {
	case KindFact:
		f, err := assembleFact(spec.Schema, children)
		if err != nil {
			return Value{}, err
		}
		tracer().Debugf("interp: assembled fact %q", spec.Schema.Name)
		return FactValue(f), nil
	case KindAttribute:
		scalar, err := reduceScalar("attribute("+spec.Attr+")", children, spec.Norm)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindAttrResult, Attr: AttrResult{Name: spec.Attr, Value: scalar}}, nil
	case KindNormalizer:
		scalar, err := reduceScalar("normalizer", children, spec.Norm)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindScalar, Scalar: scalar}, nil
	default:
		return Value{}, errf("apply", "unknown interpretator kind %d", spec.Kind)
	}
}

// reduceScalar flattens children into a token chain (or, if children is a
// single already-scalar value, passes that through — supporting
// composition such as attr.normalizer.custom(f)) and evaluates norm over
// it. norm == nil means "raw surface-text join" (spec §4.6 example 1).
func reduceScalar(op string, children []Value, norm *Normalizer) (interface{}, error) {
	if len(children) == 1 && children[0].Kind == KindScalar {
		if norm == nil {
			return children[0].Scalar, nil
		}
		return norm.apply(nil, children[0].Scalar)
	}
	var toks []token.Morph
	for _, c := range children {
		switch c.Kind {
		case KindChain:
			toks = append(toks, c.Tokens...)
		case KindFactResult, KindAttrResult:
			return nil, errf(op, "expected a token chain or single value, got %v", c.Kind)
		default:
			return nil, errf(op, "unexpected child kind %v", c.Kind)
		}
	}
	raw := JoinRaw(toks)
	if norm == nil {
		return raw, nil
	}
	return norm.apply(toks, raw)
}

// assembleFact builds a FactResult of schema from its children: a
// sequence of AttrResults and sub-FactResults of the same schema (spec
// §4.6 "FactInterpretator").
func assembleFact(schema *Schema, children []Value) (*FactResult, error) {
	f := &FactResult{Schema: schema, Scalars: map[string]interface{}{}, Repeated: map[string][]interface{}{}}
	for _, c := range children {
		switch c.Kind {
		case KindAttrResult:
			def, ok := schema.attr(c.Attr.Name)
			if !ok {
				return nil, errf("fact", "schema %s has no attribute %q", schema.Name, c.Attr.Name)
			}
			if def.Repeatable {
				f.Repeated[c.Attr.Name] = append(f.Repeated[c.Attr.Name], c.Attr.Value)
			} else {
				f.Scalars[c.Attr.Name] = c.Attr.Value
			}
		case KindFactResult:
			if c.Fact.Schema != schema {
				return nil, errf("fact", "cannot merge fact of schema %s into %s", c.Fact.Schema.Name, schema.Name)
			}
			mergeFact(f, c.Fact)
		case KindChain:
			if len(c.Tokens) == 0 {
				continue // dropped empty production, spec §4.6 propagate-empty
			}
			return nil, errf("fact", "unattributed token chain reached FactInterpretator for %s", schema.Name)
		default:
			return nil, errf("fact", "unexpected child kind %v", c.Kind)
		}
	}
	return f, nil
}

func mergeFact(dst, src *FactResult) {
	for k, v := range src.Scalars {
		dst.Scalars[k] = v
	}
	for k, vs := range src.Repeated {
		dst.Repeated[k] = append(dst.Repeated[k], vs...)
	}
	dst.Spans = append(dst.Spans, src.Spans...)
}

// JoinRaw concatenates the surface values of toks, inserting a single
// space wherever two consecutive tokens' spans are not adjacent in the
// source (spec §4.6 "Join semantics for normalised text").
func JoinRaw(toks []token.Morph) string {
	out := ""
	for i, t := range toks {
		if i > 0 && !toks[i-1].Span.Adjacent(t.Span) {
			out += " "
		}
		out += t.Value
	}
	return out
}

/*
Package tokenize implements the tokeniser and pipeline contracts of spec
§6: a regex-driven categoriser splitting raw text into typed tokens, a
morphological attachment step, and the pre-parser phrase-coalescing
pipeline that folds multi-token dictionary entries into single synthetic
tokens before the chart parser ever runs.

Grounded on the teacher's lr/scanner/lexmachine.go adapter (same
underlying library, github.com/timtadh/lexmachine, wrapped the same way:
build a *lexmachine.Lexer from a rule table, compile once, then drive a
*lexmachine.Scanner to pull tokens one at a time) and its
lr/scanner/scanner.go Tokenizer interface shape.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2024 the yargo authors
*/
package tokenize

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"

	"github.com/rugram/yargo/morph"
	"github.com/rugram/yargo/token"
)

// tracer traces with key 'yargo.tokenize'.
func tracer() tracing.Trace {
	if t := tracing.Select("yargo.tokenize"); t != nil {
		return t
	}
	return gtrace.SyntaxTracer
}

// category identifies which lexmachine rule matched, translated to a
// token.Type once the match completes.
type category int

const (
	catRussian category = iota
	catLatin
	catInteger
	catPunctuation
	catLineBreak
)

var categoryType = map[category]token.Type{
	catRussian:     token.RussianWord,
	catLatin:       token.LatinWord,
	catInteger:     token.Integer,
	catPunctuation: token.Punctuation,
	catLineBreak:   token.LineBreak,
}

// Tokenizer splits raw text into typed tokens (spec §6 "tokeniser
// contract"). The zero value is not usable; build one with New.
type Tokenizer struct {
	lexer *lexmachine.Lexer
}

// New compiles the default rule set (russian/latin word, integer,
// punctuation, line-break) into a ready-to-use Tokenizer.
func New() (*Tokenizer, error) {
	lexer := lexmachine.NewLexer()
	add := func(pattern string, cat category) {
		id := int(cat)
		lexer.Add([]byte(pattern), func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
			return s.Token(id, string(m.Bytes), m), nil
		})
	}
	add(`[а-яёА-ЯЁ]+(-[а-яёА-ЯЁ]+)*`, catRussian)
	add(`[a-zA-Z]+`, catLatin)
	add(`[0-9]+`, catInteger)
	add(`\n`, catLineBreak)
	add(`[.,!?;:()«»"'—\-]`, catPunctuation)
	add(`[ \t\r]+`, catLineBreak) // whitespace is skipped below, never emitted
	if err := lexer.Compile(); err != nil {
		return nil, fmt.Errorf("tokenize: compiling DFA: %w", err)
	}
	return &Tokenizer{lexer: lexer}, nil
}

// Split tokenises text into an ordered, non-overlapping, span-monotonic
// sequence of tokens (spec §6 tokeniser contract; spec §8 "tokeniser
// span coverage": concatenating spans with inter-span whitespace
// reconstructs the input).
func (t *Tokenizer) Split(text string) ([]token.Token, error) {
	src := []byte(text)
	scanner, err := t.lexer.Scanner(src)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	var out []token.Token
	for {
		tok, err, eof := scanner.Next()
		if eof {
			break
		}
		if err != nil {
			if ui, ok := err.(*machines.UnconsumedInput); ok {
				scanner.TC = ui.FailTC
				continue
			}
			return nil, fmt.Errorf("tokenize: %w", err)
		}
		m := tok.(*lexmachine.Token)
		cat := category(m.Type)
		text := string(m.Lexeme)
		if cat == catLineBreak && isBlank(text) && !hasNewline(text) {
			continue // plain whitespace run: a span gap, not a token
		}
		start := utf8.RuneCount(src[:m.TC]) // m.TC is a byte offset
		out = append(out, token.Token{
			Value: text,
			Span:  token.Span{Start: start, Stop: start + len([]rune(text))},
			Type:  categoryType[cat],
		})
	}
	tracer().Debugf("tokenize: split %q into %d token(s)", text, len(out))
	return out, nil
}

func isBlank(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func hasNewline(s string) bool {
	for _, r := range s {
		if r == '\n' {
			return true
		}
	}
	return false
}

// CheckType reports whether tag names a token type this tokeniser can
// produce (spec §6 "check_type(tag) -> ok|error").
func CheckType(tag string) error {
	for _, t := range []token.Type{token.RussianWord, token.LatinWord, token.Integer, token.Punctuation, token.LineBreak} {
		if t.String() == tag {
			return nil
		}
	}
	return fmt.Errorf("tokenize: unrecognised token type %q", tag)
}

// Morphologize attaches morphological forms to every RussianWord token,
// producing the token.Morph stream the chart parser consumes. Other
// token types get an empty form list: predicates that test Type or
// Value alone never need to consult Forms.
func Morphologize(tokens []token.Token, analyzer *morph.Analyzer) []token.Morph {
	out := make([]token.Morph, len(tokens))
	for i, tok := range tokens {
		m := token.Morph{Token: tok}
		if tok.Type == token.RussianWord {
			m.Forms = analyzer.Parse(tok.Value)
		}
		out[i] = m
	}
	return out
}

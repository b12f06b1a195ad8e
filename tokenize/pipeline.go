package tokenize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rugram/yargo/rule"
	"github.com/rugram/yargo/token"
)

// Pipeline is the pre-parser phrase recogniser of spec §6's "Pipeline
// contract": it ingests the tokeniser's stream and yields a
// possibly-longer-token stream where multi-token dictionary entries have
// been coalesced into single synthetic tokens, so that by the time the
// chart parser's rule.Pipeline non-terminal (package bnf's PipelineIndex)
// sees the stream, every dictionary phrase is already exactly one token.
//
// The three variants (exact, case-folded, lemma-set) share this same
// coalescing machinery and differ only in how a token is compared against
// an entry's words — identical to how bnf.PipelineIndex's three modes
// differ only in lookup key (see bnf.go), since this is the other half of
// that same mechanism.
type Pipeline struct {
	mode   rule.PipelineMode
	byLen  map[int][]dictEntry
	maxLen int
}

type dictEntry struct {
	words []string
	raw   string
}

var pipelineCaseFolder = cases.Fold()

// SetCaseFoldLocale mirrors bnf.SetCaseFoldLocale: it switches this
// package's case-folded matching from the default locale-independent
// fold to a locale-sensitive lower-caser, so the two halves of the
// pipeline mechanism (grammar-side bnf.PipelineIndex and tokeniser-side
// Pipeline) stay in lockstep under the same yargo.Config setting.
func SetCaseFoldLocale(tag language.Tag) {
	if tag == language.Und {
		pipelineCaseFolder = cases.Fold()
		return
	}
	pipelineCaseFolder = cases.Lower(tag)
}

// NewPipeline builds a Pipeline over entries (space-separated phrases,
// spec §4.3) for the given mode.
func NewPipeline(mode rule.PipelineMode, entries ...string) *Pipeline {
	p := &Pipeline{mode: mode, byLen: map[int][]dictEntry{}}
	for _, e := range entries {
		words := strings.Fields(e)
		if len(words) == 0 {
			continue
		}
		p.byLen[len(words)] = append(p.byLen[len(words)], dictEntry{words: words, raw: e})
		if len(words) > p.maxLen {
			p.maxLen = len(words)
		}
	}
	return p
}

// Coalesce scans tokens left to right, greedily preferring the longest
// registered phrase at each position, and returns the stream with every
// match folded into one synthetic token.
func (p *Pipeline) Coalesce(tokens []token.Morph) []token.Morph {
	var out []token.Morph
	for i := 0; i < len(tokens); {
		length, raw, ok := p.longestMatch(tokens, i)
		if !ok {
			out = append(out, tokens[i])
			i++
			continue
		}
		out = append(out, p.synthesize(tokens[i:i+length], raw))
		i += length
	}
	return out
}

func (p *Pipeline) longestMatch(tokens []token.Morph, start int) (int, string, bool) {
	for length := p.maxLen; length >= 1; length-- {
		if start+length > len(tokens) {
			continue
		}
		for _, entry := range p.byLen[length] {
			if p.matchesAt(tokens, start, entry.words) {
				return length, entry.raw, true
			}
		}
	}
	return 0, "", false
}

func (p *Pipeline) matchesAt(tokens []token.Morph, start int, words []string) bool {
	for i, w := range words {
		if !p.tokenMatchesWord(tokens[start+i], w) {
			return false
		}
	}
	return true
}

func (p *Pipeline) tokenMatchesWord(tok token.Morph, word string) bool {
	switch p.mode {
	case rule.PipelineCaseFolded:
		return pipelineCaseFolder.String(tok.Value) == pipelineCaseFolder.String(word)
	case rule.PipelineLemma:
		for _, f := range tok.Forms {
			if f.Lemma == word {
				return true
			}
		}
		return false
	default:
		return tok.Value == word
	}
}

// synthesize folds a matched token run into a single token carrying the
// dictionary's canonical spelling as its Value (so the grammar's
// PipelineIndex.KeysForToken, which reads Value for the exact/case-folded
// modes, finds it) and a synthetic Form carrying raw as its Lemma (so
// lemma-mode lookups, which read Forms, find it too).
func (p *Pipeline) synthesize(run []token.Morph, raw string) token.Morph {
	span := run[0].Span
	for _, t := range run[1:] {
		span = span.Extend(t.Span)
	}
	return token.Morph{
		Token: token.Token{Value: raw, Span: span, Type: token.RussianWord},
		Forms: []token.Form{{Lemma: raw, Grams: map[string]struct{}{}}},
	}
}

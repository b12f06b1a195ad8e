/*
Package morph adapts github.com/jus1d/gomorphy's embedded Russian
morphological analyser to the token.Form contract used throughout yargo:
a lemma, a set of grammemes, and an inflector closed over the analyser.

gomorphy exposes only word-level operations (WordForms, Tag,
PhraseFormsConcordant) over its most-probable parse of a word; it does not
hand out per-form grammeme tags directly. This adapter recovers per-form
tags by re-querying the dictionary for each candidate surface form — every
candidate produced by WordForms is itself a valid dictionary entry, so
Tag(candidate) describes that candidate's own grams. That lets Analyze
build a full token.Form (lemma + grams + inflect) from gomorphy's narrow
surface, the same way the teacher's scanner adapters build a gorgo.Token
from a narrower third-party scanner interface.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2024 the yargo authors
*/
package morph

import (
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jus1d/gomorphy"
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"

	"github.com/rugram/yargo/token"
)

// tracer traces with key 'yargo.morph'.
func tracer() tracing.Trace {
	t := tracing.Select("yargo.morph")
	if t == nil {
		return gtrace.SyntaxTracer
	}
	return t
}

// DefaultCacheSize is the default bound on the process-wide lemmatisation
// cache, per spec §5.
const DefaultCacheSize = 100_000

// Backend is the subset of gomorphy.Analyzer that Analyzer depends on. It
// is declared as an interface so tests can substitute a fake dictionary.
type Backend interface {
	WordForms(word string) []string
	Tag(word string) string
}

// Analyzer wraps a Backend (normally gomorphy.Default()) with a
// size-bounded cache, satisfying the morphology contract of spec §6:
// Parse, Normalized and CheckGram.
//
// Safe for concurrent use: gomorphy's Analyzer is documented safe for
// concurrent use after initialisation, and the LRU cache is internally
// synchronized.
type Analyzer struct {
	backend Backend
	cache   *lru.Cache[string, []token.Form]
}

// New wraps backend with a lemmatisation cache bounded at size entries. A
// size of 0 selects DefaultCacheSize.
func New(backend Backend, size int) (*Analyzer, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []token.Form](size)
	if err != nil {
		return nil, err
	}
	return &Analyzer{backend: backend, cache: cache}, nil
}

var (
	defaultOnce sync.Once
	defaultA    *Analyzer
	defaultErr  error
)

// Default returns a process-wide Analyzer backed by gomorphy.Default(),
// with the default cache size. Subsequent calls return the same instance.
func Default() (*Analyzer, error) {
	defaultOnce.Do(func() {
		backend, err := gomorphy.Default()
		if err != nil {
			defaultErr = err
			return
		}
		defaultA, defaultErr = New(backend, DefaultCacheSize)
	})
	return defaultA, defaultErr
}

// Parse returns the ordered list of morphological forms for word,
// most-probable first, per spec §6's morphology contract. Unknown words
// yield a single synthetic form whose lemma is the surface form itself
// and whose grams set is empty, so grammars never need to special-case a
// nil form list (see SPEC_FULL.md "OOV handling").
func (a *Analyzer) Parse(word string) []token.Form {
	key := strings.ToLower(strings.TrimSpace(word))
	if key == "" {
		return nil
	}
	if forms, ok := a.cache.Get(key); ok {
		tracer().Debugf("morph cache hit for %q", key)
		return cloneForms(forms)
	}
	forms := a.analyze(key)
	a.cache.Add(key, forms)
	return cloneForms(forms)
}

func (a *Analyzer) analyze(word string) []token.Form {
	tag := a.backend.Tag(word)
	if tag == "" {
		return []token.Form{{Lemma: word, Grams: map[string]struct{}{}}}
	}
	surfaces := a.backend.WordForms(word)
	if len(surfaces) == 0 {
		return []token.Form{{Lemma: word, Grams: map[string]struct{}{}}}
	}
	// By pymorphy paradigm convention the dictionary's normal form is
	// paradigm slot 0, which WordForms lists first (before de-duplication).
	lemma := surfaces[0]
	grams := parseGrams(tag)
	inflect := a.inflector(word, surfaces)
	return []token.Form{token.NewForm(lemma, grams, inflect)}
}

// inflector returns a closure implementing token.Form.Inflect: scan the
// candidate surface forms of the same paradigm and return the first one
// whose own tag contains every requested grammeme.
func (a *Analyzer) inflector(original string, surfaces []string) func(map[string]struct{}) (string, bool) {
	return func(target map[string]struct{}) (string, bool) {
		for _, candidate := range surfaces {
			tag := a.backend.Tag(candidate)
			if tag == "" {
				continue
			}
			if matchesAll(tag, target) {
				return candidate, true
			}
		}
		return "", false
	}
}

// Normalized returns the set of distinct lemmas for word (usually one,
// but predicates are written against a set per spec §6).
func (a *Analyzer) Normalized(word string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, f := range a.Parse(word) {
		out[f.Lemma] = struct{}{}
	}
	return out
}

// knownGrams is the fixed OpenCorpora grammeme vocabulary gomorphy's
// dictionaries are built against; CheckGram validates against it so
// grammar activation (spec §4.2 pass 1, "Activate") can reject typos
// such as gram('NUON') at construction time rather than silently never
// matching at runtime.
var knownGrams = map[string]struct{}{
	"NOUN": {}, "ADJF": {}, "ADJS": {}, "COMP": {}, "VERB": {}, "INFN": {},
	"PRTF": {}, "PRTS": {}, "GRND": {}, "NUMR": {}, "ADVB": {}, "NPRO": {},
	"PRED": {}, "PREP": {}, "CONJ": {}, "PRCL": {}, "INTJ": {},
	"anim": {}, "inan": {}, "masc": {}, "femn": {}, "neut": {}, "Ms-f": {},
	"sing": {}, "plur": {}, "Sgtm": {}, "Pltm": {}, "Fixd": {},
	"nomn": {}, "gent": {}, "datv": {}, "accs": {}, "ablt": {}, "loct": {},
	"voct": {}, "gen1": {}, "gen2": {}, "acc2": {}, "loc1": {}, "loc2": {},
	"1per": {}, "2per": {}, "3per": {}, "pres": {}, "past": {}, "futr": {},
	"perf": {}, "impf": {}, "tran": {}, "intr": {}, "indc": {}, "impr": {},
	"incl": {}, "excl": {}, "actv": {}, "pssv": {}, "Name": {}, "Surn": {},
	"Patr": {}, "Geox": {}, "Orgn": {}, "Trad": {}, "Abbr": {},
}

// CheckGram reports whether gram is a recognised OpenCorpora grammeme.
func CheckGram(gram string) bool {
	_, ok := knownGrams[gram]
	return ok
}

func cloneForms(forms []token.Form) []token.Form {
	out := make([]token.Form, len(forms))
	for i, f := range forms {
		out[i] = f.Clone()
	}
	return out
}

func parseGrams(tag string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, field := range strings.FieldsFunc(tag, func(r rune) bool {
		return r == ',' || r == ' '
	}) {
		out[field] = struct{}{}
	}
	return out
}

func matchesAll(tag string, target map[string]struct{}) bool {
	for g := range target {
		if !strings.Contains(tag, g) {
			return false
		}
	}
	return true
}

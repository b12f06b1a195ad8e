package yargo

import (
	"context"
	"fmt"

	"github.com/jus1d/gomorphy"

	"github.com/rugram/yargo/earley"
	"github.com/rugram/yargo/interp"
	"github.com/rugram/yargo/morph"
	"github.com/rugram/yargo/normalize"
	"github.com/rugram/yargo/resolve"
	"github.com/rugram/yargo/rule"
	"github.com/rugram/yargo/token"
	"github.com/rugram/yargo/tokenize"
	"github.com/rugram/yargo/tree"
)

// GrammarError is raised during grammar construction/normalisation/
// activation (spec §7).
type GrammarError = normalize.Error

// InterpretationError is raised lazily on Match.Fact when a candidate
// derivation cannot be reduced to a value (spec §7).
type InterpretationError = interp.Error

// CheckTokenType reports whether tag names a token type the default
// tokeniser can produce (spec §6 "check_type(tag) -> ok|error").
func CheckTokenType(tag string) error { return tokenize.CheckType(tag) }

// Parser is the public entry point (spec §6 "Public parser API"): it
// activates a rule.Rule into a grammar once, then serves Match/FindAll/
// Extract against arbitrary input text.
//
// Parser holds no per-call mutable state beyond what its collaborators
// already guarantee safe for concurrent use (earley.Parser is stateless
// per call; morph.Analyzer's cache is internally synchronized), so a
// *Parser may be shared across goroutines without a mutex.
type Parser struct {
	chartParser *earley.Parser
	tokenizer   *tokenize.Tokenizer
	analyzer    *morph.Analyzer
	pipeline    *tokenize.Pipeline
	cfg         Config
}

// Option configures a Parser at construction time.
type Option func(*options)

type options struct {
	tokenizer *tokenize.Tokenizer
	analyzer  *morph.Analyzer
	pipeline  *tokenize.Pipeline
	cfg       Config
}

// WithTokenizer supplies a tokeniser other than the package default
// (spec §6 "Parser(rule, tokenizer?, tagger?)").
func WithTokenizer(t *tokenize.Tokenizer) Option {
	return func(o *options) { o.tokenizer = t }
}

// WithAnalyzer supplies a morphological analyser ("tagger") other than
// the package default.
func WithAnalyzer(a *morph.Analyzer) Option {
	return func(o *options) { o.analyzer = a }
}

// WithPipeline attaches a tokeniser-side dictionary pipeline (spec §6
// "Pipeline contract"): raw multi-token phrases named by p are coalesced
// into single synthetic tokens before parsing. p's mode and entries
// should match the rule.Pipeline non-terminals the grammar itself uses,
// since the two are the tokeniser-side and grammar-side halves of one
// mechanism.
func WithPipeline(p *tokenize.Pipeline) Option {
	return func(o *options) { o.pipeline = p }
}

// WithConfig supplies engine-wide tuning (cache size, pipeline locale).
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// NewParser activates r (spec §4.2 "Normalize") and builds a ready-to-use
// Parser. It returns a *GrammarError if r is ill-formed.
func NewParser(r rule.Rule, opts ...Option) (*Parser, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	cfg := o.cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.applyCaseFoldLocale(); err != nil {
		return nil, err
	}

	grammar, err := normalize.Normalize(r)
	if err != nil {
		return nil, err
	}

	tokenizer := o.tokenizer
	if tokenizer == nil {
		tokenizer, err = tokenize.New()
		if err != nil {
			return nil, fmt.Errorf("yargo: building default tokenizer: %w", err)
		}
	}
	analyzer := o.analyzer
	if analyzer == nil {
		analyzer, err = newDefaultAnalyzer(cfg.MorphCacheSize)
		if err != nil {
			return nil, fmt.Errorf("yargo: building default morphology analyzer: %w", err)
		}
	}

	return &Parser{
		chartParser: earley.NewParser(grammar),
		tokenizer:   tokenizer,
		analyzer:    analyzer,
		pipeline:    o.pipeline,
		cfg:         cfg,
	}, nil
}

// newDefaultAnalyzer builds the default gomorphy-backed analyzer. When
// size is the library default it reuses the process-wide singleton
// (morph.Default); a caller-requested non-default cache size gets its
// own Analyzer instance instead of disturbing the shared one.
func newDefaultAnalyzer(size int) (*morph.Analyzer, error) {
	if size <= 0 || size == morph.DefaultCacheSize {
		return morph.Default()
	}
	backend, err := gomorphy.Default()
	if err != nil {
		return nil, err
	}
	return morph.New(backend, size)
}

// Match is one resolved match: a token span plus a lazily-interpreted
// fact value (spec §3 "Match").
type Match struct {
	chart *earley.Chart
	node  *tree.Node
	Span  token.Span
}

// Start is the index of the first token this match covers.
func (m Match) Start() int { return m.node.Start }

// End is the index just past the last token this match covers.
func (m Match) End() int { return m.node.End }

// Tokens returns the leaf tokens this match spans, left to right.
func (m Match) Tokens() []token.Morph { return tree.Tokens(m.node) }

// Fact lazily reduces this match's derivation into an interp.Value,
// returning an *InterpretationError if reduction fails (spec §7
// "raised lazily on match.fact").
func (m Match) Fact() (interp.Value, error) {
	val, ok, err := tree.Interpret(m.chart, m.node)
	if err != nil {
		return interp.Value{}, err
	}
	if !ok {
		return interp.Value{}, &InterpretationError{Op: "fact", Msg: "candidate derivation violates a bound relation"}
	}
	return val, nil
}

// parse runs the full text-to-chart pipeline: split, morphologize,
// optionally coalesce dictionary phrases, then recognize.
func (p *Parser) parse(ctx context.Context, text string) (*earley.Chart, []token.Morph, error) {
	raw, err := p.tokenizer.Split(text)
	if err != nil {
		return nil, nil, err
	}
	morphs := tokenize.Morphologize(raw, p.analyzer)
	if p.pipeline != nil {
		morphs = p.pipeline.Coalesce(morphs)
	}
	chart, err := p.chartParser.Parse(ctx, morphs)
	if err != nil {
		return chart, morphs, err
	}
	return chart, morphs, nil
}

// candidates enumerates every CFG derivation spanning a full completion of
// the start symbol and drops those whose relation bindings are jointly
// unsatisfiable (spec §2/§4.5: agreement gates the set of parse trees the
// resolver sees, not just a match's lazily-interpreted fact). A failure to
// reduce to a value (an interpretation *type* error, spec §7) is a
// different kind of failure and is left for Match.Fact to raise lazily;
// only relation disagreement excludes a derivation here.
func (p *Parser) candidates(chart *earley.Chart) []resolve.Candidate {
	start := chart.Grammar.Start()
	var cands []resolve.Candidate
	for _, c := range chart.Completions(start.ID) {
		for _, n := range tree.Candidates(chart, c) {
			if !relationSatisfiable(chart, n) {
				continue
			}
			cands = append(cands, resolve.NewCandidate(chart, n))
		}
	}
	return cands
}

func relationSatisfiable(chart *earley.Chart, n *tree.Node) bool {
	_, ok, err := tree.Interpret(chart, n)
	if err != nil {
		return true
	}
	return ok
}

func toMatch(chart *earley.Chart, c resolve.Candidate) Match {
	m := Match{chart: chart, node: c.Node}
	if toks := tree.Tokens(c.Node); len(toks) > 0 {
		m.Span = toks[0].Span.Extend(toks[len(toks)-1].Span)
	}
	return m
}

// Match yields the single best match whose span exactly covers the
// whole input, or ok=false if none does (spec §6 "match(text) yields
// matches whose span exactly covers the whole input").
func (p *Parser) Match(ctx context.Context, text string) (Match, bool, error) {
	chart, morphs, err := p.parse(ctx, text)
	if err != nil {
		return Match{}, false, err
	}
	best, ok := resolve.Best(p.candidates(chart), len(morphs))
	if !ok {
		return Match{}, false, nil
	}
	return toMatch(chart, best), true, nil
}

// FindAll yields a maximum-coverage, non-overlapping subset of matches,
// ordered left to right (spec §6 "findall"; §5 "left-to-right span start
// for findall").
func (p *Parser) FindAll(ctx context.Context, text string) ([]Match, error) {
	chart, _, err := p.parse(ctx, text)
	if err != nil {
		return nil, err
	}
	kept := resolve.MaxCoverage(resolve.Dedup(p.candidates(chart)))
	out := make([]Match, len(kept))
	for i, c := range kept {
		out[i] = toMatch(chart, c)
	}
	return out, nil
}

// Extract yields every match without resolution — no deduplication, no
// coverage selection (spec §6 "extract(text) yields every match without
// resolution").
func (p *Parser) Extract(ctx context.Context, text string) ([]Match, error) {
	chart, _, err := p.parse(ctx, text)
	if err != nil {
		return nil, err
	}
	cands := p.candidates(chart)
	out := make([]Match, len(cands))
	for i, c := range cands {
		out[i] = toMatch(chart, c)
	}
	return out, nil
}


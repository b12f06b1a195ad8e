package earley

import (
	"context"
	"fmt"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"

	"github.com/rugram/yargo/bnf"
	"github.com/rugram/yargo/predicate"
	"github.com/rugram/yargo/token"
)

// tracer traces with key 'yargo.earley'.
func tracer() tracing.Trace {
	if t := tracing.Select("yargo.earley"); t != nil {
		return t
	}
	return gtrace.SyntaxTracer
}

// Chart is the completed result of recognizing a token stream against a
// grammar: one Column per input position (len(tokens)+1 columns).
type Chart struct {
	Grammar *bnf.Grammar
	Tokens  []token.Morph
	Columns []*Column
}

// Completion is a fully matched instance of a non-terminal spanning
// [Start, End) of the token stream.
type Completion struct {
	NT    int
	Prod  int
	Start int
	End   int
}

// Completions returns every completed production of non-terminal nt,
// across every column, in column order.
func (c *Chart) Completions(nt int) []Completion {
	var out []Completion
	rules := c.Grammar.Rules[nt]
	for end, col := range c.Columns {
		for _, it := range col.Items() {
			if it.NT != nt {
				continue
			}
			if it.Dot != len(rules.Productions[it.Prod].Terms) {
				continue
			}
			out = append(out, Completion{NT: nt, Prod: it.Prod, Start: it.Origin, End: end})
		}
	}
	return out
}

// Parser recognizes token streams against a fixed grammar (spec §4.4).
// Grounded on the teacher's lr/earley/earley.go predict/scan/complete
// loop, generalized from LR tables to a bnf.Grammar and simplified by
// dropping shared-forest construction (see package doc comment).
//
// Parser holds only the immutable grammar and allocates a fresh Chart
// on every Parse call, so one Parser is safe to drive from multiple
// goroutines concurrently without a mutex (spec §5's stated
// alternative to serialising parse() with a lock).
type Parser struct {
	grammar *bnf.Grammar
}

// NewParser builds a Parser for g. g is assumed already validated by
// package normalize (relation arity, grammeme vocabulary, etc).
func NewParser(g *bnf.Grammar) *Parser {
	return &Parser{grammar: g}
}

// Parse recognizes tokens against the parser's grammar, returning the
// full chart. Absent cancellation it always succeeds (the chart records
// what matched where); callers query Chart.Completions to find
// start-symbol matches, or any named rule's matches for partial/
// sub-grammar probing.
//
// ctx is checked once per column (spec §5 "a cancellation token checked
// between columns"); on cancellation Parse returns the chart built so
// far alongside ctx.Err(), rather than discarding the partial work.
func (p *Parser) Parse(ctx context.Context, tokens []token.Morph) (*Chart, error) {
	n := len(tokens)
	tracer().Debugf("earley: parsing %d tokens against %d rules", n, len(p.grammar.Rules))
	chart := &Chart{Grammar: p.grammar, Tokens: tokens, Columns: make([]*Column, n+1)}
	for i := range chart.Columns {
		chart.Columns[i] = newColumn()
	}

	// Seed every non-terminal as a potential start symbol at every
	// origin: spec's match/findall operate over substrings, not just a
	// whole-string anchor, so every column predicts the grammar's own
	// start rule (and any rule reachable from it) beginning there.
	for origin := 0; origin <= n; origin++ {
		p.predictStart(chart, origin)
	}

	for i := 0; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return chart, err
		}
		col := chart.Columns[i]
		pending := map[int]bool{}
		for idx := 0; idx < len(col.items); idx++ {
			it := col.items[idx]
			nt := p.grammar.Rules[it.NT]
			prod := nt.Productions[it.Prod]
			if it.Dot == len(prod.Terms) {
				p.complete(chart, i, it)
				continue
			}
			term := prod.Terms[it.Dot]
			if term.Pred != nil {
				continue // scanned in the dedicated scan pass below
			}
			target := p.grammar.Rules[term.NT]
			if target.Pipeline != nil {
				pending[term.NT] = true
				continue
			}
			p.predict(chart, i, term.NT)
		}
		if i == n {
			break
		}
		tok := tokens[i]
		for idx := 0; idx < len(col.items); idx++ {
			it := col.items[idx]
			nt := p.grammar.Rules[it.NT]
			prod := nt.Productions[it.Prod]
			if it.Dot == len(prod.Terms) {
				continue
			}
			term := prod.Terms[it.Dot]
			if term.Pred == nil {
				continue
			}
			p.scan(chart, i, it, term.Pred, tok)
		}
		for id, nt := range p.grammar.Rules {
			if nt.Pipeline != nil {
				pending[id] = true // any rule may anchor a match here, see predictStart
			}
		}
		for ntID := range pending {
			p.scanPipeline(chart, i, ntID, tok)
		}
	}
	return chart, nil
}

// predictStart seeds every non-terminal of the grammar as a start item
// at origin: spec's substring matching means any rule (not only the
// grammar's rule 0) can anchor a match attempt beginning at any column.
func (p *Parser) predictStart(chart *Chart, origin int) {
	for id, nt := range p.grammar.Rules {
		if nt.Pipeline != nil {
			continue // scanned at every column by scanPipeline against the lookahead
		}
		for prodIdx := range nt.Productions {
			chart.Columns[origin].add(Item{NT: id, Prod: prodIdx, Dot: 0, Origin: origin}, nil)
		}
	}
}

// predict adds every production of non-terminal ntID as a fresh item
// starting at column i (spec §4.4 "predict").
func (p *Parser) predict(chart *Chart, i, ntID int) {
	nt := p.grammar.Rules[ntID]
	for prodIdx := range nt.Productions {
		chart.Columns[i].add(Item{NT: ntID, Prod: prodIdx, Dot: 0, Origin: i}, nil)
	}
}

// scan advances it by one position if term matches tok, depositing the
// advanced item in column i+1 (spec §4.4 "scan"). The token recorded in
// the Cause already carries term's narrowed form list (spec's predicate
// narrowing), not the raw token.
func (p *Parser) scan(chart *Chart, i int, it Item, pred predicate.Predicate, tok token.Morph) {
	if !pred.Test(tok) {
		return
	}
	narrowed := pred.Constrain(tok)
	next := Item{NT: it.NT, Prod: it.Prod, Dot: it.Dot + 1, Origin: it.Origin}
	chart.Columns[i+1].add(next, &Cause{Kind: CauseScan, Tok: narrowed})
}

// scanPipeline resolves a dictionary non-terminal's predictive index
// against the lookahead token directly, skipping the O(entries) scan a
// naive predict+scan would otherwise perform (spec §4.3).
func (p *Parser) scanPipeline(chart *Chart, i, ntID int, tok token.Morph) {
	nt := p.grammar.Rules[ntID]
	seen := map[int]bool{}
	for _, key := range nt.Pipeline.KeysForToken(tok) {
		for _, prodIdx := range nt.Pipeline.Predict(key) {
			if seen[prodIdx] {
				continue
			}
			seen[prodIdx] = true
			prod := nt.Productions[prodIdx]
			term := prod.Terms[0]
			if term.Pred == nil || !term.Pred.Test(tok) {
				continue
			}
			narrowed := term.Pred.Constrain(tok)
			next := Item{NT: ntID, Prod: prodIdx, Dot: 1, Origin: i}
			chart.Columns[i+1].add(next, &Cause{Kind: CauseScan, Tok: narrowed})
		}
	}
}

// complete propagates a finished item back into every predecessor in its
// origin column whose dot stands before a reference to it.NT (spec §4.4
// "complete"), depositing each advanced predecessor in column i. Nested
// matches starting at any column are still found because predictStart
// seeds every rule at every origin.
func (p *Parser) complete(chart *Chart, i int, it Item) {
	origin := chart.Columns[it.Origin]
	for _, pred := range origin.Items() {
		ntDef := p.grammar.Rules[pred.NT]
		prod := ntDef.Productions[pred.Prod]
		if pred.Dot >= len(prod.Terms) {
			continue
		}
		term := prod.Terms[pred.Dot]
		if term.Pred != nil || term.NT != it.NT {
			continue
		}
		advanced := Item{NT: pred.NT, Prod: pred.Prod, Dot: pred.Dot + 1, Origin: pred.Origin}
		chart.Columns[i].add(advanced, &Cause{Kind: CauseComplete, Child: it})
	}
}

func (p *Parser) String() string {
	return fmt.Sprintf("earley.Parser(%d rules)", len(p.grammar.Rules))
}

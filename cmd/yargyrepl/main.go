/*
Command yargyrepl is an interactive sandbox for trying yargo grammars
against arbitrary text: type a line, see findall's resolved matches
and (where a fact schema is attached) the assembled fact.

It ships with one small demo grammar — a capitalised Russian
first+last name, mirroring spec §8's resolver-coverage scenario — and
is meant as a development aid while iterating on a real grammar, the
same role the teacher's terexlang/trepl REPL plays for TeREx
s-expressions.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2024 the yargo authors
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"

	"github.com/rugram/yargo"
	"github.com/rugram/yargo/interp"
	"github.com/rugram/yargo/predicate"
	"github.com/rugram/yargo/rule"
)

// tracer traces with key 'yargo.repl'.
func tracer() tracing.Trace {
	return tracing.Select("yargo.repl")
}

func main() {
	initDisplay()
	gtrace.SyntaxTracer = gologadapter.New()
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	flag.Parse()
	tracer().SetTraceLevel(traceLevel(*tlevel))

	p, err := yargo.NewParser(demoGrammar())
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(2)
	}

	repl, err := readline.New("yargy> ")
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(3)
	}
	defer repl.Close()

	pterm.Info.Println("yargy REPL — type text to match, Ctrl-D to quit")
	for {
		line, err := repl.Readline()
		if err != nil { // io.EOF or Ctrl-C
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runOnce(p, line)
	}
}

func runOnce(p *yargo.Parser, text string) {
	ctx := context.Background()
	matches, err := p.FindAll(ctx, text)
	if err != nil {
		pterm.Error.Println(err.Error())
		return
	}
	if len(matches) == 0 {
		pterm.Warning.Println("no matches")
		return
	}
	rows := [][]string{{"span", "fact"}}
	for _, m := range matches {
		factStr := "<no interpretation>"
		if val, err := m.Fact(); err != nil {
			factStr = fmt.Sprintf("error: %v", err)
		} else if val.Kind == interp.KindFactResult {
			factStr = fmt.Sprintf("%s(first=%v, last=%v)", val.Fact.Schema.Name, val.Fact.Get("first"), val.Fact.Get("last"))
		}
		rows = append(rows, []string{
			fmt.Sprintf("[%d,%d)", m.Start(), m.End()),
			factStr,
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData(rows)).Render(); err != nil {
		tracer().Errorf("rendering match table: %v", err)
	}
}

// demoGrammar builds spec §8 scenario 5's person-name grammar: two
// capitalised Russian words in sequence, assembled into a Name fact.
func demoGrammar() rule.Rule {
	schema := interp.NewSchema("Name", interp.Attr("first"), interp.Attr("last"))
	first := rule.Production(predicate.IsCapitalized()).Interpretation(schema.A("first").Spec())
	last := rule.Production(predicate.IsCapitalized()).Interpretation(schema.A("last").Spec())
	return rule.Production(first, last).Interpretation(schema.Interpretation())
}

func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{Text: "  >>", Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack)}
	pterm.Error.Prefix = pterm.Prefix{Text: "  Error", Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack)}
}

func traceLevel(s string) tracing.TraceLevel {
	return tracing.TraceLevelFromString(s)
}

/*
Package earley implements the Earley chart recognizer of spec §4.4: a
column per input token, predict/scan/complete operating over a
bnf.Grammar, and enough backlink bookkeeping (per teacher's
lr/earley/earley.go "backlinks" map) for package tree to reconstruct
candidate parses afterwards.

Unlike the teacher, this recognizer does not also build a shared-packed
parse forest (lr/sppf): instead each completed item records its
alternative Causes (one entry per distinct way that production's last
term was satisfied), exactly the information the teacher's backlinks map
holds, just keyed to support more than one alternative per item. Package
tree walks that structure to enumerate candidate derivations, which keeps
relation-graph agreement checking (spec §4.5) entirely out of the
recognizer: whether tokens actually agree is a property of one concrete
derivation, not of the grammar's recognition step.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2024 the yargo authors
*/
package earley

import (
	"github.com/cnf/structhash"

	"github.com/rugram/yargo/token"
)

// Item is an Earley item (spec §4.4): a dotted production instance.
// [NT -> Prod, Dot] with the column it started predicting from.
type Item struct {
	NT     int
	Prod   int
	Dot    int
	Origin int
}

func (it Item) key() string {
	h, err := structhash.Hash(it, 1)
	if err != nil {
		panic(err) // structhash only fails on unhashable types; Item has none
	}
	return h
}

// CauseKind discriminates how an item's last consumed term was derived.
type CauseKind int

const (
	// CauseScan: the term was a terminal predicate matched against Tok.
	CauseScan CauseKind = iota
	// CauseComplete: the term was a non-terminal whose Child item
	// completed (spec's "complete" step).
	CauseComplete
)

// Cause records one way an item's dot advanced by one position.
type Cause struct {
	Kind  CauseKind
	Tok   token.Morph // valid when Kind == CauseScan
	Child Item        // valid when Kind == CauseComplete
}

// Column is one Earley set Si (spec §4.4): every item predicted, scanned
// or completed while processing the i-th input position, plus the
// causes recorded for each item reached by advancing a dot.
//
// Iteration is a plain growable slice rather than a dedicated
// destructive-set type: Go's slice semantics already let a for-loop
// observe items appended mid-iteration (len(items) re-read each
// iteration), which is exactly the work-queue behaviour the teacher's
// iteratable.Set provides; a bespoke Set type would buy nothing here,
// since this package needs no union/subset/copy operations on it.
type Column struct {
	items  []Item
	index  map[string]int
	causes map[string][]Cause
}

func newColumn() *Column {
	return &Column{index: map[string]int{}, causes: map[string][]Cause{}}
}

// add inserts it if not already present, and always appends cause (when
// non-nil) to its cause list, recording one more alternative derivation.
func (c *Column) add(it Item, cause *Cause) bool {
	k := it.key()
	_, existed := c.index[k]
	if !existed {
		c.index[k] = len(c.items)
		c.items = append(c.items, it)
	}
	if cause != nil {
		c.causes[k] = append(c.causes[k], *cause)
	}
	return !existed
}

// CausesFor returns the alternative derivations recorded for it in this
// column, or nil if it was never advanced here (e.g. a dot==0 start
// item, for which there is nothing to recurse into).
func (c *Column) CausesFor(it Item) []Cause {
	return c.causes[it.key()]
}

// Items returns every item recorded in this column, in discovery order.
func (c *Column) Items() []Item {
	return c.items
}

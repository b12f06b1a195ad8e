/*
Package yargo is a rule-based information-extraction engine for Russian
text: a grammar construction algebra (package rule), a normalisation
pipeline into flat BNF (package normalize/bnf), an Earley chart parser
(package earley), relation-checked parse-tree interpretation into typed
facts (package tree/interp/relation), and a match resolver (package
resolve). Package structure is as follows:

■ token: the token, span and morphological-form types shared by every
other package.

■ predicate: decidable boolean tests over a single token, the terminals
of a yargo grammar.

■ relation: cross-token morphological agreement constraints and the
relation-graph snapshot the interpreter narrows per candidate derivation.

■ rule: the grammar construction algebra — the open sum type a caller
builds a grammar out of before normalisation.

■ normalize: rewrites a rule graph into the flat BNF package bnf
consumes.

■ bnf: the flat grammar representation, plus the predictive index for
dictionary ("pipeline") non-terminals.

■ earley: the chart parser recognizing token streams against a
bnf.Grammar.

■ tree: reconstructs and relation-checks candidate parse derivations
from a chart, reducing each into an interp.Value.

■ interp: the fact-schema and value-reduction algebra package tree
drives.

■ resolve: the match resolver — deduplication and maximum-coverage
selection among candidate matches.

■ morph: the morphological analyser adapter.

■ tokenize: the categorizing tokeniser and the pre-parser dictionary
pipeline.

The base package (this one) ties all of the above together behind
Parser, the public entry point.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2024 the yargo authors

*/
package yargo

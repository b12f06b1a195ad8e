package yargo

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"

	"github.com/rugram/yargo/bnf"
	"github.com/rugram/yargo/morph"
	"github.com/rugram/yargo/tokenize"
)

// Config holds engine-wide tuning knobs (spec §5 "shared resources";
// SPEC_FULL "Configuration"). Grammars are never file-configured — they
// are built in code via the rule algebra — only the morphology cache
// size and the pipeline case-folding locale are.
//
// The zero value is a valid, fully-functional default: every field has
// a defined fallback applied by FillDefaults.
type Config struct {
	// MorphCacheSize bounds the morphology adapter's LRU (spec §5
	// "eviction is size-bounded, default 100 000 entries"). Zero means
	// morph.DefaultCacheSize.
	MorphCacheSize int `toml:"morph_cache_size"`

	// PipelineLocale selects the case-folding locale used by the
	// case-folded Pipeline variant (SPEC_FULL "Case folding"). Empty
	// means the library default (locale-independent Unicode folding).
	PipelineLocale string `toml:"pipeline_locale"`

	// DefaultTokenTypes lists token type names (as tokenize.CheckType
	// spells them); Validate rejects any name that is not a known token
	// type. A Parser does not otherwise use the list: the tokeniser
	// always emits its full default set of token types.
	DefaultTokenTypes []string `toml:"default_token_types"`
}

// FillDefaults returns a copy of c with every zero-valued field replaced
// by its default, following the teacher corpus's
// dekarrin-tunaq/server/config.go pattern of a side-effect-free
// defaulting method rather than mutating in place.
func (c Config) FillDefaults() Config {
	fc := c
	if fc.MorphCacheSize <= 0 {
		fc.MorphCacheSize = morph.DefaultCacheSize
	}
	return fc
}

// Validate reports whether c is well-formed. It does not apply
// defaults first; call FillDefaults().Validate() to validate the
// config a Parser will actually run with.
func (c Config) Validate() error {
	if c.MorphCacheSize < 0 {
		return fmt.Errorf("yargo: negative morph cache size %d", c.MorphCacheSize)
	}
	for _, tag := range c.DefaultTokenTypes {
		if err := tokenize.CheckType(tag); err != nil {
			return err
		}
	}
	if _, err := c.locale(); err != nil {
		return err
	}
	return nil
}

func (c Config) locale() (language.Tag, error) {
	if c.PipelineLocale == "" {
		return language.Und, nil
	}
	tag, err := language.Parse(c.PipelineLocale)
	if err != nil {
		return language.Und, fmt.Errorf("yargo: invalid pipeline_locale %q: %w", c.PipelineLocale, err)
	}
	return tag, nil
}

// applyCaseFoldLocale pushes c.PipelineLocale into both halves of the
// pipeline mechanism (bnf.PipelineIndex's grammar-side matching and
// tokenize.Pipeline's tokeniser-side coalescing).
func (c Config) applyCaseFoldLocale() error {
	tag, err := c.locale()
	if err != nil {
		return err
	}
	bnf.SetCaseFoldLocale(tag)
	tokenize.SetCaseFoldLocale(tag)
	return nil
}

// LoadConfig reads and decodes a Config from a TOML file at path,
// following the teacher corpus's dekarrin-tunaq plain-struct-decode
// pattern (github.com/BurntSushi/toml). A missing file is not an
// error: the zero Config is returned, since Config{} is already a
// valid default.
func LoadConfig(path string) (Config, error) {
	var c Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return c, fmt.Errorf("yargo: reading config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("yargo: decoding config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

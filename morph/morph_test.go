package morph

import "testing"

// fakeBackend is a tiny in-memory dictionary so tests never touch the
// real embedded gomorphy data.
type fakeBackend struct {
	tag   map[string]string
	forms map[string][]string
}

func (f fakeBackend) Tag(word string) string { return f.tag[word] }

func (f fakeBackend) WordForms(word string) []string {
	if forms, ok := f.forms[word]; ok {
		return forms
	}
	return nil
}

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	backend := fakeBackend{
		tag: map[string]string{
			"стол":   "NOUN,masc,sing,nomn",
			"стола":  "NOUN,masc,sing,gent",
			"столом": "NOUN,masc,sing,ablt",
		},
		forms: map[string][]string{
			"стол":   {"стол", "стола", "столом"},
			"стола":  {"стол", "стола", "столом"},
			"столом": {"стол", "стола", "столом"},
		},
	}
	a, err := New(backend, 16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestParseKnownWordReturnsLemmaAndGrams(t *testing.T) {
	a := newTestAnalyzer(t)
	forms := a.Parse("стола")
	if len(forms) != 1 {
		t.Fatalf("expected a single form, got %d", len(forms))
	}
	if forms[0].Lemma != "стол" {
		t.Errorf("expected lemma %q, got %q", "стол", forms[0].Lemma)
	}
	if !forms[0].HasGram("gent") {
		t.Errorf("expected the gent grammeme, got %v", forms[0].Grams)
	}
}

func TestParseUnknownWordYieldsSyntheticForm(t *testing.T) {
	a := newTestAnalyzer(t)
	forms := a.Parse("кгхзш")
	if len(forms) != 1 {
		t.Fatalf("expected a single synthetic form, got %d", len(forms))
	}
	if forms[0].Lemma != "кгхзш" || len(forms[0].Grams) != 0 {
		t.Errorf("expected an empty-grams form keyed on the surface, got %+v", forms[0])
	}
}

func TestParseIsCaseAndWhitespaceInsensitive(t *testing.T) {
	a := newTestAnalyzer(t)
	forms := a.Parse("  СТОЛА  ")
	if len(forms) != 1 || forms[0].Lemma != "стол" {
		t.Fatalf("expected case/whitespace-normalized lookup, got %+v", forms)
	}
}

func TestParseCachesAcrossCalls(t *testing.T) {
	a := newTestAnalyzer(t)
	first := a.Parse("стола")
	second := a.Parse("стола")
	if len(first) != len(second) {
		t.Fatalf("expected identical results from cache, got %v and %v", first, second)
	}
}

func TestParseResultsAreIndependentCopies(t *testing.T) {
	a := newTestAnalyzer(t)
	first := a.Parse("стола")
	first[0].Grams["mutated"] = struct{}{}

	second := a.Parse("стола")
	if second[0].HasGram("mutated") {
		t.Fatalf("mutating one Parse result must not leak into a later call")
	}
}

func TestInflectProducesTargetForm(t *testing.T) {
	a := newTestAnalyzer(t)
	forms := a.Parse("стол")
	got, ok := forms[0].Inflect(map[string]struct{}{"ablt": {}})
	if !ok || got != "столом" {
		t.Fatalf("expected inflection to 'столом', got %q, %v", got, ok)
	}
}

func TestNormalizedReturnsLemmaSet(t *testing.T) {
	a := newTestAnalyzer(t)
	lemmas := a.Normalized("столом")
	if _, ok := lemmas["стол"]; !ok || len(lemmas) != 1 {
		t.Fatalf("expected exactly the lemma 'стол', got %v", lemmas)
	}
}

func TestCheckGramKnownAndUnknown(t *testing.T) {
	if !CheckGram("NOUN") {
		t.Errorf("expected NOUN to be a known grammeme")
	}
	if CheckGram("NUON") {
		t.Errorf("expected a typo'd grammeme to be rejected")
	}
}

package ngram

import (
	"testing"
)

// testCorpus is the small reference corpus used across the package tests.
// With the default tokenizer it yields the vocabulary the=0, cat=1, sat=2,
// dog=3 and, at order 2, the table:
//
//	context(the) -> {cat:1, dog:1}
//	context(cat) -> {sat:1}
//	context(dog) -> {sat:1}
var testCorpus = []string{"the cat sat", "the dog sat"}

// setupTestEncoder creates a default-tokenizer encoder plus the vocabulary
// built from testCorpus.
func setupTestEncoder(t *testing.T) (*Encoder, *Vocabulary) {
	t.Helper()
	enc := NewEncoder(NewDefaultTokenizer())
	return enc, enc.Build(testCorpus)
}

// setupTestStaging creates a staging area in a per-test temp directory.
func setupTestStaging(t *testing.T) *Staging {
	t.Helper()
	staging, err := NewStaging(t.TempDir())
	if err != nil {
		t.Fatalf("NewStaging() error = %v", err)
	}
	return staging
}

// mustEncode encodes a document, failing the test on error.
func mustEncode(t *testing.T, enc *Encoder, vocab *Vocabulary, doc string) []int {
	t.Helper()
	sequence, err := enc.Encode(doc, vocab)
	if err != nil {
		t.Fatalf("Encode(%q) error = %v", doc, err)
	}
	return sequence
}

// corpusTable trains one table over the whole testCorpus in a single pass.
func corpusTable(t *testing.T, order int) *Table {
	t.Helper()
	enc, vocab := setupTestEncoder(t)
	table := NewTable(order)
	for _, doc := range testCorpus {
		table.Train(mustEncode(t, enc, vocab, doc))
	}
	return table
}

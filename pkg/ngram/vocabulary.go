package ngram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/natefinch/atomic"
)

// Vocabulary is a bijective token <-> id mapping. Ids are dense and assigned
// in first-occurrence order starting at 0, so rebuilding from the identical
// corpus in the identical document order yields identical assignments. Once
// built or loaded a Vocabulary is read-only and may be shared across all
// orders and all shard tasks without locking.
type Vocabulary struct {
	ids    map[string]int
	tokens []string
}

// NewVocabulary creates an empty vocabulary.
func NewVocabulary() *Vocabulary {
	return &Vocabulary{ids: make(map[string]int)}
}

func (v *Vocabulary) add(token string) int {
	if id, ok := v.ids[token]; ok {
		return id
	}
	id := len(v.tokens)
	v.ids[token] = id
	v.tokens = append(v.tokens, token)
	return id
}

// Len returns the number of distinct tokens.
func (v *Vocabulary) Len() int {
	return len(v.tokens)
}

// ID looks up a token and returns its id, or false if the token is unknown.
func (v *Vocabulary) ID(token string) (int, bool) {
	id, ok := v.ids[token]
	return id, ok
}

// Token looks up an id and returns its token text.
// It returns an error if the id is out of range.
func (v *Vocabulary) Token(id int) (string, error) {
	if id < 0 || id >= len(v.tokens) {
		return "", fmt.Errorf("token id %d out of range [0,%d)", id, len(v.tokens))
	}
	return v.tokens[id], nil
}

// Equal reports whether two vocabularies hold the identical mapping.
func (v *Vocabulary) Equal(other *Vocabulary) bool {
	if len(v.tokens) != len(other.tokens) {
		return false
	}
	for id, token := range v.tokens {
		if other.tokens[id] != token {
			return false
		}
	}
	return true
}

// exportedVocabulary is the serialized representation: token texts in id
// order, which reproduces the exact mapping on import.
type exportedVocabulary struct {
	Tokens []string `json:"tokens"`
}

// Export writes the vocabulary as JSON to the provided io.Writer.
func (v *Vocabulary) Export(w io.Writer) error {
	return json.NewEncoder(w).Encode(exportedVocabulary{Tokens: v.tokens})
}

// ImportVocabulary reads a JSON vocabulary representation from an io.Reader.
func ImportVocabulary(r io.Reader) (*Vocabulary, error) {
	var exported exportedVocabulary
	if err := json.NewDecoder(r).Decode(&exported); err != nil {
		return nil, fmt.Errorf("failed to decode json vocabulary: %w", err)
	}
	v := NewVocabulary()
	for _, token := range exported.Tokens {
		if _, ok := v.ids[token]; ok {
			return nil, fmt.Errorf("consistency error: token %q appears twice in vocabulary", token)
		}
		v.add(token)
	}
	return v, nil
}

// Save persists the vocabulary to path. The write is atomic so a crash never
// leaves a truncated artifact behind.
func (v *Vocabulary) Save(path string) error {
	var buf bytes.Buffer
	if err := v.Export(&buf); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("could not write vocabulary to %s: %w", path, err)
	}
	return nil
}

// LoadVocabulary loads a vocabulary persisted by Save. Load and Save are
// round-trip exact: the reloaded vocabulary reproduces the same mapping.
func LoadVocabulary(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open vocabulary %s: %w", path, err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	v, err := ImportVocabulary(f)
	if err != nil {
		return nil, fmt.Errorf("vocabulary %s: %w", path, err)
	}
	return v, nil
}

// Encoder turns raw documents into integer sequences through a Tokenizer and
// a Vocabulary.
type Encoder struct {
	tokenizer Tokenizer
}

// NewEncoder creates an Encoder using the given tokenization rule.
func NewEncoder(tokenizer Tokenizer) *Encoder {
	return &Encoder{tokenizer: tokenizer}
}

// Build tokenizes every document and assigns a new id to each first-seen
// token. Deterministic for a fixed corpus and fixed document order.
func (e *Encoder) Build(docs []string) *Vocabulary {
	v := NewVocabulary()
	for _, doc := range docs {
		for _, token := range e.tokenizer.Split(doc) {
			v.add(token)
		}
	}
	return v
}

// Encode tokenizes a document identically to Build and maps each token to
// its vocabulary id. A token absent from the vocabulary is an error wrapping
// ErrUnknownToken.
func (e *Encoder) Encode(doc string, v *Vocabulary) ([]int, error) {
	tokens := e.tokenizer.Split(doc)
	sequence := make([]int, 0, len(tokens))
	for _, token := range tokens {
		id, ok := v.ids[token]
		if !ok {
			return nil, fmt.Errorf("token %q: %w", token, ErrUnknownToken)
		}
		sequence = append(sequence, id)
	}
	return sequence, nil
}

// LoadOrBuildVocabulary loads the vocabulary persisted at path if one exists,
// guaranteeing stable ids across runs. Otherwise it builds the vocabulary
// from docs and persists it to path. The returned bool reports whether the
// vocabulary was built rather than loaded.
func (e *Encoder) LoadOrBuildVocabulary(path string, docs []string) (*Vocabulary, bool, error) {
	if _, err := os.Stat(path); err == nil {
		v, err := LoadVocabulary(path)
		if err != nil {
			return nil, false, err
		}
		return v, false, nil
	} else if !os.IsNotExist(err) {
		return nil, false, fmt.Errorf("could not stat vocabulary %s: %w", path, err)
	}

	v := e.Build(docs)
	if err := v.Save(path); err != nil {
		return nil, false, err
	}
	return v, true, nil
}

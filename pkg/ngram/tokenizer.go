package ngram

import (
	"regexp"
	"strings"
)

// Tokenizer is an interface that defines the contract for splitting a
// document into tokens. This keeps the counting pipeline independent of the
// specific tokenization strategy. Implementations must be safe for concurrent
// use; a single Tokenizer is shared by every shard task of a run.
type Tokenizer interface {
	// Split returns the tokens of a document in document order.
	Split(document string) []string
}

// DefaultTokenizer is a default implementation of the Tokenizer interface.
// It splits on a configurable regular expression, matching whitespace-separated
// words by default. Its behavior can be customized with functional options.
type DefaultTokenizer struct {
	splitRegex *regexp.Regexp
	lowercase  bool
}

// Option Is a function that configures a DefaultTokenizer.
type Option func(*DefaultTokenizer)

// WithSplitRegex sets the regex string used to extract tokens from a document.
// Default: `\S+`
func WithSplitRegex(splitRegex string) Option {
	return func(t *DefaultTokenizer) {
		t.splitRegex = regexp.MustCompile(splitRegex)
	}
}

// WithLowercase makes the tokenizer fold every document to lower case before
// splitting, so "The" and "the" share one vocabulary id.
func WithLowercase() Option {
	return func(t *DefaultTokenizer) {
		t.lowercase = true
	}
}

// NewDefaultTokenizer creates a new tokenizer with default settings, which can
// be overridden by providing one or more Option functions.
func NewDefaultTokenizer(opts ...Option) *DefaultTokenizer {
	t := &DefaultTokenizer{
		// Any run of non-whitespace characters is one token.
		splitRegex: regexp.MustCompile(`\S+`),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Split Returns the tokens of a document in document order.
func (t *DefaultTokenizer) Split(document string) []string {
	if t.lowercase {
		document = strings.ToLower(document)
	}
	return t.splitRegex.FindAllString(document, -1)
}

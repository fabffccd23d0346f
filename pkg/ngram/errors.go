package ngram

import "errors"

var (
	// ErrUnknownToken is returned when encoding meets a token absent from the
	// vocabulary. Encoding always runs against a vocabulary built from, or
	// persisted for, the same corpus, so an unknown token indicates a stale
	// vocabulary artifact rather than ordinary input.
	ErrUnknownToken = errors.New("token not in vocabulary")

	// ErrOrderMismatch is returned when two tables of different orders are
	// merged, or when a staged partial does not match the order under reduction.
	ErrOrderMismatch = errors.New("table order mismatch")
)

package ngram

import (
	"context"
	"errors"
	"testing"
)

// shardingCorpus is a slightly larger corpus for partition tests.
var shardingCorpus = []string{
	"the cat sat",
	"the dog sat",
	"the cat sat the dog",
	"dog the cat",
	"sat sat sat",
	"the",
}

func trainPartition(t *testing.T, enc *Encoder, vocab *Vocabulary, docs []string, order int, cuts []int) []*Table {
	t.Helper()
	var tables []*Table
	prev := 0
	for _, cut := range append(cuts, len(docs)) {
		table := NewTable(order)
		for _, doc := range docs[prev:cut] {
			table.Train(mustEncode(t, enc, vocab, doc))
		}
		tables = append(tables, table)
		prev = cut
	}
	return tables
}

func TestShardingInvariance(t *testing.T) {
	enc := NewEncoder(NewDefaultTokenizer())
	vocab := enc.Build(shardingCorpus)

	for _, order := range []int{1, 2, 3} {
		onePass := NewTable(order)
		for _, doc := range shardingCorpus {
			onePass.Train(mustEncode(t, enc, vocab, doc))
		}

		partitions := [][]int{
			{},              // single shard
			{3},             // two halves
			{1, 2, 3, 4, 5}, // one shard per document
			{2, 4},          // uneven thirds
		}
		for _, cuts := range partitions {
			tables := trainPartition(t, enc, vocab, shardingCorpus, order, cuts)

			// Fold in reverse order to also vary the merge order.
			merged := tables[len(tables)-1]
			for i := len(tables) - 2; i >= 0; i-- {
				var err error
				if merged, err = Merge(merged, tables[i]); err != nil {
					t.Fatalf("Merge() error = %v", err)
				}
			}
			if !merged.Equal(onePass) {
				t.Errorf("order %d, cuts %v: merged partition differs from one-pass training", order, cuts)
			}
		}
	}
}

func TestReduce(t *testing.T) {
	enc := NewEncoder(NewDefaultTokenizer())
	vocab := enc.Build(shardingCorpus)
	staging := setupTestStaging(t)

	onePass := NewTable(2)
	for _, doc := range shardingCorpus {
		onePass.Train(mustEncode(t, enc, vocab, doc))
		shard := NewTable(2)
		shard.Train(mustEncode(t, enc, vocab, doc))
		if _, err := staging.Put(shard); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}

	// Six partials: the tree reduction has an odd leftover in round two.
	final, err := Reduce(context.Background(), staging, 2)
	if err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}
	if !final.Equal(onePass) {
		t.Error("tree reduction differs from one-pass training")
	}

	paths, err := staging.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("expected consumed partials to be deleted, %d remain", len(paths))
	}
}

func TestReduceSinglePartial(t *testing.T) {
	staging := setupTestStaging(t)
	table := corpusTable(t, 2)
	if _, err := staging.Put(table); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	final, err := Reduce(context.Background(), staging, 2)
	if err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}
	if !final.Equal(table) {
		t.Error("reducing a single partial should reproduce it exactly")
	}
}

func TestReduceEmptyStaging(t *testing.T) {
	staging := setupTestStaging(t)

	if _, err := Reduce(context.Background(), staging, 2); err == nil {
		t.Error("Reduce() with no staged partials expected an error")
	}
}

func TestReduceOrderMismatch(t *testing.T) {
	staging := setupTestStaging(t)
	if _, err := staging.Put(corpusTable(t, 2)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := staging.Put(corpusTable(t, 3)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if _, err := Reduce(context.Background(), staging, 2); !errors.Is(err, ErrOrderMismatch) {
		t.Errorf("Reduce() error = %v, want ErrOrderMismatch", err)
	}
}

/*
Package ngram builds n-th order frequency (Markov chain) language models from
a text corpus. For each order n it counts, for every (n-1)-token context
observed in the corpus, how often each token follows.

The package is organised around a counting-and-merging pipeline: an Encoder
turns documents into integer sequences through a stable Vocabulary, shard
tasks fold sequences into partial Tables, and a tree reduction merges the
staged partials into one final table per order. Merging is associative and
commutative, so the final model is identical no matter how the corpus was
sharded or in which order the partials were combined. Shard tasks can run
sequentially, on a bounded local worker pool, or on a remote worker fleet.
*/
package ngram

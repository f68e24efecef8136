// Package classify assigns a corpus category to a customer request using a
// chat completion model.
//
// The model is shown the categories (and their subcategories) present in the
// loaded corpus and asked for a JSON object naming one of them. Replies that
// cannot be parsed, or that name a category outside the corpus, fall back to
// FallbackCategory. Rate-limit errors from the provider are returned to the
// caller unchanged so they can be surfaced with their attempt count.
//
// Results are cached by the fingerprint of the lowercased, trimmed request in
// a bounded FIFO cache.
package classify

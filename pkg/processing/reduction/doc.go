// Package reduction shrinks a collection to fit a token budget.
//
// Two policies are provided. The priority policy sorts elements by a
// caller-supplied score and accepts them greedily until the next one would
// exceed the budget. The stepped policy keeps a prefix of the collection in
// original order, trying progressively smaller retention percentages
// (100, 75, 50, 25, 10 by default) until one fits.
//
// Both policies always return at least one element for non-empty input.
// When nothing fits, the single best element is forced through and the
// result is marked truncated. Reduction is pure: the same input, costs and
// budget always produce the same result.
package reduction

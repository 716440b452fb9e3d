// Package insights selects the supplementary notes and follow-up actions
// attached to a shaped response.
//
// Templates inspect the outcome of a build (the result, whether it was
// truncated, whether it was offloaded) and propose insights and actions.
// The Selector ranks the proposals by importance and keeps as many as fit
// the insight share of the token budget, bounded by the configured counts.
package insights

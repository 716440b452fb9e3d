// Package response builds token-budget-aware tool responses.
//
// A Builder runs a tool, measures the result with the token estimator and
// shapes it to fit the caller's budget:
//
//	lookup -> compute -> estimate -> format             (fits)
//	                              -> reduce -> format   (fits after reduction)
//	                              -> reduce -> offload  (still too large)
//
// Identical requests are answered from the cache. The fingerprint covers
// the tool name, parameters, budget and rendering environment. Collections
// in the result, either the result itself or top-level fields holding
// arrays, are reduced most expensive first. A result that still does not
// fit is persisted to the offload store and replaced by a preview and a
// resource handle. Every response carries Meta describing which path
// produced it.
//
// Errors returned by the tool are passed through unchanged; offload and
// rendering failures degrade the response instead of failing it.
package response

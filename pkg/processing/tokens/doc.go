// Package tokens estimates the serialized size of arbitrary values in
// abstract tokens.
//
// The estimate is a deterministic character heuristic, not a tokenizer:
// a string costs ceil(runes / CharsPerToken) tokens. Composite values are
// costed by a registry of strategies, each an ordered (predicate, priority,
// estimate) tuple. For every value the highest-priority strategy whose
// predicate accepts it is used:
//
//   - string (priority 300): strings, []byte and json.RawMessage
//   - collection (priority 200): slices, arrays and maps, sampled above a
//     size threshold
//   - object (priority 0): everything else, walking structs field by field
//     and marshaling leaves to JSON
//
// Large collections are not walked in full. Above SampleThreshold elements
// a fixed number of elements is drawn from equal-width buckets by a seeded
// PCG generator and the mean is scaled by the element count, so the same
// value always yields the same estimate. The scaled figure never drops
// below the exact cost of the first SampleThreshold elements plus the item
// overhead of the rest.
//
// # Usage
//
//	est := tokens.NewEstimator(&cfg.Tokens, logger)
//	cost := est.Estimate(result)
//
// Custom strategies can be registered at runtime:
//
//	est.Registry().Register(tokens.Strategy{
//		Name:      "table",
//		Priority:  400,
//		CanHandle: func(v reflect.Value) bool { return v.Type() == tableType },
//		Estimate:  estimateTable,
//	})
//
// Estimation never fails from the caller's point of view. Values that
// cannot be serialized or that contain reference cycles cost FallbackCost.
package tokens

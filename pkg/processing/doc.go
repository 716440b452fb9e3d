// Package processing groups the pure stages the response builder runs over
// a tool result.
//
// # Architecture
//
//   - tokens: deterministic token estimation with a strategy registry
//   - reduction: collection reduction policies (truncation, stepped, priority)
//   - insights: template based insights and suggested actions selected
//     within a token budget
//
// None of the stages perform I/O; they are safe for concurrent use once
// constructed.
package processing

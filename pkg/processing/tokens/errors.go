package tokens

import "errors"

var (
	// ErrCyclicStructure is recorded when a value refers back to itself.
	ErrCyclicStructure = errors.New("cyclic structure")

	// ErrEstimation is recorded when a value cannot be costed.
	ErrEstimation = errors.New("estimation failed")

	// ErrInvalidStrategy is returned by Register for incomplete strategies.
	ErrInvalidStrategy = errors.New("invalid estimation strategy")
)

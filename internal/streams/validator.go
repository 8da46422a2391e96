package streams

import (
	"fmt"
	"unicode/utf8"

	"pcgstreams/internal/errors"
)

// CheckVectors verifies that the seed and stream vectors both hold expected
// entries. The seed count is checked first; a seed mismatch is reported
// without looking at the streams. label names what is being counted, for
// example "workers" or "chains".
func CheckVectors(seedCount, streamCount, expected int, label string) error {
	if seedCount != expected {
		return errors.LengthMismatch(fmt.Sprintf("number of %s and seeds should be the same", label))
	}

	if streamCount != expected {
		return errors.LengthMismatch(fmt.Sprintf("number of %s and streams should be the same", label))
	}

	return nil
}

// CheckPlanVectors is CheckVectors over the vectors themselves.
func CheckPlanVectors[S, T any](seeds []S, streams []T, expected int, label string) error {
	return CheckVectors(len(seeds), len(streams), expected, label)
}

// MaxLabelLength matches the width of the stored label column.
const MaxLabelLength = 100

// CheckLabel rejects labels that cannot be stored with a plan.
func CheckLabel(label string) error {
	if label == "" {
		return errors.InvalidInput("label must not be empty")
	}
	if utf8.RuneCountInString(label) > MaxLabelLength {
		return errors.InvalidInput(fmt.Sprintf("label must be at most %d characters", MaxLabelLength))
	}
	return nil
}

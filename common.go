package gomatch

import "iter"

// Message represents a value with optional error and source information.
// It's used by channels to carry both successful values and error conditions.
type Message[T any] struct {
	Value  T     // The actual value being transmitted
	Error  error // Any error that occurred during processing
	Source any   // Optional source information for debugging
}

// Participants yields n consecutive participant ids starting at first.
func Participants(first ParticipantID, n int) iter.Seq[ParticipantID] {
	return func(yield func(ParticipantID) bool) {
		for i := range n {
			if !yield(first + ParticipantID(i)) {
				return
			}
		}
	}
}

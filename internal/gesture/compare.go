package gesture

import (
	"errors"
	"log"
	"math"
)

// ErrSizeMismatch is returned when two buffers of different sizes are compared.
var ErrSizeMismatch = errors.New("gesture: buffer sizes differ")

// Distance returns the mean per-sample Euclidean distance between a and b.
// No normalization of length or amplitude is applied. Two empty buffers are
// at distance 0.
func Distance(a, b *Buffer) (float64, error) {
	if a.size != b.size {
		return 0, ErrSizeMismatch
	}
	if a.size == 0 {
		return 0, nil
	}

	var sum float64
	for i := 0; i < a.size; i++ {
		dx := a.x[i] - b.x[i]
		dy := a.y[i] - b.y[i]
		dz := a.z[i] - b.z[i]
		sum += math.Sqrt(dx*dx + dy*dy + dz*dz)
	}
	return sum / float64(a.size), nil
}

// Score measures attempt against reference and decides the match. match is
// false whenever err is non-nil.
func Score(attempt, reference *Buffer, threshold float64) (distance float64, match bool, err error) {
	distance, err = Distance(attempt, reference)
	if err != nil {
		return 0, false, err
	}
	return distance, distance <= threshold, nil
}

// Compare reports whether attempt is within threshold of reference.
// Any condition that prevents scoring is a non-match.
func Compare(attempt, reference *Buffer, threshold float64) bool {
	_, match, err := Score(attempt, reference, threshold)
	if err != nil {
		log.Printf("gesture: cannot compare (attempt=%d reference=%d): %v", attempt.size, reference.size, err)
	}
	return match
}

package gesture

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantBuffer(capacity, size int, s Sample) *Buffer {
	b := NewBuffer(capacity)
	for i := 0; i < size; i++ {
		b.Set(i, s)
	}
	b.SetSize(size)
	return b
}

func rampBuffer(size int) *Buffer {
	b := NewBuffer(size)
	for i := 0; i < size; i++ {
		f := float64(i)
		b.Set(i, Sample{X: f, Y: 2 * f, Z: -f})
	}
	return b
}

func TestNewBufferStartsFull(t *testing.T) {
	b := NewBuffer(50)
	assert.Equal(t, 50, b.Capacity())
	assert.Equal(t, 50, b.Size())
	assert.Equal(t, Sample{}, b.At(49))
}

func TestClearZeroesAndResetsSize(t *testing.T) {
	b := constantBuffer(8, 3, Sample{X: 1, Y: 2, Z: 3})
	b.Clear()

	assert.Equal(t, 8, b.Size())
	for i := 0; i < b.Capacity(); i++ {
		assert.Equal(t, Sample{}, b.At(i))
	}
}

func TestSetSizeClamps(t *testing.T) {
	b := NewBuffer(10)
	b.SetSize(-3)
	assert.Equal(t, 0, b.Size())
	b.SetSize(99)
	assert.Equal(t, 10, b.Size())
}

func TestCopyFrom(t *testing.T) {
	src := rampBuffer(6)
	src.SetSize(4)
	dst := NewBuffer(6)
	dst.CopyFrom(src)

	assert.Equal(t, 4, dst.Size())
	assert.Equal(t, src.Samples(), dst.Samples())
}

func TestSmoothNoOpWhenWindowExceedsSize(t *testing.T) {
	b := rampBuffer(20)
	b.SetSize(9)
	before := b.Samples()

	b.Smooth(10)

	assert.Equal(t, 9, b.Size())
	assert.Equal(t, before, b.Samples())
}

func TestSmoothNoOpForNonPositiveWindow(t *testing.T) {
	b := rampBuffer(12)
	before := b.Samples()
	b.Smooth(0)
	b.Smooth(-4)
	assert.Equal(t, before, b.Samples())
}

func TestSmoothPreservesSize(t *testing.T) {
	b := rampBuffer(50)
	b.SetSize(37)
	b.Smooth(10)
	assert.Equal(t, 37, b.Size())
}

func TestSmoothConstantIsUnchanged(t *testing.T) {
	b := constantBuffer(50, 50, Sample{X: 1})
	b.Smooth(10)
	for i := 0; i < b.Size(); i++ {
		assert.InDelta(t, 1.0, b.At(i).X, 1e-12)
		assert.InDelta(t, 0.0, b.At(i).Y, 1e-12)
	}
}

func TestSmoothCenteredAverageOfRamp(t *testing.T) {
	const size, window = 20, 4
	b := rampBuffer(size)
	b.Smooth(window)

	half := window / 2
	// Leading slots keep their raw values.
	for i := 0; i < half; i++ {
		assert.InDelta(t, float64(i), b.At(i).X, 1e-9)
	}
	// Slot j holds the mean of raw [j+half-window+1, j+half].
	for j := half; j < size-half; j++ {
		end := j + half
		want := 0.0
		for k := end - window + 1; k <= end; k++ {
			want += float64(k)
		}
		want /= window
		assert.InDelta(t, want, b.At(j).X, 1e-9, "slot %d", j)
		assert.InDelta(t, 2*want, b.At(j).Y, 1e-9, "slot %d", j)
		assert.InDelta(t, -want, b.At(j).Z, 1e-9, "slot %d", j)
	}
	// Trailing slots repeat the final window's mean.
	last := (16.0 + 17 + 18 + 19) / 4
	for i := size - half; i < size; i++ {
		assert.InDelta(t, last, b.At(i).X, 1e-9)
	}
}

func TestSmoothWindowEqualToSize(t *testing.T) {
	b := rampBuffer(4)
	b.Smooth(4)
	assert.InDelta(t, 1.5, b.At(2).X, 1e-9)
	assert.InDelta(t, 1.5, b.At(3).X, 1e-9)
	assert.InDelta(t, 0.0, b.At(0).X, 1e-9)
}

func TestTruncate(t *testing.T) {
	b := rampBuffer(30)
	b.Truncate(10)

	require.Equal(t, 10, b.Size())
	for i := 0; i < b.Size(); i++ {
		assert.Equal(t, float64(i+10), b.At(i).X)
	}
}

func TestTruncateNoOpWhenTooShort(t *testing.T) {
	b := rampBuffer(30)
	b.SetSize(19)
	before := b.Samples()

	b.Truncate(10)

	assert.Equal(t, 19, b.Size())
	assert.Equal(t, before, b.Samples())
}

func TestTruncateExactlyTwiceWindowEmpties(t *testing.T) {
	b := rampBuffer(20)
	b.Truncate(10)
	assert.Equal(t, 0, b.Size())
}

func TestDistanceSelfIsZero(t *testing.T) {
	a := rampBuffer(25)
	d, err := Distance(a, a)
	require.NoError(t, err)
	assert.Zero(t, d)

	for _, threshold := range []float64{0, 0.5, 2, 100} {
		assert.True(t, Compare(a, a, threshold))
	}
}

func TestDistanceIsSymmetric(t *testing.T) {
	a := rampBuffer(15)
	b := constantBuffer(15, 15, Sample{X: 3, Y: -1, Z: 0.5})

	ab, err := Distance(a, b)
	require.NoError(t, err)
	ba, err := Distance(b, a)
	require.NoError(t, err)

	assert.Equal(t, ab, ba)
	for _, threshold := range []float64{0, 5, ab, 50} {
		assert.Equal(t, Compare(a, b, threshold), Compare(b, a, threshold))
	}
}

func TestDistanceMeanEuclidean(t *testing.T) {
	a := constantBuffer(4, 4, Sample{})
	b := constantBuffer(4, 4, Sample{X: 3, Y: 4})
	b.Set(3, Sample{})

	d, err := Distance(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 15.0/4, d, 1e-12)
}

func TestCompareThresholdIsInclusive(t *testing.T) {
	a := constantBuffer(5, 5, Sample{})
	b := constantBuffer(5, 5, Sample{Z: 2})

	assert.True(t, Compare(a, b, 2))
	assert.False(t, Compare(a, b, math.Nextafter(2, 0)))
}

func TestCompareSizeMismatch(t *testing.T) {
	a := constantBuffer(50, 30, Sample{X: 1})
	b := constantBuffer(50, 29, Sample{X: 1})

	_, err := Distance(a, b)
	assert.ErrorIs(t, err, ErrSizeMismatch)
	assert.False(t, Compare(a, b, math.MaxFloat64))
	assert.False(t, Compare(b, a, math.MaxFloat64))
}

func TestCompareEmptyPatterns(t *testing.T) {
	// 20 samples leave nothing once both 10-sample edges are cut.
	a := constantBuffer(50, 20, Sample{X: 4})
	a.Smooth(10)
	a.Truncate(10)
	require.Equal(t, 0, a.Size())

	d, err := Distance(a, a)
	require.NoError(t, err)
	assert.Zero(t, d)
	for _, threshold := range []float64{0, 2} {
		assert.True(t, Compare(a, a, threshold))
	}

	b := NewBuffer(50)
	b.SetSize(0)
	assert.True(t, Compare(a, b, 0))
}

func TestScoreDecidesMatch(t *testing.T) {
	a := constantBuffer(5, 5, Sample{})
	b := constantBuffer(5, 5, Sample{Y: 3})

	d, match, err := Score(a, b, 3)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, d, 1e-12)
	assert.True(t, match)

	_, match, err = Score(a, b, 2.5)
	require.NoError(t, err)
	assert.False(t, match)

	short := constantBuffer(5, 4, Sample{})
	d, match, err = Score(a, short, math.MaxFloat64)
	assert.ErrorIs(t, err, ErrSizeMismatch)
	assert.False(t, match)
	assert.Zero(t, d)
}

func TestPipelineIdenticalGesturesMatch(t *testing.T) {
	ref := constantBuffer(50, 50, Sample{X: 1})
	attempt := constantBuffer(50, 50, Sample{X: 1})
	for _, b := range []*Buffer{ref, attempt} {
		b.Smooth(10)
		b.Truncate(10)
	}

	require.Equal(t, 30, ref.Size())
	assert.True(t, Compare(attempt, ref, 2))
}

func TestPipelineOffsetGestureFails(t *testing.T) {
	ref := constantBuffer(50, 50, Sample{X: 1})
	attempt := constantBuffer(50, 50, Sample{X: 6})
	for _, b := range []*Buffer{ref, attempt} {
		b.Smooth(10)
		b.Truncate(10)
	}

	d, err := Distance(attempt, ref)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, d, 1e-9)
	assert.False(t, Compare(attempt, ref, 2))
}

func TestPipelineEarlyStopSizes(t *testing.T) {
	attempt := constantBuffer(50, 30, Sample{X: 1})
	attempt.Smooth(10)
	attempt.Truncate(10)
	require.Equal(t, 10, attempt.Size())

	ref := constantBuffer(50, 30, Sample{X: 1, Y: 0.5})
	ref.Smooth(10)
	ref.Truncate(10)
	require.Equal(t, 10, ref.Size())

	_, err := Distance(attempt, ref)
	assert.NoError(t, err)
	assert.True(t, Compare(attempt, ref, 2))
}

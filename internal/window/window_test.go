package window

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectangularIsUnity(t *testing.T) {
	for n := 0; n < 32; n++ {
		assert.Equal(t, 1.0, Eval(Rectangular, n, 16))
	}
}

func TestHanningEndpointsAreZero(t *testing.T) {
	const N = 16
	assert.InDelta(t, 0.0, Eval(Hanning, 0, N), 1e-12)
	assert.InDelta(t, 0.0, Eval(Hanning, N-1, N), 1e-12)
}

func TestHanningPeakAtCenter(t *testing.T) {
	const N = 17 // odd length has an exact center sample
	center := (N - 1) / 2
	assert.InDelta(t, 1.0, Eval(Hanning, center, N), 1e-9)
}

func TestBlackmanHarris4Bounded(t *testing.T) {
	const N = 64
	for n := 0; n < N; n++ {
		w := Eval(BlackmanHarris4, n, N)
		assert.False(t, math.IsNaN(w))
		assert.GreaterOrEqual(t, w, -0.1)
		assert.LessOrEqual(t, w, 1.1)
	}
}

func TestFromStringFallsBackToRectangular(t *testing.T) {
	assert.Equal(t, Rectangular, FromString("not-a-window"))
	assert.Equal(t, Hanning, FromString("hanning"))
	assert.Equal(t, BlackmanHarris4, FromString("blackman_harris_4"))
}

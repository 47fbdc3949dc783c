package opt

import (
	"math"

	"github.com/cwbudde/circleopt/internal/realcmp"
)

// maxBisections covers halving any finite float64 interval down to adjacent values.
const maxBisections = 2100

// bisect narrows [lower, upper], across which g changes sign, and returns the
// midpoint once |g(mid)| <= valueTol (zero meaning exactly zero) or the bracket is
// narrower than widthTol. gLower is g(lower).
//
// With widthTol of zero the bracket may shrink to adjacent floats without g
// getting small enough; that is reported as a failure.
func bisect(op string, g func(float64) (float64, error), lower, upper, gLower, valueTol, widthTol float64) (float64, error) {
	for i := 0; i < maxBisections; i++ {
		mid := lower + (upper-lower)/2
		if upper-lower < widthTol {
			return mid, nil
		}
		if mid <= lower || mid >= upper {
			return 0, failure(op, mid, "bracket collapsed without convergence")
		}

		gMid, err := g(mid)
		if err != nil {
			return 0, err
		}
		if realcmp.Zero(gMid, valueTol) {
			return mid, nil
		}

		if math.Signbit(gMid) == math.Signbit(gLower) {
			lower, gLower = mid, gMid
		} else {
			upper = mid
		}
	}
	return 0, failure(op, lower, "bisection did not converge")
}

func sameSign(a, b float64) bool {
	return (a < 0) == (b < 0)
}

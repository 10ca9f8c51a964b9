package model

import "airindex/pkg/common"

// linearFitter accumulates a running least-squares fit of position on key.
// Lifted directly from the teacher's LinearModel: same four running sums,
// same closed-form solve, generalized to take an explicit (key, position)
// stream instead of assuming position == array index.
type linearFitter struct {
	n, sumX, sumY, sumXY, sumXX float64
}

func (lf *linearFitter) add(key common.Key, pos int64) {
	x, y := float64(key), float64(pos)
	lf.n++
	lf.sumX += x
	lf.sumY += y
	lf.sumXY += x * y
	lf.sumXX += x * x
}

// solve returns the least-squares slope and intercept for the points seen
// so far. With fewer than 2 distinct x values the fit degenerates to a flat
// line through the mean.
func (lf *linearFitter) solve() (slope, intercept float64) {
	denom := lf.n*lf.sumXX - lf.sumX*lf.sumX
	if denom == 0 {
		if lf.n > 0 {
			intercept = lf.sumY / lf.n
		}
		return 0, intercept
	}
	slope = (lf.n*lf.sumXY - lf.sumX*lf.sumY) / denom
	intercept = (lf.sumY - slope*lf.sumX) / lf.n
	return slope, intercept
}

// maxAbsError returns the largest |predicted - actual| over points, in
// position units, for the already-solved (slope, intercept).
func maxAbsError(points []common.KeyPosition, slope, intercept float64) int64 {
	var worst int64
	for _, p := range points {
		pred := slope*float64(p.Key) + intercept
		diff := pred - float64(p.Position)
		if diff < 0 {
			diff = -diff
		}
		if int64(diff) > worst {
			worst = int64(diff)
		}
	}
	return worst
}

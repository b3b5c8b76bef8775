// Package features turns a window of IMU samples into a fixed-length vector
// of raw-unit statistics. Values are deliberately unscaled so that classifier
// thresholds read in g, deg/s and g/s.
package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"luma/internal/imu"
)

// stdEpsilon guards skewness/kurtosis against a flat series.
const stdEpsilon = 1e-6

// Extractor holds scratch series so repeated extraction does not allocate.
// It is not safe for concurrent use.
type Extractor struct {
	dt float64

	ax, ay, az, am []float64
	gx, gy, gz, gm []float64
	jerk           []float64
}

// NewExtractor returns an Extractor for the given sample rate in Hz.
func NewExtractor(sampleRateHz float64) *Extractor {
	if sampleRateHz <= 0 {
		sampleRateHz = 50
	}
	return &Extractor{dt: 1 / sampleRateHz}
}

// Extract computes the feature vector for window (oldest first).
func (e *Extractor) Extract(window []imu.Sample) Vector {
	var v Vector
	n := len(window)
	if n == 0 {
		return v
	}
	e.load(window)

	idx := 0
	put := func(x float64) {
		if idx < Count {
			v[idx] = x
			idx++
		}
	}

	for _, s := range [][]float64{e.ax, e.ay, e.az, e.am} {
		mean, std := meanStd(s)
		mx, mn := floats.Max(s), floats.Min(s)
		put(mean)
		put(std)
		put(mx)
		put(mn)
		put(mx - mn)
		// Median slot carries the mean; classifier constants were fitted on it.
		put(mean)
		put(skewness(s, std))
		put(excessKurtosis(s, std))
	}

	for _, s := range [][]float64{e.gx, e.gy, e.gz} {
		mean, std := meanStd(s)
		mx, mn := floats.Max(s), floats.Min(s)
		put(mean)
		put(std)
		put(mx)
		put(mn)
		put(mx - mn)
		put(math.Max(math.Abs(mx), math.Abs(mn)))
	}

	put(stat.Mean(e.gm, nil))
	put(floats.Max(e.gm))

	if len(e.jerk) > 0 {
		jm, js := meanStd(e.jerk)
		put(jm)
		put(floats.Max(e.jerk))
		put(js)
	} else {
		put(0)
		put(0)
		put(0)
	}

	put(floats.Dot(e.am, e.am) / float64(n))
	put(floats.Dot(e.gm, e.gm) / float64(n))

	put(zeroCrossingRate(e.gx))
	put(zeroCrossingRate(e.gy))
	put(zeroCrossingRate(e.gz))

	put(float64(floats.MaxIdx(e.am)) / float64(n))

	// Remaining slots stay zero.
	return v
}

func (e *Extractor) load(window []imu.Sample) {
	n := len(window)
	e.ax = grow(e.ax, n)
	e.ay = grow(e.ay, n)
	e.az = grow(e.az, n)
	e.am = grow(e.am, n)
	e.gx = grow(e.gx, n)
	e.gy = grow(e.gy, n)
	e.gz = grow(e.gz, n)
	e.gm = grow(e.gm, n)
	for i, s := range window {
		e.ax[i], e.ay[i], e.az[i], e.am[i] = s.Ax, s.Ay, s.Az, s.AccelMag
		e.gx[i], e.gy[i], e.gz[i] = s.Gx, s.Gy, s.Gz
		e.gm[i] = s.GyroMag()
	}

	if n < 2 {
		e.jerk = e.jerk[:0]
		return
	}
	e.jerk = grow(e.jerk, n-1)
	for i := 0; i < n-1; i++ {
		e.jerk[i] = math.Abs(e.am[i+1]-e.am[i]) / e.dt
	}
}

func grow(s []float64, n int) []float64 {
	if cap(s) < n {
		return make([]float64, n)
	}
	return s[:n]
}

// meanStd is the population mean and standard deviation. Rounding on a flat
// series can push the variance a hair below zero; that reads as 0.
func meanStd(s []float64) (mean, std float64) {
	mean, std = stat.PopMeanStdDev(s, nil)
	if math.IsNaN(std) {
		std = 0
	}
	return mean, std
}

func skewness(s []float64, std float64) float64 {
	if std < stdEpsilon {
		return 0
	}
	return stat.Moment(3, s, nil) / (std * std * std)
}

func excessKurtosis(s []float64, std float64) float64 {
	if std < stdEpsilon {
		return 0
	}
	return stat.Moment(4, s, nil)/(std*std*std*std) - 3
}

// zeroCrossingRate counts sign changes about the series mean, normalized by 2n.
func zeroCrossingRate(s []float64) float64 {
	n := len(s)
	if n == 0 {
		return 0
	}
	m := stat.Mean(s, nil)
	crossings := 0
	for i := 1; i < n; i++ {
		if (s[i]-m)*(s[i-1]-m) < 0 {
			crossings++
		}
	}
	return float64(crossings) / (2 * float64(n))
}

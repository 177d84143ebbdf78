// Package kalman provides a scalar Kalman filter used as a denoiser.
//
// The state model is a random walk: the filter assumes the true signal is
// nearly constant from one sample to the next and relies on the process
// noise Q to follow drift. The measurement noise R sets how strongly each
// incoming sample is trusted. Small R tracks the input closely, large R
// smooths heavily.
package kalman

import "fmt"

// DefaultProcessNoise is the process-noise variance Q used by the denoiser.
const DefaultProcessNoise = 0.001

const (
	initialEstimate   = 0.0
	initialCovariance = 1.0
)

// Scalar is a one-dimensional Kalman filter without a control input.
type Scalar struct {
	q, r       float64
	estimate   float64
	covariance float64
}

// New creates a filter with process-noise variance q and measurement-noise
// variance r. The state starts at estimate 0 with error covariance 1.
// Neither variance is validated.
func New(q, r float64) *Scalar {
	return &Scalar{
		q:          q,
		r:          r,
		estimate:   initialEstimate,
		covariance: initialCovariance,
	}
}

// ProcessSample runs one predict/update cycle with measurement z and returns
// the new estimate.
func (k *Scalar) ProcessSample(z float64) float64 {
	// Predict: x stays put, P grows by Q.
	predicted := k.estimate
	k.covariance += k.q

	gain := k.covariance / (k.covariance + k.r)
	k.estimate = predicted + gain*(z-predicted)
	k.covariance = (1 - gain) * k.covariance

	return k.estimate
}

// ProcessBlock filters buf in place.
func (k *Scalar) ProcessBlock(buf []float64) {
	k.ProcessBlockTo(buf, buf)
}

// ProcessBlockTo filters src into dst. Both slices must have the same length.
// dst may be src.
func (k *Scalar) ProcessBlockTo(dst, src []float64) {
	if len(dst) != len(src) {
		panic(fmt.Sprintf("kalman: length mismatch: dst %d, src %d", len(dst), len(src)))
	}
	for i, z := range src {
		dst[i] = k.ProcessSample(z)
	}
}

// Reset returns the filter to estimate 0, covariance 1.
func (k *Scalar) Reset() {
	k.estimate = initialEstimate
	k.covariance = initialCovariance
}

// Estimate returns the current state estimate.
func (k *Scalar) Estimate() float64 { return k.estimate }

// Covariance returns the current error covariance.
func (k *Scalar) Covariance() float64 { return k.covariance }

// ProcessNoise returns Q.
func (k *Scalar) ProcessNoise() float64 { return k.q }

// MeasurementNoise returns R.
func (k *Scalar) MeasurementNoise() float64 { return k.r }

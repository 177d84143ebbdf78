// Package adaptive provides a normalized least-mean-squares (NLMS) adaptive
// FIR filter.
//
// The filter predicts the current sample from the N most recent samples
// (the current one included) and nudges its weights toward the observed
// value after every step, normalizing the step by the power held in the tap
// register. [NLMS.ProcessSample] returns the prediction, not the residual:
// the output is the filter's estimate of the correlated part of the signal.
//
// Processing is strictly sequential: sample i depends on the taps and
// weights left behind by sample i-1.
package adaptive

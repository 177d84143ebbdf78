package engine

import "log/slog"

// Default parameter values.
const (
	DefaultKalmanGain    = 0.5
	DefaultNLMSStepSize  = 0.1
	DefaultFilterLength  = 1024
	DefaultEchoDelay     = 100.0
	DefaultEchoIntensity = 50.0
)

// Params is the full parameter set of an Engine.
type Params struct {
	// KalmanGain is the Kalman measurement-noise variance R. Despite the
	// name it is not the computed Kalman gain.
	KalmanGain float64 `json:"kalmanGain" yaml:"kalman_gain"`

	// NLMSStepSize is the NLMS adaptation rate mu.
	NLMSStepSize float64 `json:"nlmsStepSize" yaml:"nlms_step_size"`

	// FilterLength is the NLMS tap count.
	FilterLength int `json:"filterLength" yaml:"filter_length"`

	// EchoDelay is the synthesized echo delay in milliseconds.
	EchoDelay float64 `json:"echoDelay" yaml:"echo_delay"`

	// EchoIntensity is the echo amplitude in percent of the original.
	EchoIntensity float64 `json:"echoIntensity" yaml:"echo_intensity"`
}

// DefaultParams returns the parameters a new Engine starts with.
func DefaultParams() Params {
	return Params{
		KalmanGain:    DefaultKalmanGain,
		NLMSStepSize:  DefaultNLMSStepSize,
		FilterLength:  DefaultFilterLength,
		EchoDelay:     DefaultEchoDelay,
		EchoIntensity: DefaultEchoIntensity,
	}
}

// Update is a sparse parameter record. Nil fields are left untouched when the
// update is applied.
type Update struct {
	KalmanGain    *float64 `json:"kalmanGain,omitempty" yaml:"kalman_gain,omitempty"`
	NLMSStepSize  *float64 `json:"nlmsStepSize,omitempty" yaml:"nlms_step_size,omitempty"`
	FilterLength  *int     `json:"filterLength,omitempty" yaml:"filter_length,omitempty"`
	EchoDelay     *float64 `json:"echoDelay,omitempty" yaml:"echo_delay,omitempty"`
	EchoIntensity *float64 `json:"echoIntensity,omitempty" yaml:"echo_intensity,omitempty"`
}

// Ptr returns a pointer to v. It keeps Update literals short.
func Ptr[T any](v T) *T {
	return &v
}

// Apply merges the present fields of u into p.
func (u Update) Apply(p *Params) {
	if u.KalmanGain != nil {
		p.KalmanGain = *u.KalmanGain
	}
	if u.NLMSStepSize != nil {
		p.NLMSStepSize = *u.NLMSStepSize
	}
	if u.FilterLength != nil {
		p.FilterLength = *u.FilterLength
	}
	if u.EchoDelay != nil {
		p.EchoDelay = *u.EchoDelay
	}
	if u.EchoIntensity != nil {
		p.EchoIntensity = *u.EchoIntensity
	}
}

// Merge returns u with every field present in next overriding it.
func (u Update) Merge(next Update) Update {
	if next.KalmanGain != nil {
		u.KalmanGain = next.KalmanGain
	}
	if next.NLMSStepSize != nil {
		u.NLMSStepSize = next.NLMSStepSize
	}
	if next.FilterLength != nil {
		u.FilterLength = next.FilterLength
	}
	if next.EchoDelay != nil {
		u.EchoDelay = next.EchoDelay
	}
	if next.EchoIntensity != nil {
		u.EchoIntensity = next.EchoIntensity
	}
	return u
}

// IsZero reports whether u carries no fields.
func (u Update) IsZero() bool {
	return u.KalmanGain == nil && u.NLMSStepSize == nil && u.FilterLength == nil &&
		u.EchoDelay == nil && u.EchoIntensity == nil
}

// Full returns an Update that sets every field to the value in p.
func (p Params) Full() Update {
	return Update{
		KalmanGain:    Ptr(p.KalmanGain),
		NLMSStepSize:  Ptr(p.NLMSStepSize),
		FilterLength:  Ptr(p.FilterLength),
		EchoDelay:     Ptr(p.EchoDelay),
		EchoIntensity: Ptr(p.EchoIntensity),
	}
}

// LogValue implements slog.LogValuer, listing only the present fields.
func (u Update) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, 5)
	if u.KalmanGain != nil {
		attrs = append(attrs, slog.Float64("kalman_gain", *u.KalmanGain))
	}
	if u.NLMSStepSize != nil {
		attrs = append(attrs, slog.Float64("nlms_step_size", *u.NLMSStepSize))
	}
	if u.FilterLength != nil {
		attrs = append(attrs, slog.Int("filter_length", *u.FilterLength))
	}
	if u.EchoDelay != nil {
		attrs = append(attrs, slog.Float64("echo_delay", *u.EchoDelay))
	}
	if u.EchoIntensity != nil {
		attrs = append(attrs, slog.Float64("echo_intensity", *u.EchoIntensity))
	}
	return slog.GroupValue(attrs...)
}

package profile

import (
	"fmt"
	"math"
)

// StatRank maps a composite srarea score onto the bounded skill-rank scale.
func StatRank(srarea float64) float64 {
	return 11.2*math.Atan((srarea-93)/130) + 1
}

// The expected-value curve coefficients below are an empirical fit and
// must not be altered.

// ExpectedAPM is the expected srarea-normalised APM at statrank r.
func ExpectedAPM(r float64) float64 {
	return 0.069*math.Pow(1.0017, math.Pow(r, 5)/4700) + r/360
}

// ExpectedPPS is the expected srarea-normalised PPS at statrank r.
func ExpectedPPS(r float64) float64 {
	return 0.0084264*math.Pow(2.14, -2*(r/2.7+1.03)) - r/5750 + 0.0067
}

// ExpectedVSAPM is the expected VS/APM ratio at statrank r.
func ExpectedVSAPM(r float64) float64 {
	return -math.Pow((r-16)/36, 2) + 2.133
}

// ExpectedAPP is the expected attack per piece at statrank r.
func ExpectedAPP(r float64) float64 {
	return 0.1368803292*math.Pow(1.0024, math.Pow(r, 5)/2800) + r/54
}

// ExpectedDSPP is the expected downstack per piece at statrank r.
func ExpectedDSPP(r float64) float64 {
	return 0.02136327583*math.Pow(14, (r-14.75)/3.9) + r/152 + 0.022
}

// ExpectedGE is the expected garbage efficiency at statrank r.
func ExpectedGE(r float64) float64 {
	return r/350 + 0.005948424455*math.Pow(3.8, (r-6.1)/4) + 0.006
}

// Deviations is the fraction by which each metric exceeds (positive) or
// falls short of (negative) the curve's expectation at the player's
// statrank.
type Deviations struct {
	APM   float64
	PPS   float64
	VSAPM float64
	APP   float64
	DSPP  float64
	GE    float64
}

// Deviate compares d against the expected-value curves. APM and PPS are
// normalised by srarea, matching how their curves were fit.
func Deviate(d Derived) (Deviations, error) {
	r := d.StatRank
	dev := Deviations{
		APM:   (d.APM/d.SRArea)/ExpectedAPM(r) - 1,
		PPS:   (d.PPS/d.SRArea)/ExpectedPPS(r) - 1,
		VSAPM: d.VSAPM/ExpectedVSAPM(r) - 1,
		APP:   d.APP/ExpectedAPP(r) - 1,
		DSPP:  d.DSPP/ExpectedDSPP(r) - 1,
		GE:    d.GE/ExpectedGE(r) - 1,
	}
	for _, v := range [...]float64{dev.APM, dev.PPS, dev.VSAPM, dev.APP, dev.DSPP, dev.GE} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Deviations{}, fmt.Errorf("statrank %.4f: %w", r, ErrDivisionByZero)
		}
	}
	return dev, nil
}

package profile

import (
	"fmt"
	"math"

	"github.com/pable/go-tl-verge/internal/model"
)

// Composite weights for srarea. Terms at zero weight stay named so the
// model can be retuned without reshaping the sum.
const (
	weightAPM  = 0
	weightPPS  = 135
	weightVS   = 0
	weightAPP  = 290
	weightDSPS = 0
	weightDSPP = 700
	weightGE   = 0
)

// Derived holds the secondary metrics computed from one snapshot.
type Derived struct {
	PPS, APM, VS float64

	APP      float64 // attack per piece
	VSAPM    float64
	DSPS     float64 // downstack per second
	DSPP     float64 // downstack per piece
	GE       float64 // garbage efficiency
	SRArea   float64
	StatRank float64
}

// Derive computes the secondary metrics for s. It fails with
// ErrDivisionByZero when pps, apm or the resulting srarea is zero.
func Derive(s model.PlayerSnapshot) (Derived, error) {
	for _, v := range [...]float64{s.PPS, s.APM, s.VS} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Derived{}, fmt.Errorf("%s: %w", s.Username, ErrMalformedMetrics)
		}
	}
	if s.PPS == 0 || s.APM == 0 {
		return Derived{}, fmt.Errorf("%s: pps=%g apm=%g: %w", s.Username, s.PPS, s.APM, ErrDivisionByZero)
	}

	d := Derived{PPS: s.PPS, APM: s.APM, VS: s.VS}
	d.APP = s.APM / 60 / s.PPS
	d.VSAPM = s.VS / s.APM
	d.DSPS = s.VS/100 - s.APM/60
	d.DSPP = d.DSPS / s.PPS
	d.GE = 2 * d.APP * d.DSPS / s.PPS
	d.SRArea = weightAPM*s.APM + weightPPS*s.PPS + weightVS*s.VS +
		weightAPP*d.APP + weightDSPS*d.DSPS + weightDSPP*d.DSPP + weightGE*d.GE
	if d.SRArea == 0 {
		return Derived{}, fmt.Errorf("%s: srarea: %w", s.Username, ErrDivisionByZero)
	}
	d.StatRank = StatRank(d.SRArea)
	return d, nil
}

package profile_test

import (
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/pable/go-tl-verge/internal/model"
	"github.com/pable/go-tl-verge/internal/profile"
)

func snap(name string, pps, apm, vs float64) model.PlayerSnapshot {
	return model.PlayerSnapshot{ID: "id-" + name, Username: name, PPS: pps, APM: apm, VS: vs}
}

func TestDerive(t *testing.T) {
	Convey("Given a snapshot with pps=2.5 apm=150 vs=300", t, func() {
		d, err := profile.Derive(snap("alice", 2.5, 150, 300))

		Convey("Then the secondary metrics follow from the rates", func() {
			So(err, ShouldBeNil)
			So(d.APP, ShouldAlmostEqual, 1.0, 1e-12)
			So(d.VSAPM, ShouldAlmostEqual, 2.0, 1e-12)
			So(d.DSPS, ShouldAlmostEqual, 0.5, 1e-12)
			So(d.DSPP, ShouldAlmostEqual, 0.2, 1e-12)
			So(d.GE, ShouldAlmostEqual, 0.4, 1e-12)
			So(d.SRArea, ShouldAlmostEqual, 767.5, 1e-9)
			So(d.StatRank, ShouldAlmostEqual, 16.460431, 1e-6)
		})
	})

	Convey("Given degenerate snapshots", t, func() {
		Convey("When pps is zero", func() {
			_, err := profile.Derive(snap("z", 0, 100, 200))
			So(errors.Is(err, profile.ErrDivisionByZero), ShouldBeTrue)
		})
		Convey("When apm is zero", func() {
			_, err := profile.Derive(snap("z", 2, 0, 200))
			So(errors.Is(err, profile.ErrDivisionByZero), ShouldBeTrue)
		})
		Convey("When a metric is not a number", func() {
			_, err := profile.Derive(snap("z", math.NaN(), 100, 200))
			So(errors.Is(err, profile.ErrMalformedMetrics), ShouldBeTrue)
		})
	})
}

func TestStatRank(t *testing.T) {
	Convey("Given the skill curve", t, func() {
		Convey("Then srarea 93 maps to rank 1", func() {
			So(profile.StatRank(93), ShouldAlmostEqual, 1, 1e-12)
		})
		Convey("Then it is increasing and bounded", func() {
			bound := 1 + 11.2*math.Pi/2
			prev := math.Inf(-1)
			for sr := -5000.0; sr <= 5000; sr += 50 {
				r := profile.StatRank(sr)
				So(r, ShouldBeGreaterThan, prev)
				So(r, ShouldBeLessThan, bound)
				So(r, ShouldBeGreaterThan, 2-bound)
				prev = r
			}
		})
	})
}

func TestDeviate(t *testing.T) {
	Convey("Given a player exactly on every expected curve", t, func() {
		d, err := profile.Derive(snap("alice", 2.5, 150, 300))
		So(err, ShouldBeNil)
		r := d.StatRank
		d.APM = profile.ExpectedAPM(r) * d.SRArea
		d.PPS = profile.ExpectedPPS(r) * d.SRArea
		d.VSAPM = profile.ExpectedVSAPM(r)
		d.APP = profile.ExpectedAPP(r)
		d.DSPP = profile.ExpectedDSPP(r)
		d.GE = profile.ExpectedGE(r)

		dev, err := profile.Deviate(d)
		So(err, ShouldBeNil)
		Convey("Then every deviation is zero", func() {
			for _, v := range []float64{dev.APM, dev.PPS, dev.VSAPM, dev.APP, dev.DSPP, dev.GE} {
				So(v, ShouldAlmostEqual, 0, 1e-12)
			}
		})
	})
}

package profile_test

import (
	"errors"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/pable/go-tl-verge/internal/model"
	"github.com/pable/go-tl-verge/internal/profile"
)

// Archetypal players; expected scores were computed independently from the
// curve and score formulas.
var (
	openerMain  = snap("opener", 2.2, 130, 240)
	plonkerMain = snap("plonker", 2.5, 150, 300)
	striderMain = snap("strider", 3.5, 120, 260)
	infdsMain   = snap("infds", 1.5, 40, 120)
)

func TestScore(t *testing.T) {
	Convey("Given a plonker leaning towards opener", t, func() {
		ps, err := profile.Analyze(plonkerMain)
		So(err, ShouldBeNil)

		Convey("Then all four scores match the reference values", func() {
			want := profile.Scores{0.8216, 0.9618, -0.3884, 0.1791}
			for i := range want {
				So(ps.Scores[i], ShouldAlmostEqual, want[i], 1e-4)
			}
		})
		Convey("Then plonker is primary and opener secondary", func() {
			So(ps.Classification.Primary, ShouldEqual, model.StylePlonker)
			s, ok := ps.Classification.Secondary.Get()
			So(ok, ShouldBeTrue)
			So(s, ShouldEqual, model.StyleOpener)
		})
	})

	Convey("Given single-style players", t, func() {
		cases := []struct {
			p    model.PlayerSnapshot
			want model.Style
		}{
			{openerMain, model.StyleOpener},
			{striderMain, model.StyleStrider},
			{infdsMain, model.StyleInfDS},
		}
		for _, c := range cases {
			Convey("When classifying "+c.p.Username, func() {
				ps, err := profile.Analyze(c.p)
				So(err, ShouldBeNil)
				So(ps.Classification.Primary, ShouldEqual, c.want)
				_, ok := ps.Classification.Secondary.Get()
				So(ok, ShouldBeFalse)
			})
		}
	})

	Convey("Given a player with zero pps", t, func() {
		_, err := profile.Analyze(snap("afk", 0, 0, 0))
		So(errors.Is(err, profile.ErrDivisionByZero), ShouldBeTrue)
	})
}

func TestClassify(t *testing.T) {
	Convey("Given tied top scores", t, func() {
		c := profile.Classify(profile.Scores{0.9, 0.9, 0.1, 0.9})
		Convey("Then the lowest index wins primary and then secondary", func() {
			So(c.Primary, ShouldEqual, model.StyleOpener)
			s, ok := c.Secondary.Get()
			So(ok, ShouldBeTrue)
			So(s, ShouldEqual, model.StylePlonker)
		})
	})

	Convey("Given a runner-up below three quarters of the primary", t, func() {
		c := profile.Classify(profile.Scores{0.2, 0.3, 1.0, 0.75})
		So(c.Primary, ShouldEqual, model.StyleStrider)
		_, ok := c.Secondary.Get()
		So(ok, ShouldBeFalse)
		So(c.Styles(), ShouldResemble, []model.Style{model.StyleStrider})
	})

	Convey("Given any scores", t, func() {
		for _, s := range []profile.Scores{
			{1, 2, 3, 4}, {4, 3, 2, 1}, {-1, -2, -3, -4}, {0, 0, 0, 0}, {-0.5, 0.1, 0.1, -2},
		} {
			c := profile.Classify(s)
			Convey(fmt.Sprintf("Then %v keeps the primary on top and apart from the secondary", s), func() {
				if sec, ok := c.Secondary.Get(); ok {
					So(sec, ShouldNotEqual, c.Primary)
				}
				for _, v := range s {
					So(v, ShouldBeLessThanOrEqualTo, s[c.Primary])
				}
			})
		}
	})
}

func TestFoldOpponents(t *testing.T) {
	Convey("Given ten opener opponents and seven wins", t, func() {
		var results []profile.OpponentResult
		for i := 0; i < 10; i++ {
			results = append(results, profile.OpponentResult{Opponent: openerMain, SubjectWon: i < 7})
		}
		tally := profile.FoldOpponents(results)

		Convey("Then the opener bucket holds the record", func() {
			So(tally.Record(model.StyleOpener), ShouldResemble, profile.StyleRecord{Wins: 7, Played: 10})
			rate, ok := tally.Record(model.StyleOpener).WinRate()
			So(ok, ShouldBeTrue)
			So(rate, ShouldAlmostEqual, 0.7, 1e-12)
		})
		Convey("Then empty buckets report no win rate", func() {
			_, ok := tally.Record(model.StylePlonker).WinRate()
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given an opponent with a secondary style", t, func() {
		tally := profile.FoldOpponents([]profile.OpponentResult{{Opponent: plonkerMain, SubjectWon: true}})
		So(tally.Record(model.StylePlonker), ShouldResemble, profile.StyleRecord{Wins: 1, Played: 1})
		So(tally.Record(model.StyleOpener), ShouldResemble, profile.StyleRecord{Wins: 1, Played: 1})
	})

	Convey("Given an opponent with unusable metrics", t, func() {
		tally := profile.FoldOpponents([]profile.OpponentResult{
			{Opponent: snap("afk", 0, 0, 0), SubjectWon: true},
			{Opponent: striderMain, SubjectWon: false},
		})
		So(tally.Skipped, ShouldEqual, 1)
		So(tally.Record(model.StyleStrider), ShouldResemble, profile.StyleRecord{Played: 1})
	})

	Convey("Given the reducer", t, func() {
		before := profile.StyleTally{}
		after := profile.TallyOpponent(before, profile.OpponentResult{Opponent: openerMain, SubjectWon: true})
		Convey("Then the input tally is left untouched", func() {
			So(before.Record(model.StyleOpener).Played, ShouldEqual, 0)
			So(after.Record(model.StyleOpener).Played, ShouldEqual, 1)
		})
	})
}

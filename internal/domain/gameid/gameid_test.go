package gameid_test

import (
	"errors"
	"testing"
	"time"

	"github.com/a-luna/vigorish-sub003/internal/domain/gameid"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGameIDTokens(t *testing.T) {
	codes := gameid.DefaultTeamCodes()

	Convey("Given a compact boxscore token", t, func() {
		Convey("When it is parsed", func() {
			id, err := gameid.ParseCompact("CHW201904150")

			Convey("Then every part is decoded", func() {
				So(err, ShouldBeNil)
				So(id.HomeTeam, ShouldEqual, "CHW")
				So(id.Date, ShouldEqual, time.Date(2019, 4, 15, 0, 0, 0, 0, time.UTC))
				So(id.Number, ShouldEqual, 0)
				So(id.Compact(), ShouldEqual, "CHW201904150")
			})
		})

		Convey("When it is converted to the telemetry token with the boxscore's away team", func() {
			long, err := gameid.CompactToLong("CHW201904150", "DET", codes)

			Convey("Then the home code uses the exception table and the token round-trips", func() {
				So(err, ShouldBeNil)
				So(long, ShouldEqual, "gid_2019_04_15_detmlb_chamlb_0")

				compact, err := gameid.LongToCompact(long, codes)
				So(err, ShouldBeNil)
				So(compact, ShouldEqual, "CHW201904150")
			})
		})

		Convey("When the away team is unknown", func() {
			_, err := gameid.CompactToLong("CHW201904150", "", codes)

			Convey("Then the long token cannot be built", func() {
				So(errors.Is(err, gameid.ErrMalformedIdentifier), ShouldBeTrue)
			})
		})
	})

	Convey("Given telemetry tokens for every exception team", t, func() {
		longs := []string{
			"gid_2019_06_01_chnmlb_chamlb_1",
			"gid_2019_06_01_kcamlb_anamlb_2",
			"gid_2019_06_01_lanmlb_nyamlb_0",
			"gid_2019_06_01_nynmlb_sdnmlb_0",
			"gid_2019_06_01_sfnmlb_slnmlb_0",
			"gid_2019_06_01_tbamlb_wasmlb_0",
			"gid_2019_06_01_tormlb_bosmlb_0",
		}

		Convey("Then long -> compact -> long is the identity", func() {
			for _, long := range longs {
				id, err := gameid.ParseLong(long, codes)
				So(err, ShouldBeNil)

				compactID, err := gameid.ParseCompact(id.Compact())
				So(err, ShouldBeNil)

				back, err := compactID.WithAway(id.AwayTeam).Long(codes)
				So(err, ShouldBeNil)
				So(back, ShouldEqual, long)
			}
		})
	})

	Convey("Given malformed tokens", t, func() {
		bad := []string{"", "chw201904150", "CHW20190415", "CHW201904153", "CHW201913450", "CHWX01904150"}

		Convey("Then compact parsing rejects each of them", func() {
			for _, token := range bad {
				_, err := gameid.ParseCompact(token)
				So(errors.Is(err, gameid.ErrMalformedIdentifier), ShouldBeTrue)
			}
		})

		Convey("Then long parsing rejects uppercase codes and a bad game number", func() {
			_, err := gameid.ParseLong("gid_2019_04_15_DETmlb_chamlb_0", codes)
			So(errors.Is(err, gameid.ErrMalformedIdentifier), ShouldBeTrue)

			_, err = gameid.ParseLong("gid_2019_04_15_detmlb_chamlb_3", codes)
			So(errors.Is(err, gameid.ErrMalformedIdentifier), ShouldBeTrue)
		})
	})
}

func TestAtBatAndPitchAppTokens(t *testing.T) {
	Convey("Given an at-bat id", t, func() {
		game, err := gameid.ParseCompact("TOR201905300")
		So(err, ShouldBeNil)

		ab := gameid.AtBatID{
			Game:        game,
			Inning:      7,
			Half:        gameid.HalfBottom,
			PitcherTeam: "OAK",
			PitcherID:   592351,
			BatterTeam:  "TOR",
			BatterID:    665489,
			Ordinal:     2,
		}

		Convey("Then it renders and parses back to the same value", func() {
			token := ab.String()
			So(token, ShouldEqual, "TOR201905300_BOT07_OAK_592351_TOR_665489_2")

			parsed, err := gameid.ParseAtBatID(token)
			So(err, ShouldBeNil)
			So(parsed, ShouldResemble, ab)
			So(parsed.PitchApp().String(), ShouldEqual, "TOR201905300_592351")
		})

		Convey("Then a token with an unknown half is rejected", func() {
			_, err := gameid.ParseAtBatID("TOR201905300_MID07_OAK_592351_TOR_665489_2")
			So(errors.Is(err, gameid.ErrMalformedIdentifier), ShouldBeTrue)
		})
	})

	Convey("Given a pitch-app token", t, func() {
		Convey("Then it parses into game and pitcher", func() {
			id, err := gameid.ParsePitchAppID("TOR201905300_592351")
			So(err, ShouldBeNil)
			So(id.PitcherID, ShouldEqual, 592351)
			So(id.Game.Compact(), ShouldEqual, "TOR201905300")
		})

		Convey("Then renaming rewrites only tokens of the old game", func() {
			So(gameid.RenamePitchAppToken("TOR201905300_592351", "TOR201905300", "TOR201905301"), ShouldEqual, "TOR201905301_592351")
			So(gameid.RenamePitchAppToken("BOS201905300_592351", "TOR201905300", "TOR201905301"), ShouldEqual, "BOS201905300_592351")
		})

		Convey("Then a non-numeric pitcher is rejected", func() {
			_, err := gameid.ParsePitchAppID("TOR201905300_abc")
			So(errors.Is(err, gameid.ErrMalformedIdentifier), ShouldBeTrue)
		})
	})

	Convey("Given a telemetry pitch timestamp", t, func() {
		ts, err := gameid.ParsePitchTimestamp("190530_191532")

		Convey("Then it parses and formats back", func() {
			So(err, ShouldBeNil)
			So(ts, ShouldEqual, time.Date(2019, 5, 30, 19, 15, 32, 0, time.UTC))
			So(gameid.FormatPitchTimestamp(ts), ShouldEqual, "190530_191532")
		})
	})
}

package pitchseq

import (
	"strings"

	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
)

// descriptionClasses is checked in order; the first matching phrase wins.
var descriptionClasses = []struct {
	phrase string
	class  Class
}{
	{"in play", ClassInPlay},
	{"hit by pitch", ClassHitByPitch},
	{"foul tip", ClassFoulTip},
	{"foul", ClassFoul},
	{"swinging", ClassSwingingStrike},
	{"missed bunt", ClassSwingingStrike},
	{"called strike", ClassCalledStrike},
	{"pitchout", ClassBall},
	{"ball", ClassBall},
}

// ClassifyRecord maps a telemetry record onto a coarse class using its basic
// type, then its description, then its plate location.
func ClassifyRecord(rec scrape.PitchFXRecord) Class {
	if rec.BasicType == "X" {
		return ClassInPlay
	}
	des := strings.ToLower(rec.Description)
	for _, dc := range descriptionClasses {
		if strings.Contains(des, dc.phrase) {
			return dc.class
		}
	}

	inside, known := rec.InStrikeZone()
	switch rec.BasicType {
	case "B":
		return ClassBall
	case "S":
		if known && !inside {
			return ClassSwingingStrike
		}
		if known {
			return ClassCalledStrike
		}
		return ClassUnknown
	}
	if !known {
		return ClassUnknown
	}
	if inside {
		return ClassCalledStrike
	}
	return ClassBall
}

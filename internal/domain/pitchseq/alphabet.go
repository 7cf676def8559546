// Package pitchseq decodes play-by-play pitch-sequence strings and maps each
// pitch token onto the coarse telemetry classes it can plausibly pair with.
//
// Token table (counts-as-pitch tokens consume one pitch from the
// authoritative count; the others are never paired with telemetry):
//
//	Token  Meaning                          Pitch  Count effect   Plausible telemetry classes
//	C      called strike                    yes    strike         called_strike
//	S      swinging strike                  yes    strike         swinging_strike, foul_tip
//	F      foul                             yes    foul           foul, foul_tip
//	B      ball                             yes    ball           ball
//	X      ball in play                     yes    ends at-bat    in_play
//	T      foul tip                         yes    strike         foul_tip, swinging_strike, foul
//	I      intentional ball                 yes    ball           ball
//	H      hit batter                       yes    ends at-bat    hit_by_pitch, ball
//	L      foul bunt                        yes    strike         foul
//	M      missed bunt attempt              yes    strike         swinging_strike
//	P      pitchout                         yes    ball           ball
//	K      strike, type unknown             yes    strike         called_strike, swinging_strike, foul_tip
//	U      unknown or missed pitch          yes    none           any
//	Q      swinging on pitchout             yes    strike         swinging_strike
//	R      foul on pitchout                 yes    foul           foul
//	O      foul tip on bunt                 yes    foul           foul_tip, foul
//	Y      ball in play on pitchout         yes    ends at-bat    in_play
//	V      ball called on pitcher's mouth   yes    ball           ball
//	1 2 3  pickoff throw to a base          no
//	>      runner going on the pitch        no
//	+      pickoff throw by the catcher     no
//	*      next pitch blocked by catcher    no
//	.      play not involving the batter    no
//	N      no pitch (balk, interference)    no
//
// A telemetry record classified as unknown is plausible with every token.
package pitchseq

import (
	"strings"

	crerr "github.com/cockroachdb/errors"
)

// ErrUnknownToken is returned by Parse for a character outside the table.
var ErrUnknownToken = crerr.New("unknown pitch-sequence token")

type Category string

const (
	CategoryCalledStrike    Category = "called_strike"
	CategorySwingingStrike  Category = "swinging_strike"
	CategoryFoul            Category = "foul"
	CategoryBall            Category = "ball"
	CategoryInPlay          Category = "in_play"
	CategoryFoulTip         Category = "foul_tip"
	CategoryIntentionalBall Category = "intentional_ball"
	CategoryHitBatter       Category = "hit_batter"
	CategoryFoulBunt        Category = "foul_bunt"
	CategoryMissedBunt      Category = "missed_bunt"
	CategoryPitchout        Category = "pitchout"
	CategoryUnknownStrike   Category = "unknown_strike"
	CategoryUnknownPitch    Category = "unknown_pitch"
	CategoryPitchoutSwing   Category = "pitchout_swinging"
	CategoryPitchoutFoul    Category = "pitchout_foul"
	CategoryFoulTipBunt     Category = "foul_tip_bunt"
	CategoryPitchoutInPlay  Category = "pitchout_in_play"
	CategoryMouthBall       Category = "mouth_ball"
	CategoryPickoff         Category = "pickoff"
	CategoryRunnerGoing     Category = "runner_going"
	CategoryCatcherPickoff  Category = "catcher_pickoff"
	CategoryBlocked         Category = "blocked"
	CategoryNonBatterPlay   Category = "non_batter_play"
	CategoryNoPitch         Category = "no_pitch"
)

// Effect is what a pitch does to the ball/strike count.
type Effect int

const (
	EffectNone Effect = iota
	EffectBall
	EffectStrike
	EffectFoul
	EffectEnds
)

// Class is the coarse outcome of a telemetry record.
type Class string

const (
	ClassCalledStrike   Class = "called_strike"
	ClassSwingingStrike Class = "swinging_strike"
	ClassFoul           Class = "foul"
	ClassFoulTip        Class = "foul_tip"
	ClassBall           Class = "ball"
	ClassInPlay         Class = "in_play"
	ClassHitByPitch     Class = "hit_by_pitch"
	ClassUnknown        Class = "unknown"
)

type Token struct {
	Symbol        byte
	Category      Category
	CountsAsPitch bool
	Effect        Effect
	Plausible     []Class
}

var alphabet = map[byte]Token{
	'C': {Symbol: 'C', Category: CategoryCalledStrike, CountsAsPitch: true, Effect: EffectStrike, Plausible: []Class{ClassCalledStrike}},
	'S': {Symbol: 'S', Category: CategorySwingingStrike, CountsAsPitch: true, Effect: EffectStrike, Plausible: []Class{ClassSwingingStrike, ClassFoulTip}},
	'F': {Symbol: 'F', Category: CategoryFoul, CountsAsPitch: true, Effect: EffectFoul, Plausible: []Class{ClassFoul, ClassFoulTip}},
	'B': {Symbol: 'B', Category: CategoryBall, CountsAsPitch: true, Effect: EffectBall, Plausible: []Class{ClassBall}},
	'X': {Symbol: 'X', Category: CategoryInPlay, CountsAsPitch: true, Effect: EffectEnds, Plausible: []Class{ClassInPlay}},
	'T': {Symbol: 'T', Category: CategoryFoulTip, CountsAsPitch: true, Effect: EffectStrike, Plausible: []Class{ClassFoulTip, ClassSwingingStrike, ClassFoul}},
	'I': {Symbol: 'I', Category: CategoryIntentionalBall, CountsAsPitch: true, Effect: EffectBall, Plausible: []Class{ClassBall}},
	'H': {Symbol: 'H', Category: CategoryHitBatter, CountsAsPitch: true, Effect: EffectEnds, Plausible: []Class{ClassHitByPitch, ClassBall}},
	'L': {Symbol: 'L', Category: CategoryFoulBunt, CountsAsPitch: true, Effect: EffectStrike, Plausible: []Class{ClassFoul}},
	'M': {Symbol: 'M', Category: CategoryMissedBunt, CountsAsPitch: true, Effect: EffectStrike, Plausible: []Class{ClassSwingingStrike}},
	'P': {Symbol: 'P', Category: CategoryPitchout, CountsAsPitch: true, Effect: EffectBall, Plausible: []Class{ClassBall}},
	'K': {Symbol: 'K', Category: CategoryUnknownStrike, CountsAsPitch: true, Effect: EffectStrike, Plausible: []Class{ClassCalledStrike, ClassSwingingStrike, ClassFoulTip}},
	'U': {Symbol: 'U', Category: CategoryUnknownPitch, CountsAsPitch: true, Effect: EffectNone},
	'Q': {Symbol: 'Q', Category: CategoryPitchoutSwing, CountsAsPitch: true, Effect: EffectStrike, Plausible: []Class{ClassSwingingStrike}},
	'R': {Symbol: 'R', Category: CategoryPitchoutFoul, CountsAsPitch: true, Effect: EffectFoul, Plausible: []Class{ClassFoul}},
	'O': {Symbol: 'O', Category: CategoryFoulTipBunt, CountsAsPitch: true, Effect: EffectFoul, Plausible: []Class{ClassFoulTip, ClassFoul}},
	'Y': {Symbol: 'Y', Category: CategoryPitchoutInPlay, CountsAsPitch: true, Effect: EffectEnds, Plausible: []Class{ClassInPlay}},
	'V': {Symbol: 'V', Category: CategoryMouthBall, CountsAsPitch: true, Effect: EffectBall, Plausible: []Class{ClassBall}},
	'1': {Symbol: '1', Category: CategoryPickoff},
	'2': {Symbol: '2', Category: CategoryPickoff},
	'3': {Symbol: '3', Category: CategoryPickoff},
	'>': {Symbol: '>', Category: CategoryRunnerGoing},
	'+': {Symbol: '+', Category: CategoryCatcherPickoff},
	'*': {Symbol: '*', Category: CategoryBlocked},
	'.': {Symbol: '.', Category: CategoryNonBatterPlay},
	'N': {Symbol: 'N', Category: CategoryNoPitch},
}

// Lookup returns the table entry for symbol.
func Lookup(symbol byte) (Token, bool) {
	tok, ok := alphabet[symbol]
	return tok, ok
}

// Plausible reports whether a telemetry record of class c can stand for tok.
func Plausible(tok Token, c Class) bool {
	if !tok.CountsAsPitch {
		return false
	}
	if c == ClassUnknown || len(tok.Plausible) == 0 {
		return true
	}
	for _, p := range tok.Plausible {
		if p == c {
			return true
		}
	}
	return false
}

// Count is the ball/strike count before a pitch.
type Count struct {
	Balls   int `json:"balls"`
	Strikes int `json:"strikes"`
}

func (c Count) advance(effect Effect) Count {
	switch effect {
	case EffectBall:
		if c.Balls < 3 {
			c.Balls++
		}
	case EffectStrike:
		if c.Strikes < 2 {
			c.Strikes++
		}
	case EffectFoul:
		if c.Strikes < 2 {
			c.Strikes++
		}
	}
	return c
}

// Less orders counts by total pitches implied, balls breaking ties.
func (c Count) Less(o Count) bool {
	if c.Balls+c.Strikes != o.Balls+o.Strikes {
		return c.Balls+c.Strikes < o.Balls+o.Strikes
	}
	return c.Balls < o.Balls
}

// Pitch is a counts-as-pitch token placed in its sequence.
type Pitch struct {
	Token       Token
	Position    int
	Number      int
	CountBefore Count
}

// Sequence is a parsed pitch-sequence string.
type Sequence struct {
	Raw    string
	Tokens []Token
}

// Parse decodes s. Whitespace is ignored; any other character outside the
// table is an error.
func Parse(s string) (Sequence, error) {
	seq := Sequence{Raw: s, Tokens: make([]Token, 0, len(s))}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == ' ' || ch == '\t' {
			continue
		}
		tok, ok := alphabet[ch]
		if !ok {
			return Sequence{}, crerr.Wrapf(ErrUnknownToken, "%q at position %d of %q", string(ch), i, s)
		}
		seq.Tokens = append(seq.Tokens, tok)
	}
	return seq, nil
}

// ParseLenient reads every character outside the table as U and returns the
// characters it could not decode.
func ParseLenient(s string) (Sequence, []byte) {
	seq := Sequence{Raw: s, Tokens: make([]Token, 0, len(s))}
	var unknown []byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == ' ' || ch == '\t' {
			continue
		}
		tok, ok := alphabet[ch]
		if !ok {
			unknown = append(unknown, ch)
			tok = alphabet['U']
		}
		seq.Tokens = append(seq.Tokens, tok)
	}
	return seq, unknown
}

// Pitches returns the counts-as-pitch tokens in order with the count before
// each one.
func (s Sequence) Pitches() []Pitch {
	out := make([]Pitch, 0, len(s.Tokens))
	count := Count{}
	for pos, tok := range s.Tokens {
		if !tok.CountsAsPitch {
			continue
		}
		out = append(out, Pitch{Token: tok, Position: pos, Number: len(out) + 1, CountBefore: count})
		count = count.advance(tok.Effect)
	}
	return out
}

func (s Sequence) PitchCount() int {
	n := 0
	for _, tok := range s.Tokens {
		if tok.CountsAsPitch {
			n++
		}
	}
	return n
}

// Symbols renders only the counts-as-pitch tokens.
func (s Sequence) Symbols() string {
	var b strings.Builder
	for _, tok := range s.Tokens {
		if tok.CountsAsPitch {
			b.WriteByte(tok.Symbol)
		}
	}
	return b.String()
}

package narrative

import (
	"regexp"
	"strconv"
	"strings"
)

// Default payload values used when a tag's numeric payload is absent or
// malformed. The generator is not a trusted source, so parsing never fails;
// it falls back to these.
const (
	DefaultCorrectXP         = 20
	DefaultCorrectProgress   = 25
	DefaultIncorrectProgress = 0
)

// CorrectOutcome is emitted by a [CORRECT: xp:progress] tag.
type CorrectOutcome struct {
	XP       int
	Progress int
}

// IncorrectOutcome is emitted by an [INCORRECT: progress] tag.
type IncorrectOutcome struct {
	Progress int
}

// ChallengeOutcome is emitted by a [CHALLENGE: text] tag. Text is the
// challenge posed to the player.
type ChallengeOutcome struct {
	Text string
}

// AnswerOutcome is emitted by an [ANSWER: text] tag. Text is the expected
// solution for the current challenge.
type AnswerOutcome struct {
	Text string
}

// LevelCompleteOutcome is emitted by a [LEVEL_COMPLETE: bonus] tag.
type LevelCompleteOutcome struct {
	Bonus int
}

// Outcomes holds every recognized tag found in one generator response.
// A nil field means the tag was absent.
type Outcomes struct {
	Correct       *CorrectOutcome
	Incorrect     *IncorrectOutcome
	Challenge     *ChallengeOutcome
	Answer        *AnswerOutcome
	LevelComplete *LevelCompleteOutcome
	PlayerDeath   bool
}

// Empty reports whether no recognized tags were present.
func (o Outcomes) Empty() bool {
	return o.Correct == nil && o.Incorrect == nil && o.Challenge == nil &&
		o.Answer == nil && o.LevelComplete == nil && !o.PlayerDeath
}

// tagPattern matches only the recognized control tags. Unrecognized
// bracketed text is left alone so narrative that merely resembles a tag
// survives intact. The payload may contain colons but not a closing bracket.
var tagPattern = regexp.MustCompile(`\[(CORRECT|INCORRECT|CHALLENGE|ANSWER|LEVEL_COMPLETE|PLAYER_DEATH)(?::([^\]]*))?\]`)

// Parse extracts control tags from raw generator output. It returns the
// narrative with recognized tags stripped, and the typed outcomes the tags
// encode. Parsing raw output a second time is a no-op: the cleaned text
// contains no recognized tags.
func Parse(raw string) (string, Outcomes) {
	var out Outcomes
	matched := false

	clean := tagPattern.ReplaceAllStringFunc(raw, func(match string) string {
		matched = true
		groups := tagPattern.FindStringSubmatch(match)
		name := groups[1]
		payload := strings.TrimSpace(groups[2])

		switch name {
		case "CORRECT":
			out.Correct = parseCorrect(payload)
		case "INCORRECT":
			out.Incorrect = parseIncorrect(payload)
		case "CHALLENGE":
			out.Challenge = &ChallengeOutcome{Text: payload}
		case "ANSWER":
			out.Answer = &AnswerOutcome{Text: payload}
		case "LEVEL_COMPLETE":
			out.LevelComplete = parseLevelComplete(payload)
		case "PLAYER_DEATH":
			out.PlayerDeath = true
		}
		return ""
	})

	// Whitespace tidying only repairs gaps left by stripped tags; text
	// without any recognized tag passes through byte for byte.
	if !matched {
		return raw, out
	}
	return tidyWhitespace(clean), out
}

// parseCorrect handles a "xp:progress" payload. The payload splits on the
// first colon only; both halves default independently when malformed.
func parseCorrect(payload string) *CorrectOutcome {
	o := &CorrectOutcome{XP: DefaultCorrectXP, Progress: DefaultCorrectProgress}

	xpPart, progressPart, found := strings.Cut(payload, ":")
	if xp, err := strconv.Atoi(strings.TrimSpace(xpPart)); err == nil {
		o.XP = xp
	}
	if found {
		if p, err := strconv.Atoi(strings.TrimSpace(progressPart)); err == nil && p >= 0 && p <= 100 {
			o.Progress = p
		}
	}
	return o
}

func parseIncorrect(payload string) *IncorrectOutcome {
	o := &IncorrectOutcome{Progress: DefaultIncorrectProgress}
	if p, err := strconv.Atoi(strings.TrimSpace(payload)); err == nil {
		o.Progress = p
	}
	return o
}

func parseLevelComplete(payload string) *LevelCompleteOutcome {
	o := &LevelCompleteOutcome{}
	if b, err := strconv.Atoi(strings.TrimSpace(payload)); err == nil {
		o.Bonus = b
	}
	return o
}

var (
	multiSpace   = regexp.MustCompile(`[ \t]{2,}`)
	multiNewline = regexp.MustCompile(`\n{3,}`)
)

// tidyWhitespace collapses gaps left behind by stripped tags.
func tidyWhitespace(s string) string {
	s = multiSpace.ReplaceAllString(s, " ")
	s = multiNewline.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

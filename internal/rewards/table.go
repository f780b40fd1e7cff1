// Package rewards defines the static difficulty-keyed reward table and the
// random rolls performed on mission completion.
package rewards

import "fmt"

// Difficulty selects the reward tier for a mission.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

// AllDifficulties returns the difficulties in ascending order.
func AllDifficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyNormal, DifficultyHard}
}

// DisplayName returns a human-readable label for the difficulty.
func (d Difficulty) DisplayName() string {
	switch d {
	case DifficultyEasy:
		return "Easy"
	case DifficultyNormal:
		return "Normal"
	case DifficultyHard:
		return "Hard"
	default:
		return string(d)
	}
}

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyNormal, DifficultyHard:
		return true
	}
	return false
}

// ParseDifficulty converts a string to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(s)
	if !d.Valid() {
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
	return d, nil
}

// Spec is one row of the reward table: the fragment range, log-key range,
// and fixed XP for a completed mission at a given difficulty.
type Spec struct {
	FragmentMin int
	FragmentMax int
	LogKeyMin   int
	LogKeyMax   int
	XP          int
}

// table is the static reward configuration. The Hard log-key range is rolled
// per completion, not once at load time.
var table = map[Difficulty]Spec{
	DifficultyEasy:   {FragmentMin: 100, FragmentMax: 250, LogKeyMin: 1, LogKeyMax: 1, XP: 50},
	DifficultyNormal: {FragmentMin: 300, FragmentMax: 750, LogKeyMin: 2, LogKeyMax: 2, XP: 150},
	DifficultyHard:   {FragmentMin: 1200, FragmentMax: 3000, LogKeyMin: 3, LogKeyMax: 6, XP: 500},
}

// SpecFor returns the reward table row for the given difficulty.
func SpecFor(d Difficulty) (Spec, error) {
	spec, ok := table[d]
	if !ok {
		return Spec{}, fmt.Errorf("no reward spec for difficulty %q", d)
	}
	return spec, nil
}

package navigation

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ExitDir is one of the twelve exit directions.
type ExitDir int8

const (
	Unknown ExitDir = iota - 1
	North
	East
	South
	West
	Up
	Down
	Northwest
	Northeast
	Southeast
	Southwest
	In
	Out
)

type dirInfo struct {
	name     string
	abbr     string
	reverse  ExitDir
	delta    [3]int
	describe string
}

var dirTable = [...]dirInfo{
	North:     {"north", "N", South, [3]int{0, 1, 0}, "the north"},
	East:      {"east", "E", West, [3]int{1, 0, 0}, "the east"},
	South:     {"south", "S", North, [3]int{0, -1, 0}, "the south"},
	West:      {"west", "W", East, [3]int{-1, 0, 0}, "the west"},
	Up:        {"up", "U", Down, [3]int{0, 0, 1}, "above"},
	Down:      {"down", "D", Up, [3]int{0, 0, -1}, "below"},
	Northwest: {"northwest", "NW", Southeast, [3]int{-1, 1, 0}, "the northwest"},
	Northeast: {"northeast", "NE", Southwest, [3]int{1, 1, 0}, "the northeast"},
	Southeast: {"southeast", "SE", Northwest, [3]int{1, -1, 0}, "the southeast"},
	Southwest: {"southwest", "SW", Northeast, [3]int{-1, -1, 0}, "the southwest"},
	In:        {"in", "I", Out, [3]int{}, "inside"},
	Out:       {"out", "O", In, [3]int{}, "outside"},
}

// Directions lists every valid direction in canonical order.
func Directions() []ExitDir {
	return []ExitDir{North, East, South, West, Up, Down, Northwest, Northeast, Southeast, Southwest, In, Out}
}

// Valid reports whether d is one of the twelve directions.
func (d ExitDir) Valid() bool {
	return d >= North && d <= Out
}

func (d ExitDir) String() string {
	if !d.Valid() {
		return "unknown"
	}
	return dirTable[d].name
}

// Title is the capitalized name, as used in player messages.
func (d ExitDir) Title() string {
	return cases.Title(language.English).String(d.String())
}

// Reverse returns the opposite direction; in and out are each other's reverse.
func (d ExitDir) Reverse() ExitDir {
	if !d.Valid() {
		return Unknown
	}
	return dirTable[d].reverse
}

// Abbreviation is the short form shown in exit lists.
func (d ExitDir) Abbreviation() string {
	if !d.Valid() {
		return "--"
	}
	return dirTable[d].abbr
}

// Delta is the unit (x, y, z) step of the direction. In and out have no spatial step.
func (d ExitDir) Delta() [3]int {
	if !d.Valid() {
		return [3]int{}
	}
	return dirTable[d].delta
}

// Describe names the side of a room d points at: "the north", "above", "inside".
func (d ExitDir) Describe() string {
	if !d.Valid() {
		return "somewhere"
	}
	return dirTable[d].describe
}

// ArrivalFrom is where a mover heading in d is seen arriving from.
func (d ExitDir) ArrivalFrom() string {
	return d.Reverse().Describe()
}

// ParseDir accepts full names and abbreviations, case-insensitively.
func ParseDir(token string) (ExitDir, bool) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return Unknown, false
	}
	for _, d := range Directions() {
		info := dirTable[d]
		if token == info.name || token == strings.ToLower(info.abbr) {
			return d, true
		}
	}
	return Unknown, false
}

// MarshalText writes the direction name.
func (d ExitDir) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, ErrUnknownDirection
	}
	return []byte(d.String()), nil
}

// UnmarshalText reads a direction name or abbreviation.
func (d *ExitDir) UnmarshalText(text []byte) error {
	parsed, ok := ParseDir(string(text))
	if !ok {
		return ErrUnknownDirection
	}
	*d = parsed
	return nil
}

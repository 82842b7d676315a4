package commands

import (
	"regexp"
	"strings"
)

var inputPattern = regexp.MustCompile(`^(?P<cmd>(?P<prefix>[|@+$-]+)?(?P<name>\w+))(?P<switches>(?:/\w+)*)(?: +(?P<args>.+))?`)

var (
	groupCmd      = inputPattern.SubexpIndex("cmd")
	groupPrefix   = inputPattern.SubexpIndex("prefix")
	groupName     = inputPattern.SubexpIndex("name")
	groupSwitches = inputPattern.SubexpIndex("switches")
	groupArgs     = inputPattern.SubexpIndex("args")
)

// Input is one parsed line of player text.
//
//	@desc/quiet here = A small room\=cell.
//
// parses to Cmd "@desc", Prefix "@", Name "desc", Switches ["quiet"], Left "here" and
// Right "A small room=cell.".
type Input struct {
	Line     string
	Cmd      string
	Prefix   string
	Name     string
	Switches []string
	// Args is the raw argument tail with escapes intact.
	Args  string
	Left  string
	Right string
	// HasRight is set when the arguments contained an unescaped '='.
	HasRight bool
}

// ParseInput splits a line by the command grammar. Text that does not start with a command
// token does not parse.
func ParseInput(line string) (Input, bool) {
	line = strings.TrimSpace(line)
	m := inputPattern.FindStringSubmatch(line)
	if m == nil {
		return Input{Line: line}, false
	}
	in := Input{
		Line:   line,
		Cmd:    m[groupCmd],
		Prefix: m[groupPrefix],
		Name:   m[groupName],
		Args:   strings.TrimSpace(m[groupArgs]),
	}
	if sw := m[groupSwitches]; sw != "" {
		in.Switches = strings.Split(strings.TrimPrefix(sw, "/"), "/")
	}
	in.Left, in.Right, in.HasRight = splitArgs(in.Args)
	return in, true
}

// Fields splits the argument tail on whitespace.
func (in Input) Fields() []string {
	return strings.Fields(in.Args)
}

// HasSwitch reports whether the switch was given, case-insensitively.
func (in Input) HasSwitch(name string) bool {
	for _, s := range in.Switches {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// splitArgs cuts args at the first unescaped '='. "\=" is a literal '=' on either side.
func splitArgs(args string) (left, right string, found bool) {
	var b strings.Builder
	for i := 0; i < len(args); i++ {
		c := args[i]
		if c == '\\' && i+1 < len(args) && args[i+1] == '=' {
			b.WriteByte('=')
			i++
			continue
		}
		if c == '=' && !found {
			left = b.String()
			b.Reset()
			found = true
			continue
		}
		b.WriteByte(c)
	}
	if !found {
		return strings.TrimSpace(b.String()), "", false
	}
	return strings.TrimSpace(left), strings.TrimSpace(b.String()), true
}

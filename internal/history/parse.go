package history

import (
	"strconv"
	"strings"
	"time"
)

// bashParser handles one command per line. With HISTTIMEFORMAT set, a
// timestamp line #<unix_ts> precedes each command.
type bashParser struct {
	pendingTimestamp time.Time
}

func (p *bashParser) line(line string) []Entry {
	if line == "" {
		return nil
	}
	if strings.HasPrefix(line, "#") && len(line) > 1 {
		if ts, err := strconv.ParseInt(line[1:], 10, 64); err == nil {
			p.pendingTimestamp = time.Unix(ts, 0)
			return nil
		}
	}
	e := Entry{Command: line, Timestamp: p.pendingTimestamp}
	p.pendingTimestamp = time.Time{}
	return []Entry{e}
}

func (p *bashParser) finish() []Entry { return nil }

// zshParser handles the extended history format
// `: <timestamp>:<duration>;<command>` and backslash continuation lines.
type zshParser struct {
	multilineCmd     strings.Builder
	pendingTimestamp time.Time
}

func (p *zshParser) line(line string) []Entry {
	if p.multilineCmd.Len() > 0 {
		return p.continueMultiline(line)
	}
	return p.parseFreshLine(line)
}

func (p *zshParser) continueMultiline(line string) []Entry {
	if hasUnescapedTrailingBackslash(line) {
		p.multilineCmd.WriteString(line[:len(line)-1])
		p.multilineCmd.WriteString("\n")
		return nil
	}
	p.multilineCmd.WriteString(line)
	e := p.take(p.multilineCmd.String())
	p.multilineCmd.Reset()
	return []Entry{e}
}

func (p *zshParser) parseFreshLine(line string) []Entry {
	if strings.HasPrefix(line, ": ") {
		if idx := strings.Index(line, ";"); idx != -1 {
			meta := line[2:idx] // "<ts>:<dur>"
			if colonIdx := strings.Index(meta, ":"); colonIdx != -1 {
				if ts, err := strconv.ParseInt(meta[:colonIdx], 10, 64); err == nil {
					p.pendingTimestamp = time.Unix(ts, 0)
				}
			}
			return p.addCommand(line[idx+1:])
		}
	}
	return p.addCommand(line)
}

func (p *zshParser) addCommand(cmd string) []Entry {
	if hasUnescapedTrailingBackslash(cmd) {
		p.multilineCmd.WriteString(cmd[:len(cmd)-1])
		p.multilineCmd.WriteString("\n")
		return nil
	}
	if cmd == "" {
		return nil
	}
	return []Entry{p.take(cmd)}
}

func (p *zshParser) take(cmd string) Entry {
	e := Entry{Command: cmd, Timestamp: p.pendingTimestamp}
	p.pendingTimestamp = time.Time{}
	return e
}

func (p *zshParser) finish() []Entry {
	if p.multilineCmd.Len() == 0 {
		return nil
	}
	e := p.take(strings.TrimSuffix(p.multilineCmd.String(), "\n"))
	p.multilineCmd.Reset()
	return []Entry{e}
}

// hasUnescapedTrailingBackslash reports whether s ends in an odd number of
// backslashes.
func hasUnescapedTrailingBackslash(s string) bool {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

// fishParser handles fish's pseudo-YAML format:
//
//   - cmd: <command>
//     when: <unix_timestamp>
type fishParser struct {
	currentTimestamp time.Time
	currentCmd       string
	inPaths          bool
}

func (p *fishParser) line(line string) []Entry {
	switch {
	case strings.HasPrefix(line, "- cmd: "):
		out := p.flush()
		p.currentCmd = strings.TrimPrefix(line, "- cmd: ")
		p.inPaths = false
		return out
	case strings.HasPrefix(line, "  when: "):
		if ts, err := strconv.ParseInt(strings.TrimPrefix(line, "  when: "), 10, 64); err == nil {
			p.currentTimestamp = time.Unix(ts, 0)
		}
		p.inPaths = false
	case strings.HasPrefix(line, "  paths:"):
		p.inPaths = true
	case p.inPaths && strings.HasPrefix(line, "    "):
		// Ignore paths section content.
	case !strings.HasPrefix(line, " "):
		p.inPaths = false
	}
	return nil
}

func (p *fishParser) flush() []Entry {
	if p.currentCmd == "" {
		return nil
	}
	e := Entry{Command: decodeFishEscapes(p.currentCmd), Timestamp: p.currentTimestamp}
	p.currentCmd = ""
	p.currentTimestamp = time.Time{}
	return []Entry{e}
}

func (p *fishParser) finish() []Entry { return p.flush() }

// decodeFishEscapes decodes fish shell escape sequences.
// Fish uses: \\ for literal backslash, \n for newline.
func decodeFishEscapes(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	i := 0
	for i < len(s) {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '\\':
				result.WriteByte('\\')
				i += 2
			case 'n':
				result.WriteByte('\n')
				i += 2
			default:
				result.WriteByte(s[i])
				i++
			}
		} else {
			result.WriteByte(s[i])
			i++
		}
	}
	return result.String()
}

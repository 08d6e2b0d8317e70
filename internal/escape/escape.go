// Package escape detects in-band commands in the keystrokes a user types
// at the relay: an escape character followed by a command character.
package escape

// Action is what the caller should do after a chunk was scanned
type Action int

const (
	None      Action = iota
	Terminate        // <esc> .
	Reconnect        // <esc> n
)

func (a Action) String() string {
	switch a {
	case None:
		return "none"
	case Terminate:
		return "terminate"
	case Reconnect:
		return "reconnect"
	default:
		return "unknown"
	}
}

type state int

const (
	stateNormal state = iota
	stateSawEscape
)

// Scanner is a two-state machine over the user's keystrokes. Its state is
// kept between calls so a sequence split across two reads is still seen.
type Scanner struct {
	esc   byte
	state state
}

// New returns a Scanner for the given escape character
func New(esc byte) *Scanner {
	return &Scanner{esc: esc}
}

// Pending reports whether the last byte scanned was an unconsumed escape
func (s *Scanner) Pending() bool {
	return s.state == stateSawEscape
}

// Scan processes p and returns the bytes that should be forwarded to the
// device together with the resulting action. The escape character and the
// command characters that follow it are removed; any other byte after the
// escape is forwarded as typed, so <esc><esc> sends one escape character.
//
// The returned slice aliases p. On Terminate the scan stops at the command
// character; otherwise every byte is processed and the last non-None action
// wins.
func (s *Scanner) Scan(p []byte) ([]byte, Action) {
	out := p[:0]
	action := None

	for _, b := range p {
		switch s.state {
		case stateNormal:
			if b == s.esc {
				s.state = stateSawEscape
				continue
			}
			out = append(out, b)

		case stateSawEscape:
			s.state = stateNormal
			switch b {
			case '.':
				return out, Terminate
			case 'n':
				action = Reconnect
			default:
				out = append(out, b)
			}
		}
	}

	return out, action
}

package remote

import "strings"

// Kind tags a parsed remote command.
type Kind int

const (
	// KindUnknown marks a line that matched no command. It never
	// reaches the bus; the listener drops it with a warning.
	KindUnknown Kind = iota
	// KindNew creates a conversation.
	KindNew
	// KindSend submits text to the active conversation.
	KindSend
	// KindModel switches the active conversation's model.
	KindModel
	// KindStatus requests a status line on the same connection.
	KindStatus
)

func (k Kind) String() string {
	switch k {
	case KindNew:
		return "NEW"
	case KindSend:
		return "SEND"
	case KindModel:
		return "MODEL"
	case KindStatus:
		return "STATUS"
	default:
		return "UNKNOWN"
	}
}

// Command is one parsed line from the control connection.
type Command struct {
	Kind Kind
	// Arg is the SEND text or MODEL identifier; empty otherwise.
	Arg string
}

// Parse maps a raw line onto the command grammar. Unparseable input
// becomes KindUnknown rather than an error; the grammar has no error
// frames, so the caller just ignores it.
func Parse(line string) Command {
	line = strings.TrimSpace(line)
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch verb {
	case "NEW":
		if rest != "" {
			return Command{Kind: KindUnknown}
		}
		return Command{Kind: KindNew}
	case "SEND":
		if rest == "" {
			return Command{Kind: KindUnknown}
		}
		return Command{Kind: KindSend, Arg: rest}
	case "MODEL":
		if rest == "" || strings.ContainsAny(rest, " \t") {
			return Command{Kind: KindUnknown}
		}
		return Command{Kind: KindModel, Arg: rest}
	case "STATUS":
		if rest != "" {
			return Command{Kind: KindUnknown}
		}
		return Command{Kind: KindStatus}
	default:
		return Command{Kind: KindUnknown}
	}
}

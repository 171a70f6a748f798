package tui

// Focus names the pane that receives keyboard input. Exactly one pane
// is focused at any time.
type Focus int

const (
	FocusList Focus = iota
	FocusChat
	FocusInput
	FocusModelSelect
)

func (f Focus) String() string {
	switch f {
	case FocusList:
		return "list"
	case FocusChat:
		return "chat"
	case FocusInput:
		return "input"
	case FocusModelSelect:
		return "models"
	default:
		return "unknown"
	}
}

// Next returns the pane after f in the fixed cycle
// list -> chat -> input -> models -> list.
func (f Focus) Next() Focus {
	switch f {
	case FocusList:
		return FocusChat
	case FocusChat:
		return FocusInput
	case FocusInput:
		return FocusModelSelect
	default:
		return FocusList
	}
}

// InputMode is the sub-state of the input pane. Keys only become text
// while editing; in normal mode they stay global shortcuts.
type InputMode int

const (
	InputNormal InputMode = iota
	InputEditing
)

package tui

import (
	"errors"
	"os/exec"
	"strings"
)

// clipboardWriters lists external copy commands in preference order.
// The first one that runs successfully wins.
var clipboardWriters = [][]string{
	{"pbcopy"},
	{"xclip", "-selection", "clipboard"},
	{"xsel", "--clipboard", "--input"},
	{"wl-copy"},
	{"clip.exe"},
}

// copyToClipboard pipes text into the first working system clipboard
// command. There is no in-process clipboard on any platform we target,
// so a missing utility is surfaced as an error for the feedback line.
func copyToClipboard(text string) error {
	for _, args := range clipboardWriters {
		if _, err := exec.LookPath(args[0]); err != nil {
			continue
		}
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Stdin = strings.NewReader(text)
		if err := cmd.Run(); err == nil {
			return nil
		}
	}
	return errors.New("no clipboard command available")
}

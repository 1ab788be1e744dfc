package selector

import (
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// EnterRawMode puts fd into raw mode for the duration of an interactive
// pick and returns a function that restores the prior terminal state,
// grounded on PCILeechGen's own golang.org/x/term dependency. Raw mode is
// what makes ReadKey's single-byte/escape-sequence reads observe each
// keystroke immediately instead of waiting for a line to be buffered.
func EnterRawMode(fd int) (restore func() error, err error) {
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() error { return term.Restore(fd, state) }, nil
}

// TerminalRows reports how many rows a picker should show per page by
// querying fd's window size (TIOCGWINSZ), reserving a few lines for the
// search prompt and command footer. It falls back to DisplayWidth when fd
// isn't a terminal or the ioctl fails, grounded on PCILeechGen's own
// golang.org/x/sys dependency (otherwise unused in that repo itself).
func TerminalRows(fd int) int {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil || ws.Row == 0 {
		return DisplayWidth
	}
	rows := int(ws.Row) - 4
	if rows < 1 {
		rows = 1
	}
	return rows
}

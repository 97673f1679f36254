package sysutil

import (
	"io"
	"os"
	"os/exec"
	"runtime"
)

// clearSequence moves the cursor home and erases the screen.
const clearSequence = "\033[H\033[2J"

// ClearTerminal clears the terminal screen. On Windows the console is cleared
// with cls, elsewhere an ANSI sequence is written to w.
func ClearTerminal(w io.Writer) error {
	if runtime.GOOS == "windows" {
		cmd := exec.Command("cmd", "/c", "cls")
		cmd.Stdout = os.Stdout
		return cmd.Run()
	}

	_, err := io.WriteString(w, clearSequence)
	return err
}

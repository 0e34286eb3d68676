package sysutil

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// clearSequence moves the cursor home and clears the screen on ANSI
// terminals.
const clearSequence = "\033[H\033[2J"

// ClearTerminal clears the terminal screen. It runs the platform command
// when there is one and writes the ANSI sequence to out otherwise.
func ClearTerminal(out io.Writer) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "cls")
	case "linux", "darwin", "freebsd", "openbsd", "netbsd":
		cmd = exec.Command("clear")
	}

	if cmd != nil && out == os.Stdout {
		cmd.Stdout = os.Stdout
		if err := cmd.Run(); err == nil {
			return
		}
	}

	_, _ = fmt.Fprint(out, clearSequence)
}

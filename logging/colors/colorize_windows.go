//go:build windows
// +build windows

package colors

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

var (
	kernel32           = syscall.NewLazyDLL("kernel32.dll")
	procGetConsoleMode = kernel32.NewProc("GetConsoleMode")
)

// enableVirtualTerminalProcessing is the console mode bit indicating ANSI escape code support.
const enableVirtualTerminalProcessing = 0x0004

var enabled bool

// EnableColor makes a kernel call to see whether ANSI escape codes are supported on the stdout channel for the
// Windows system.
func EnableColor() {
	var mode uint32
	// If the mode lacks the virtual terminal processing bit then stdout does not support ANSI escape codes
	if r, _, _ := procGetConsoleMode.Call(os.Stdout.Fd(), uintptr(unsafe.Pointer(&mode))); r != 0 && mode&enableVirtualTerminalProcessing != 0 {
		enabled = true
	} else {
		enabled = false
	}
}

// Colorize returns the string s wrapped in ANSI code c, assuming ANSI is supported on this Windows version.
func Colorize(s any, c Color) string {
	// If ANSI is not supported then just return the original string
	if !enabled {
		return fmt.Sprintf("%v", s)
	}
	return fmt.Sprintf("\x1b[%dm%v\x1b[0m", c, s)
}

package config

import (
	"fmt"
	"io"
	"os"
)

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	writeExitMessage(os.Stderr, format, args...)
	os.Exit(1)
}

func writeExitMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}

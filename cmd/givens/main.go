package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		var failed *failedError
		if !errors.As(err, &failed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// failedError is returned when diagnostics were already printed.
type failedError struct {
	count int
}

func (e *failedError) Error() string {
	return fmt.Sprintf("%d error(s)", e.count)
}

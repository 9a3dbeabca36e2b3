package main

import (
	"fmt"
	"io"

	"github.com/rohankatakam/gitpulse/internal/errors"
)

// Exit codes
const (
	exitFailure = 1
	exitUsage   = 2
	exitFatal   = 3
)

// reportError prints err, with its type, cause and context under -v
func reportError(w io.Writer, err error, verbose bool) {
	var e *errors.Error
	if verbose && errors.As(err, &e) {
		fmt.Fprint(w, "Error: ", e.DetailedString())
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

func exitCode(err error) int {
	switch errors.GetType(err) {
	case errors.ErrorTypeValidation, errors.ErrorTypeConfig:
		return exitUsage
	}
	if errors.GetSeverity(err) == errors.SeverityCritical {
		return exitFatal
	}
	return exitFailure
}

package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess          = 0 // Run completed, every combination scored or skipped
	ExitExtractionFailed = 1 // One or more combinations failed at runtime
	ExitError            = 2 // Configuration or runtime error
)

// ExtractionFailureError indicates that the run itself completed, but
// one or more extractions failed (provider errors, malformed output).
type ExtractionFailureError struct {
	Message string
}

func (e *ExtractionFailureError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var extractionErr *ExtractionFailureError
		if errors.As(err, &extractionErr) {
			os.Exit(ExitExtractionFailed)
		}

		os.Exit(ExitError)
	}
}

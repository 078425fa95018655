package llm

import (
	"fmt"
	"strings"
)

// Attempt records one failed provider invocation during fallback.
type Attempt struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Err      string `json:"error"`
}

// ExhaustedError is returned when every candidate in the selection failed.
// It carries the full attempt trail for diagnostics.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s/%s: %s", a.Provider, a.Model, a.Err)
	}
	return fmt.Sprintf("llm: all %d candidates failed: %s", len(e.Attempts), strings.Join(parts, "; "))
}

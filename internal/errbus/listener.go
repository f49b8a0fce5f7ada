package errbus

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
)

// LogListener returns a Handler that writes each report as a structured
// error record. It is what the server and headless tools subscribe.
func LogListener(logger *slog.Logger) Handler {
	return func(e *PermissionError) {
		logger.Error("permission_denied",
			"path", e.Path,
			"operation", string(e.Operation),
			"has_payload", e.RequestResourceData != nil,
		)
	}
}

// ColorListener prints each report as a red panel on w, with the denied
// request's payload when there is one. The CLI subscribes it so a denial is
// never silent.
func ColorListener(w io.Writer) Handler {
	title := color.New(color.FgRed, color.Bold)
	label := color.New(color.FgHiBlack)
	return func(e *PermissionError) {
		title.Fprintln(w, "✖ Missing or insufficient permissions")
		label.Fprint(w, "  operation: ")
		fmt.Fprintln(w, e.Operation)
		label.Fprint(w, "  path:      ")
		fmt.Fprintln(w, e.Path)
		if e.RequestResourceData != nil {
			data, err := json.Marshal(e.RequestResourceData)
			if err == nil {
				label.Fprint(w, "  data:      ")
				fmt.Fprintln(w, string(data))
			}
		}
	}
}

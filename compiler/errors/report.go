package errors

import (
	"encoding/json"
	"fmt"
)

// Severity ranks a report. The zero value is Info; HasErrors counts
// only Error and above.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
	Fatal
)

// severityNames indexes display names by severity value
var severityNames = [...]string{
	Info:    "info",
	Warning: "warning",
	Error:   "error",
	Fatal:   "fatal",
}

// String returns the display name of the severity
func (s Severity) String() string {
	if s < Info || int(s) >= len(severityNames) {
		return "unknown"
	}
	return severityNames[s]
}

// ParseSeverity maps a display name back to its severity. Unknown
// names fall back to Error, the reporter's dominant severity.
func ParseSeverity(name string) Severity {
	for sev, n := range severityNames {
		if n == name {
			return Severity(sev)
		}
	}
	return Error
}

// MarshalJSON implements json.Marshaler for Severity
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler for Severity
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*s = ParseSeverity(name)
	return nil
}

// Report is one accumulated diagnostic: a message anchored at a
// 1-based source coordinate, the text of the offending token (which
// sizes the caret underline), and an optional hint.
type Report struct {
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	Line      int      `json:"line"`
	Column    int      `json:"column"`
	TokenText string   `json:"token_text,omitempty"`
	Hint      string   `json:"hint,omitempty"`
}

// Error implements the error interface
func (r Report) Error() string {
	return fmt.Sprintf("%d:%d: %s: %s", r.Line, r.Column, r.Severity, r.Message)
}

// IsError reports whether the diagnostic counts against HasErrors;
// warnings and infos do not
func (r Report) IsError() bool {
	return r.Severity >= Error
}

// IsWarning reports whether the diagnostic is a warning
func (r Report) IsWarning() bool {
	return r.Severity == Warning
}

// MarshalReports renders a report list as JSON for tooling consumers
func MarshalReports(reports []Report) ([]byte, error) {
	return json.MarshalIndent(reports, "", "  ")
}

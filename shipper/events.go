package shipper

import (
	"fmt"

	"github.com/google/uuid"
)

// ElementInfo carries the DOM element details an audit rule captured.
type ElementInfo struct {
	TagName string
}

func tagName(el *ElementInfo) string {
	if el != nil && el.TagName != "" {
		return el.TagName
	}
	return "unknown"
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// NewSessionID returns a fresh correlation identifier for callers that want
// their audit events grouped but have no session of their own.
func NewSessionID() string {
	return uuid.NewString()
}

// ContrastData describes a color-contrast violation. Ratio is a pointer
// because an unmeasured ratio and a ratio of zero are different things: only
// a measured ratio below 3 escalates the entry to error level.
type ContrastData struct {
	Selector      string
	Ratio         *float64
	RequiredRatio *float64
	Foreground    string
	Background    string
	WCAGLevel     string
	Element       *ElementInfo
	Page          string
	Theme         string
	SessionID     string
}

// Contrast records a color-contrast violation.
func (s *Shipper) Contrast(message string, d ContrastData) {
	level := LevelWarn
	if d.Ratio != nil && *d.Ratio < 3 {
		level = LevelError
	}

	ratio := 0.0
	if d.Ratio != nil {
		ratio = *d.Ratio
	}
	requiredRatio := 4.5
	if d.RequiredRatio != nil {
		requiredRatio = *d.RequiredRatio
	}

	s.record(level, message, d.SessionID, map[string]interface{}{
		"type":          "contrast",
		"selector":      orUnknown(d.Selector),
		"ratio":         ratio,
		"requiredRatio": requiredRatio,
		"foreground":    orUnknown(d.Foreground),
		"background":    orUnknown(d.Background),
		"wcagLevel":     defaultString(d.WCAGLevel, "AA"),
		"tagName":       tagName(d.Element),
		"page":          d.Page,
		"theme":         d.Theme,
	})
}

// WCAGData describes a failed WCAG rule check.
type WCAGData struct {
	Selector  string
	Rule      string
	WCAGLevel string
	Severity  string
	SessionID string
}

// WCAG records a WCAG rule failure. Severity "error" escalates the entry;
// anything else, including an absent severity, stays at warn.
func (s *Shipper) WCAG(message string, d WCAGData) {
	level := LevelWarn
	if d.Severity == "error" {
		level = LevelError
	}

	s.record(level, message, d.SessionID, map[string]interface{}{
		"type":      "wcag",
		"selector":  orUnknown(d.Selector),
		"rule":      orUnknown(d.Rule),
		"wcagLevel": defaultString(d.WCAGLevel, "AA"),
		"severity":  defaultString(d.Severity, "warning"),
	})
}

// EvaluationData summarizes one audit run over a page.
type EvaluationData struct {
	ResultsCount     int
	IssuesCount      int
	CriticalCount    int
	EvaluationTimeMs float64
	SessionID        string
}

// Evaluation records the outcome of one audit run.
func (s *Shipper) Evaluation(message string, d EvaluationData) {
	s.record(LevelInfo, message, d.SessionID, map[string]interface{}{
		"type":             "evaluation",
		"resultsCount":     d.ResultsCount,
		"issuesCount":      d.IssuesCount,
		"criticalCount":    d.CriticalCount,
		"evaluationTimeMs": d.EvaluationTimeMs,
	})
}

// SessionData describes a monitoring-session lifecycle event.
type SessionData struct {
	Action    string
	UserID    string
	UserAgent string
	SessionID string
}

// Session records a session lifecycle event.
func (s *Shipper) Session(message string, d SessionData) {
	s.record(LevelInfo, message, d.SessionID, map[string]interface{}{
		"type":      "session",
		"action":    orUnknown(d.Action),
		"userId":    defaultString(d.UserID, "anonymous"),
		"userAgent": orUnknown(d.UserAgent),
	})
}

// ErrorData describes a failure inside the audit tooling itself.
type ErrorData struct {
	Error     string
	Stack     string
	SessionID string
}

// Error records an internal audit-tooling failure.
func (s *Shipper) Error(message string, d ErrorData) {
	s.record(LevelError, message, d.SessionID, map[string]interface{}{
		"type":  "error",
		"error": orUnknown(d.Error),
		"stack": d.Stack,
	})
}

// SummaryData totals an audit run. All fields are required; the message is
// synthesized from them.
type SummaryData struct {
	Issues         int
	CriticalIssues int
	SessionID      string
}

// Summary records an audit totals entry with a synthesized message.
func (s *Shipper) Summary(d SummaryData) {
	message := fmt.Sprintf("Accessibility summary: %d issues (%d critical)", d.Issues, d.CriticalIssues)
	s.record(LevelInfo, message, d.SessionID, map[string]interface{}{
		"type":           "summary",
		"issues":         d.Issues,
		"criticalIssues": d.CriticalIssues,
	})
}

// AriaData describes an ARIA usage issue.
type AriaData struct {
	Selector  string
	Issue     string
	Element   *ElementInfo
	Fix       string
	Page      string
	SessionID string
}

// Aria records an ARIA usage issue.
func (s *Shipper) Aria(message string, d AriaData) {
	s.record(LevelWarn, message, d.SessionID, map[string]interface{}{
		"type":     "aria",
		"selector": orUnknown(d.Selector),
		"issue":    orUnknown(d.Issue),
		"tagName":  tagName(d.Element),
		"fix":      d.Fix,
		"page":     d.Page,
	})
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

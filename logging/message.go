package logging

// LogMessage is implemented by everything the logger can display
type LogMessage interface {
	display()
	isError() bool
}

// Enumeration of check-message kinds
const (
	LMKScenario = iota // malformed scenario file
	LMKNotation        // unparseable type notation
	LMKTyping          // no consistent typing exists
	LMKOverload        // overload resolution failure or ambiguity
	LMKCast            // unsupported checked cast
	LMKUsage           // bad command line usage
)

// LogContext carries the source information shared by every message logged
// while checking one scenario file
type LogContext struct {
	// FilePath is the path of the scenario being checked
	FilePath string
}

// TextSpan selects a range of columns within one line of in-memory source
// text, for underlining the offending part of a type notation
type TextSpan struct {
	Start, End int
}

// CheckMessage is a message produced while checking a scenario: either an
// error (the scenario does not type check) or a warning
type CheckMessage struct {
	Message string
	Kind    int
	Context *LogContext
	IsError bool

	// Source is the type-notation text the message refers to, if any
	Source string

	// Span is the offending range within Source, if any
	Span *TextSpan
}

func (cm *CheckMessage) isError() bool {
	return cm.IsError
}

// ConfigError is an error in tool configuration or scenario loading
type ConfigError struct {
	Kind    string
	Message string
}

func (ce *ConfigError) isError() bool {
	return true
}

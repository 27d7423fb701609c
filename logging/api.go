package logging

// logger is a global reference to a shared Logger (created/initialized with the
// tool, but separated for general usage)
var logger Logger

// Initialize initializes the global logger with the provided log level
func Initialize(loglevelname string) {
	var loglevel int
	switch loglevelname {
	case "silent":
		loglevel = LogLevelSilent
	case "error":
		loglevel = LogLevelError
	case "warning":
		loglevel = LogLevelWarning
	// everything else (including invalid log levels) should default to verbose
	default:
		loglevel = LogLevelVerbose
	}

	logger = newLogger(loglevel)
}

// ShouldProceed indicates whether or not the log module has encountered an
// error.  This is useful for sections of the tool where multiple scenarios are
// processed in sequence and having an error accumulator would be practical
func ShouldProceed() bool {
	return logger.errorCount == 0
}

// -----------------------------------------------------------------------------
// NOTE: All log functions will only display if the appropriate log level is
// set.  Most log functions will simply fail silently if below their appropriate
// log level.

// LogCheckError logs a check error (user-induced, bad scenario)
func LogCheckError(lctx *LogContext, message string, kind int) {
	logger.handleMsg(&CheckMessage{
		Message: message,
		Kind:    kind,
		Context: lctx,
		IsError: true,
	})
}

// LogNotationError logs an error within a type-notation string, underlining
// the offending span
func LogNotationError(lctx *LogContext, message, source string, span *TextSpan) {
	logger.handleMsg(&CheckMessage{
		Message: message,
		Kind:    LMKNotation,
		Context: lctx,
		IsError: true,
		Source:  source,
		Span:    span,
	})
}

// LogCheckWarning logs a check warning (user-induced, suspicious scenario)
func LogCheckWarning(lctx *LogContext, message string, kind int) {
	logger.handleMsg(&CheckMessage{
		Message: message,
		Kind:    kind,
		Context: lctx,
		IsError: false,
	})
}

// LogConfigError logs an error related to tool configuration or loading
func LogConfigError(kind, message string) {
	logger.handleMsg(&ConfigError{Kind: kind, Message: message})
}

// LogFatal logs a fatal internal error that was not expected: ie. the solver
// did something it wasn't supposed to.  It never returns.
func LogFatal(message string) {
	displayFatalError(message)
	panic(message)
}

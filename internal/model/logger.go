package model

//
// Logging
//

// Logger is the logger used by every package. The apex/log `log.Log`
// singleton satisfies it, and so does netem's logger interface.
type Logger interface {
	Debug(msg string)
	Debugf(format string, v ...interface{})
	Info(msg string)
	Infof(format string, v ...interface{})
	Warn(msg string)
	Warnf(format string, v ...interface{})
}

// DiscardLogger is a [Logger] that ignores its input.
var DiscardLogger Logger = discardLogger{}

type discardLogger struct{}

func (discardLogger) Debug(msg string)                       {}
func (discardLogger) Debugf(format string, v ...interface{}) {}
func (discardLogger) Info(msg string)                        {}
func (discardLogger) Infof(format string, v ...interface{})  {}
func (discardLogger) Warn(msg string)                        {}
func (discardLogger) Warnf(format string, v ...interface{})  {}

// ValidLoggerOrDefault returns logger when not nil and [DiscardLogger]
// otherwise.
func ValidLoggerOrDefault(logger Logger) Logger {
	if logger == nil {
		return DiscardLogger
	}
	return logger
}

// ErrorToStringOrOK returns the error string or "ok" when err is nil.
func ErrorToStringOrOK(err error) string {
	if err == nil {
		return "ok"
	}
	return err.Error()
}

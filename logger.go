package irrigate

import "github.com/sirupsen/logrus"

// LogrusLogger adapts a *logrus.Logger (or logrus.FieldLogger) to the
// engine's Logger collaborator interface. The core package never
// imports logrus beyond this thin adapter, so engine tests can run
// against NoopLogger without pulling in a formatting backend.
type LogrusLogger struct {
	L logrus.FieldLogger
}

// NewLogrusLogger builds a Logger backed by logrus's standard logger,
// with full timestamps and sorted-off fields for a stable log line shape.
func NewLogrusLogger() *LogrusLogger {
	l := logrus.StandardLogger()
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:  true,
		DisableSorting: true,
	})
	return &LogrusLogger{L: l}
}

func (l *LogrusLogger) Debugf(format string, args ...interface{}) { l.L.Debugf(format, args...) }
func (l *LogrusLogger) Infof(format string, args ...interface{})  { l.L.Infof(format, args...) }
func (l *LogrusLogger) Warnf(format string, args ...interface{})  { l.L.Warnf(format, args...) }
func (l *LogrusLogger) Errorf(format string, args ...interface{}) { l.L.Errorf(format, args...) }

// NoopLogger discards everything; it is the default used by tests and
// by callers who have not wired a logging backend.
type NoopLogger struct{}

func (NoopLogger) Debugf(string, ...interface{}) {}
func (NoopLogger) Infof(string, ...interface{})  {}
func (NoopLogger) Warnf(string, ...interface{})  {}
func (NoopLogger) Errorf(string, ...interface{}) {}

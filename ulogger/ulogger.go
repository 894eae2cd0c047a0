// Package ulogger is the logging facade used across btcx. The zerolog backend
// is the default, gocore is kept for deployments that collect its format.
package ulogger

// ANSI colours of the console writer.
const (
	colorRed    = 31
	colorGreen  = 32
	colorYellow = 33
	colorBlue   = 34
	colorWhite  = 37
	colorBold   = 1
)

type Logger interface {
	LogLevel() int
	SetLogLevel(level string)
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	// New returns a logger for another service with the same level.
	New(service string, options ...Option) Logger
	Duplicate(options ...Option) Logger
}

// New returns the backend selected by WithLoggerType.
func New(service string, options ...Option) Logger {
	opts := DefaultOptions()
	for _, o := range options {
		o(opts)
	}

	if opts.loggerType == "gocore" {
		return NewGoCoreLogger(service, options...)
	}

	return NewZeroLogger(service, options...)
}

package ulogger

import (
	"github.com/ordishs/gocore"
)

// GoCoreLogger writes through gocore's logger.
type GoCoreLogger struct {
	*gocore.Logger
	skipFrame int
}

func NewGoCoreLogger(service string, options ...Option) *GoCoreLogger {
	if service == "" {
		service = "btcx"
	}

	opts := applyOptions(options)

	return &GoCoreLogger{
		Logger:    gocore.Log(service, gocore.NewLogLevelFromString(opts.logLevel)),
		skipFrame: opts.skip,
	}
}

func (g *GoCoreLogger) New(service string, options ...Option) Logger {
	return &GoCoreLogger{
		Logger:    gocore.Log(service, g.GetLogLevel()),
		skipFrame: applyOptions(options).skip,
	}
}

// Duplicate shares the underlying logger. Only WithSkipFrame is honoured.
func (g *GoCoreLogger) Duplicate(options ...Option) Logger {
	dup := &GoCoreLogger{Logger: g.Logger, skipFrame: g.skipFrame}

	if opts := applyOptions(options); opts.skip != DefaultOptions().skip {
		dup.skipFrame = opts.skip
	}

	return dup
}

// SetLogLevel is a no op, gocore fixes the level when the logger is created.
func (g *GoCoreLogger) SetLogLevel(_ string) {}

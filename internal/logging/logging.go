// Package logging configures the process-wide structured logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/phuslu/log"
)

// Setup installs the default logger. Debug forces debug level and caller
// info. Output is colored console text on a terminal and JSON otherwise.
func Setup(level string, debug bool, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}

	lvl := ParseLevel(level)
	caller := 0
	if debug {
		lvl = log.DebugLevel
		caller = 1
	}

	var writer log.Writer
	if f, ok := w.(*os.File); ok && log.IsTerminal(f.Fd()) {
		writer = &log.ConsoleWriter{
			Writer:      w,
			ColorOutput: true,
		}
	} else {
		writer = &log.IOWriter{Writer: w}
	}

	log.DefaultLogger = log.Logger{
		Level:      lvl,
		Caller:     caller,
		TimeFormat: "15:04:05",
		Writer:     writer,
	}
}

// ParseLevel maps a level name to a log level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

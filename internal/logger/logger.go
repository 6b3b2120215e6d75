// Package logger writes ragcore's diagnostic output to stderr.
//
// Errors are always written. Debug, info and warning lines and section
// banners only appear once SetVerbose(true) has been called, which the CLI
// does for --verbose.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	plog "github.com/phuslu/log"
)

type state struct {
	out     io.Writer
	verbose bool
	log     *plog.Logger
}

var (
	writeMu sync.Mutex
	current atomic.Pointer[state]
)

func init() {
	current.Store(newState(os.Stderr, false))
}

func newState(out io.Writer, verbose bool) *state {
	level := plog.ErrorLevel
	if verbose {
		level = plog.DebugLevel
	}
	return &state{
		out:     out,
		verbose: verbose,
		log: &plog.Logger{
			Level:  level,
			Writer: &plog.ConsoleWriter{Writer: out, Formatter: formatLine},
		},
	}
}

// update swaps in a new state derived from the current one.
func update(fn func(out io.Writer, verbose bool) (io.Writer, bool)) {
	writeMu.Lock()
	defer writeMu.Unlock()
	s := current.Load()
	current.Store(newState(fn(s.out, s.verbose)))
}

// formatLine renders "[LEVEL] message key=value ...".
func formatLine(w io.Writer, a *plog.FormatterArgs) (int, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(a.Level), a.Message)
	for _, kv := range a.KeyValues {
		fmt.Fprintf(&b, " %s=%s", kv.Key, kv.Value)
	}
	b.WriteByte('\n')
	return io.WriteString(w, b.String())
}

func SetVerbose(v bool) {
	update(func(out io.Writer, _ bool) (io.Writer, bool) { return out, v })
}

func IsVerbose() bool {
	return current.Load().verbose
}

// SetOutput redirects all output to w. Tests use it to capture lines.
func SetOutput(w io.Writer) {
	update(func(_ io.Writer, verbose bool) (io.Writer, bool) { return w, verbose })
}

func Debug(format string, args ...any) {
	current.Load().log.Debug().Msgf(format, args...)
}

func Info(format string, args ...any) {
	current.Load().log.Info().Msgf(format, args...)
}

func Warn(format string, args ...any) {
	current.Load().log.Warn().Msgf(format, args...)
}

// Section writes a "=== name ===" banner separating pipeline stages.
func Section(name string) {
	if s := current.Load(); s.verbose {
		fmt.Fprintf(s.out, "\n=== %s ===\n", name)
	}
}

// Error is written whatever the verbosity. err may be nil.
func Error(err error, format string, args ...any) {
	e := current.Load().log.Error()
	if err != nil {
		e = e.Str("error", err.Error())
	}
	e.Msgf(format, args...)
}

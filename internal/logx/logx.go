/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package logx is a small leveled logger built on logrus, mirroring
// log.c's log_reg/log_ok/log_wrn/log_err/log_perror: a timestamped,
// optionally colored, optionally prefixed line written to stdout and,
// if configured, appended to a log file. Both sinks are serialized
// with an advisory file lock so a line is never interleaved with one
// from a sibling process sharing the same file or terminal.
package logx

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Logger writes timestamped, leveled lines to stdout and, optionally,
// a log file. It uses a logrus.Logger purely as the level-aware
// dispatch core; line shape, coloring and file mirroring are this
// package's own, since they must match the original byte-for-byte.
type Logger struct {
	std   *logrus.Logger
	file  *os.File
	color bool
}

// Option configures a Logger built by New.
type Option func(*Logger)

// WithFile appends logged lines to the file at path in addition to
// stdout. A blank path disables file logging, matching the original's
// -o with no value.
func WithFile(path string) Option {
	return func(l *Logger) {
		if path == "" {
			return
		}
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0640)
		if err != nil {
			l.Warning("log: could not open %s for writing", path)
			return
		}
		l.file = f
	}
}

// WithForceColor forces ANSI colors even when stdout is not a
// terminal.
func WithForceColor(force bool) Option {
	return func(l *Logger) { l.color = force || l.color }
}

// lineHook renders the already-formatted line logrus hands it and
// mirrors it to the log file, under the same flock discipline as the
// stdout write logrus itself performs via std.Out.
type lineHook struct{ l *Logger }

func (h lineHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h lineHook) Fire(e *logrus.Entry) error {
	if h.l.file == nil {
		return nil
	}
	line, err := e.String()
	if err != nil {
		return err
	}
	withFlock(h.l.file, func() {
		fmt.Fprint(h.l.file, line)
	})
	return nil
}

// New builds a Logger; stdout is colorized automatically when it is a
// terminal, same default as the original's isatty check.
func New(opts ...Option) *Logger {
	l := &Logger{
		color: term.IsTerminal(int(os.Stdout.Fd())),
	}

	std := logrus.New()
	std.SetOutput(lockedWriter{os.Stdout})
	std.SetFormatter(&lineFormatter{l: l})
	std.SetLevel(logrus.TraceLevel)
	std.AddHook(lineHook{l: l})
	l.std = std

	for _, o := range opts {
		o(l)
	}
	return l
}

// lockedWriter serializes writes against any other process sharing
// the same fd, mirroring vlog_raw's fcntl(F_SETLKW) dance around the
// stdout write.
type lockedWriter struct{ f *os.File }

func (w lockedWriter) Write(p []byte) (int, error) {
	n := 0
	withFlock(w.f, func() {
		n, _ = w.f.Write(p)
	})
	return n, nil
}

// lineFormatter renders the literal "[timestamp] [PREFIX] message"
// shape log.c's vlog_raw produces, colorizing the whole line when the
// sink wants color.
type lineFormatter struct{ l *Logger }

func (f *lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	line := "[" + e.Time.Format(timeFormat) + "] "
	if prefix, ok := e.Data["prefix"].(string); ok && prefix != "" {
		line += "[" + prefix + "] "
	}
	line += e.Message

	if f.l.color {
		if attr, ok := e.Data["color"].(color.Attribute); ok {
			line = color.New(attr).Sprint(line)
		}
	}

	return []byte(line + "\n"), nil
}

// Close releases the log file, if any, syncing it first.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	_ = l.file.Sync()
	return l.file.Close()
}

const timeFormat = "2006-01-02 15:04:05 -0700"

// Reg logs an unprefixed, cyan-colored informational line (log_reg).
func (l *Logger) Reg(format string, args ...any) { l.emit("", color.FgCyan, format, args...) }

// Access logs an unprefixed access-log line, colored by response
// class the way request_log's request_get_color picks a color per
// status code: 2xx/3xx green, 4xx yellow, 5xx red, anything else the
// same cyan Reg uses.
func (l *Logger) Access(code int, format string, args ...any) {
	l.emit("", accessColor(code), format, args...)
}

func accessColor(code int) color.Attribute {
	switch {
	case code >= 500:
		return color.FgRed
	case code >= 400:
		return color.FgYellow
	case code >= 200 && code < 400:
		return color.FgGreen
	default:
		return color.FgCyan
	}
}

// Ok logs a green "OK"-prefixed line (log_ok).
func (l *Logger) Ok(format string, args ...any) { l.emit("OK", color.FgGreen, format, args...) }

// Warning logs a yellow "WRN"-prefixed line (log_wrn).
func (l *Logger) Warning(format string, args ...any) { l.emit("WRN", color.FgYellow, format, args...) }

// Err logs a red "ERR"-prefixed line (log_err).
func (l *Logger) Err(format string, args ...any) { l.emit("ERR", color.FgRed, format, args...) }

// Perror logs err, if non-nil, as an "ERR"-prefixed line of the form
// "<prefix>: <err>" (log_perror). A nil err is a silent no-op, exactly
// like the original checking errno == 0.
func (l *Logger) Perror(prefix string, err error) {
	if err == nil {
		return
	}
	l.emit("ERR", color.FgRed, "%s: %s", prefix, err)
}

func (l *Logger) emit(prefix string, attr color.Attribute, format string, args ...any) {
	l.std.WithFields(logrus.Fields{
		"prefix": prefix,
		"color":  attr,
	}).Info(fmt.Sprintf(format, args...))
}

// withFlock serializes fn against any other process writing to f,
// mirroring vlog_raw's fcntl(F_SETLKW) dance so a line written to f is
// never interleaved with a sibling process's line. Each sink is locked
// on its own; the file write and the stdout write of one line are not
// held under a single lock.
func withFlock(f *os.File, fn func()) {
	_ = unix.Flock(int(f.Fd()), unix.LOCK_EX)
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)
	fn()
}

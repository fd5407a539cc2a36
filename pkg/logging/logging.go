package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

type Logger struct {
	out     io.Writer
	err     io.Writer
	verbose bool
}

func DefaultLogger() Logger {
	return Logger{
		out:     os.Stdout,
		err:     os.Stderr,
		verbose: false,
	}
}

func NewLogger(out, err io.Writer, verbose bool) Logger {
	return Logger{
		out,
		err,
		verbose,
	}
}

type ctxKey struct{}

// Ctx returns the logger carried by the context, or the default logger when
// none was set.
func Ctx(ctx context.Context) Logger {
	if logger, ok := ctx.Value(ctxKey{}).(Logger); ok {
		return logger
	}
	return DefaultLogger()
}

// SetLogger returns a new context carrying the given logger.
func SetLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func (l *Logger) Out(f string, args ...interface{}) {
	fmt.Fprintf(l.out, f+"\n", args...)
}

func (l *Logger) OutRaw(s string) {
	fmt.Fprintf(l.out, "%s", s)
}

func (l *Logger) Info(tag string, f string, args ...interface{}) {
	print(l.err, color.New(color.FgHiGreen), tag, f, args...)
}

func (l *Logger) Debug(tag string, f string, args ...interface{}) {
	if l.verbose {
		print(l.err, color.New(color.FgGreen), tag, f, args...)
	}
}

func print(w io.Writer, tagColor *color.Color, tag, f string, args ...interface{}) {
	str := fmt.Sprintf(f, args...)
	for _, line := range strings.Split(str, "\n") {
		fmt.Fprintf(w, "%s  %s\n",
			tagColor.Sprint(tag),
			color.WhiteString(line))
	}
}

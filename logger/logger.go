package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
)

// Logger wraps a few log.Logger instances in private fields.
// They are accessible via their respective methods.
type Logger struct {
	debug   *log.Logger
	info    *log.Logger
	error   *log.Logger
	verbose bool
}

// NewLogger returns a reference to a Logger.
// By default debug and error go to os.Stderr, and info goes to os.Stdout
func NewLogger(verbose bool) *Logger {
	return NewLoggerWithWriters(verbose, os.Stdout, os.Stderr)
}

// NewLoggerWithWriters sends info to out and debug and error to errOut.
func NewLoggerWithWriters(verbose bool, out, errOut io.Writer) *Logger {
	return &Logger{
		log.New(errOut, "", 0),
		log.New(out, "", 0),
		log.New(errOut, "", 0),
		verbose,
	}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return NewLoggerWithWriters(false, io.Discard, io.Discard)
}

// Verbose reports whether debug messages are printed.
func (l *Logger) Verbose() bool {
	return l.verbose
}

// WithVerbose returns a Logger sharing the outputs of l with verbose set.
func (l *Logger) WithVerbose(verbose bool) *Logger {
	c := *l
	c.verbose = verbose
	return &c
}

// Debug prints a formatted message to stderr only if verbose is set.
// This method wraps log.Logger.Printf
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.verbose {
		l.debug.Printf(format, args...)
	}
}

// Info prints all args to os.Stdout
// This method wraps log.Logger.Print
func (l *Logger) Info(args ...interface{}) {
	l.info.Print(args...)
}

// Infoln prints all args to os.Stdout followed by a newline.
// This method wraps log.Logger.Println
func (l *Logger) Infoln(args ...interface{}) {
	l.info.Println(args...)
}

// Infof prints a formatted message to stdout
// This method wraps log.Logger.Printf
func (l *Logger) Infof(format string, args ...interface{}) {
	l.info.Printf(format, args...)
}

// Warn prints a highlighted formatted message to stderr.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.error.Print(color.YellowString("Warning: "+format, args...))
}

// Error prints a message and the given error's message to os.Stderr
// This method wraps log.Logger.Print
func (l *Logger) Error(msg string, err error) {
	if err != nil {
		l.error.Print(msg, err.Error())
	}
}

// FatalOnError prints a message and error's message to os.Stderr then QUITS!
// Please be aware this method will exit the program via os.Exit(1).
// This method wraps log.Logger.Fatalln
func (l *Logger) FatalOnError(msg string, err error) {
	if err != nil {
		l.error.Fatalln(msg, err.Error())
	}
}

// Prettyify pretty prints data as indented JSON to stdout.
func (l *Logger) Prettyify(data interface{}) error {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to format output: %w", err)
	}
	l.Infoln(string(bytes))
	return nil
}

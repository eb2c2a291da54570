// Package logger holds the process-wide logrus loggers. Log is the application
// log, Audit receives one line per HTTP request.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	Log   = newLogger(os.Stdout, logrus.InfoLevel, "text")
	Audit = newLogger(os.Stdout, logrus.InfoLevel, "text")
)

// Options configures Setup. An empty Dir keeps logging on stdout only.
type Options struct {
	Dir        string
	Level      string
	Format     string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup replaces Log and Audit. When a directory is given each logger also
// writes to a rotated file below it.
func Setup(opts Options) error {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}

	appOut, auditOut := io.Writer(os.Stdout), io.Writer(os.Stdout)
	if opts.Dir != "" {
		appFile, err := rotated(opts, "app")
		if err != nil {
			return err
		}
		auditFile, err := rotated(opts, "audit")
		if err != nil {
			return err
		}
		appOut = io.MultiWriter(os.Stdout, appFile)
		// Audit lines only go to the file; stdout stays readable.
		auditOut = auditFile
	}

	Log = newLogger(appOut, level, opts.Format)
	Audit = newLogger(auditOut, logrus.InfoLevel, opts.Format)
	return nil
}

func rotated(opts Options, name string) (*lumberjack.Logger, error) {
	dir := filepath.Join(opts.Dir, name)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("could not create log directory %s: %w", dir, err)
	}
	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, name+".log"),
		MaxSize:    maxSize,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}, nil
}

func newLogger(out io.Writer, level logrus.Level, format string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)
	switch format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	default:
		l.SetFormatter(&logrus.TextFormatter{TimestampFormat: time.RFC3339, FullTimestamp: true})
	}
	return l
}

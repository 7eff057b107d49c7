// Package logging builds the logrus logger shared by the server, the
// middleware and the activity consumer.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options controls logger formatting. Writer defaults to stderr.
type Options struct {
	Level  string
	Format string // "text" or "json"
	Writer io.Writer
}

// New constructs a configured logger. An empty level means info; an
// unknown level or format is an error.
func New(opt Options) (*logrus.Logger, error) {
	lvl := strings.TrimSpace(strings.ToLower(opt.Level))
	if lvl == "" {
		lvl = "info"
	}
	level, err := logrus.ParseLevel(lvl)
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetLevel(level)
	if opt.Writer != nil {
		log.SetOutput(opt.Writer)
	} else {
		log.SetOutput(os.Stderr)
	}

	switch strings.ToLower(strings.TrimSpace(opt.Format)) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format %q", opt.Format)
	}
	return log, nil
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

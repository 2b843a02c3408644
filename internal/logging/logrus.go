package logging

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Setter mutates the root logger.
type Setter func(*logrus.Logger) error

var root = struct {
	logger *logrus.Logger
	mutex  *sync.Mutex
	// base is the output set by Output; File tees onto it.
	base io.Writer
	// file is the log file opened by File, closed when replaced.
	file *os.File
}{
	logger: func() *logrus.Logger {
		l := logrus.New()

		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})

		return l
	}(),
	mutex: &sync.Mutex{},
	base:  os.Stderr,
}

// New returns a logger tagged with component after applying setters to the root logger.
func New(component string, setters ...Setter) logrus.FieldLogger {
	for _, setter := range setters {
		// setters only fail on bad input that they already log
		_ = Set(setter)
	}
	return root.logger.WithField("component", component)
}

// Set applies setter to the root logger.
func Set(setter Setter) error {
	root.mutex.Lock()
	err := setter(root.logger)
	root.mutex.Unlock()
	return err
}

// Level sets the minimum level. An unparsable level falls back to info.
func Level(lvl string) Setter {
	l, err := logrus.ParseLevel(lvl)
	if err != nil {
		root.logger.WithError(err).Errorf("unable to parse provided level %q", lvl)
		l = logrus.InfoLevel
	}
	return func(r *logrus.Logger) error {
		r.SetLevel(l)
		return nil
	}
}

// Output redirects log output to w and closes any file opened by File.
func Output(w io.Writer) Setter {
	return func(r *logrus.Logger) error {
		closeFile()
		root.base = w
		r.SetOutput(w)
		return nil
	}
}

// File appends log output to path in addition to the output set by Output.
// A file opened by an earlier File call is closed first.
func File(path string) Setter {
	return func(r *logrus.Logger) error {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		closeFile()
		root.file = f
		r.SetOutput(io.MultiWriter(root.base, f))
		return nil
	}
}

// CloseFile detaches and closes the file opened by File, if any.
func CloseFile() {
	root.mutex.Lock()
	defer root.mutex.Unlock()
	closeFile()
	root.logger.SetOutput(root.base)
}

// closeFile must run with root.mutex held.
func closeFile() {
	if root.file != nil {
		_ = root.file.Close()
		root.file = nil
	}
}

// Discard returns a logger that drops everything. Used by tests and dry runs.
func Discard() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

package logutils

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the logger used across the application.
var Log = logrus.New()

// Fields is the type of logrus.Fields.
type Fields = logrus.Fields

//nolint:gochecknoinits // This is the only place where we should set the log defaults.
func init() {
	Configure("info", "text")
}

// Configure sets the level and the output format ("json" or text) of Log.
// Unknown levels fall back to info.
func Configure(level, format string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		Log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
		return
	}

	Log.SetFormatter(&logrus.TextFormatter{
		TimestampFormat:           "2006-01-02 15:04:05",
		FullTimestamp:             true,
		EnvironmentOverrideColors: true,
	})
}

// SetOutput redirects Log, mostly for tests.
func SetOutput(w io.Writer) {
	Log.SetOutput(w)
}

// WithComponent returns an entry tagged with the component name.
func WithComponent(name string) *logrus.Entry {
	return Log.WithField("component", name)
}

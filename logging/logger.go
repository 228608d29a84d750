package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the process-wide logger. It writes to stderr with the default
// formatter until Init is called.
var Logger = logrus.New()

// SystemName is the event source written into every log line.
const SystemName = "task-manager"

// CustomFormatter renders one comma separated line per entry. Fields attached
// with WithFields follow the message as key=value pairs in key order.
type CustomFormatter struct {
	SystemName string
}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	b.WriteString(fmt.Sprintf("Date: %s, Time: %s, ", entry.Time.Format("2006-01-02"), entry.Time.Format("15:04:05")))
	b.WriteString(fmt.Sprintf("Event Source: %s, ", f.SystemName))
	b.WriteString(fmt.Sprintf("Event Type: %s, ", strings.ToUpper(entry.Level.String())))
	b.WriteString(fmt.Sprintf("Event ID: %s, ", uuid.New().String()))
	b.WriteString(fmt.Sprintf("Message: %s", entry.Message))

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(", %s=%v", k, entry.Data[k]))
	}

	if entry.HasCaller() {
		b.WriteString(fmt.Sprintf(", Location: %s:%d in %s", filepath.Base(entry.Caller.File), entry.Caller.Line, entry.Caller.Function))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

type Options struct {
	// File enables size-based rotation into this path. Empty means stdout.
	File  string
	Level string
}

// Init configures Logger. It returns the rotating writer, if any, so the
// caller can close it on shutdown.
func Init(opts Options) (io.Closer, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	var closer io.Closer
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		logFile := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		Logger.SetOutput(logFile)
		closer = logFile
	} else {
		Logger.SetOutput(os.Stdout)
	}

	Logger.SetFormatter(&CustomFormatter{SystemName: SystemName})
	Logger.SetLevel(level)
	Logger.SetReportCaller(true)

	Logger.Infof("Event ID: LOGGER_INITIALIZED, Description: Logger initialized at level %s", level)
	return closer, nil
}

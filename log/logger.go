package log

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/op/go-logging"
)

// Log verbosity level.
type Level logging.Level

// Supported log levels.
const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

var format = logging.MustStringFormatter(
	`%{color}[%{time:15:04:05.000}] [%{module}] [%{level:.4s}]%{color:reset} %{message}`,
)

var (
	backendMu      sync.Mutex
	leveledBackend logging.LeveledBackend
	globalLevel    = logging.NOTICE
)

// The Logger interface is implemented by all named loggers.
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Notice(v ...interface{})
	Noticef(format string, v ...interface{})

	Warning(v ...interface{})
	Warningf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// Create a new named logger. Spaces in the module name are replaced
// with dashes.
func New(module string) Logger {
	return logging.MustGetLogger(normalize(module))
}

// Redirect all log output to sink while keeping the current log level.
func SetSink(sink io.Writer) {
	backendMu.Lock()
	defer backendMu.Unlock()

	backend := logging.NewBackendFormatter(logging.NewLogBackend(sink, "", 0), format)
	leveledBackend = logging.AddModuleLevel(backend)
	leveledBackend.SetLevel(globalLevel, "")
	logging.SetBackend(leveledBackend)
}

// Set the log level for all modules.
func SetLevel(level Level) {
	backendMu.Lock()
	defer backendMu.Unlock()

	globalLevel = toBackendLevel(level)
	leveledBackend.SetLevel(globalLevel, "")
}

// Override the log level for a single module.
func SetModuleLevel(module string, level Level) {
	backendMu.Lock()
	defer backendMu.Unlock()

	leveledBackend.SetLevel(toBackendLevel(level), normalize(module))
}

func toBackendLevel(level Level) logging.Level {
	switch level {
	case Debug:
		return logging.DEBUG
	case Info:
		return logging.INFO
	case Warning:
		return logging.WARNING
	case Error:
		return logging.ERROR
	default:
		return logging.NOTICE
	}
}

func normalize(module string) string {
	return strings.Replace(strings.TrimSpace(module), " ", "-", -1)
}

func init() {
	SetSink(os.Stdout)
	SetLevel(Notice)
}

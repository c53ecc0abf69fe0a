package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rivo/tview"
)

type Level int

const (
	Info Level = iota
	Warn
	Error
	Fatal
)

type Message struct {
	Timestamp time.Time
	Tag       string
	Message   string
	Level     Level
}

// Logger fans messages out to an optional console sink (the tview debug
// console in TUI mode, stderr otherwise) and an optional log file.
type Logger struct {
	console   io.Writer
	tag       string
	dev       bool
	logFile   *os.File
	logChan   chan Message
	closeChan chan struct{}
}

var (
	logManager *Logger
	once       sync.Once
)

// InitLogger sets up the shared sinks. console may be nil; a timestamped log
// file is created under logPath when it is non-empty.
func InitLogger(dev bool, logPath string, console io.Writer) {
	once.Do(func() {
		logManager = &Logger{
			console:   console,
			dev:       dev,
			logChan:   make(chan Message, 100),
			closeChan: make(chan struct{}),
		}
		if logPath != "" {
			timestamp := time.Now().Format("20060102_150405")
			fileName := fmt.Sprintf("qwenvoice_%s.log", timestamp)
			filePath := filepath.Join(logPath, fileName)

			file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				log.Fatalf("Failed to open log file: %s", err)
			}
			logManager.logFile = file
		}

		go logManager.processLogs()
	})
}

// SetConsole swaps the console sink, used when the TUI comes up after boot.
func SetConsole(console io.Writer) {
	if logManager != nil {
		logManager.console = console
	}
}

func NewLogger(tag string) *Logger {
	if logManager == nil {
		InitLogger(false, "", os.Stderr)
	}
	return &Logger{
		console:   logManager.console,
		tag:       tag,
		dev:       logManager.dev,
		logFile:   logManager.logFile,
		logChan:   logManager.logChan,
		closeChan: logManager.closeChan,
	}
}

func (l *Logger) processLogs() {
	for msg := range l.logChan {
		timestamp := msg.Timestamp.Format("2006-01-02 15:04:05")
		line := fmt.Sprintf("%s [%s] %s: %s\n", timestamp, msg.Tag, msg.Level.String(), msg.Message)
		if l.logFile != nil {
			l.logFile.WriteString(line)
		}
	}
}

func (l *Logger) log(level Level, v ...interface{}) {
	message := fmt.Sprint(v...)
	if l.dev && logManager.console != nil {
		line := fmt.Sprintf("%s (%s): %s", level.String(), l.tag, message)
		// Color markup only renders inside tview; plain sinks get plain text.
		if _, ok := logManager.console.(*tview.TextView); ok {
			var color string
			switch level {
			case Info:
				color = "green"
			case Warn:
				color = "yellow"
			default:
				color = "red"
			}
			fmt.Fprintf(logManager.console, "[%s]%s[-]\n", color, line)
		} else {
			fmt.Fprintln(logManager.console, line)
		}
	}

	if l.logFile != nil {
		l.logChan <- Message{
			Timestamp: time.Now(),
			Tag:       l.tag,
			Message:   message,
			Level:     level,
		}
	}
}

func (l *Logger) Info(v ...interface{}) {
	l.log(Info, v...)
}

func (l *Logger) Warn(v ...interface{}) {
	l.log(Warn, v...)
}

func (l *Logger) Error(v ...interface{}) {
	l.log(Error, v...)
}

func (l *Logger) Fatal(v ...interface{}) {
	l.log(Fatal, v...)
	os.Exit(1)
}

func (l *Logger) Close() {
	close(l.closeChan)
	if l.logFile != nil {
		l.logFile.Close()
	}
}

func (t Level) String() string {
	switch t {
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	case Fatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

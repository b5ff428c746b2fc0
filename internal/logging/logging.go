package logging

import (
	"log"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// ErrorData содержит информацию об ошибке и о пользователе, вызвавшем ошибку
type ErrorData struct {
	Error    error
	Username string
	UserID   int64
	Command  string
	AddInfo  string // AdditionalInfo
}

// RequestData содержит информацию о запросе
type RequestData struct {
	Username string
	ID       int64
	Command  string
}

var (
	sugar     *zap.SugaredLogger
	useSentry bool
)

// Initialize настраивает логгер. Если передан sentryDSN,
// ошибки дополнительно отправляются в Sentry
func Initialize(debug bool, sentryDSN string) error {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	sugar = logger.Sugar()

	if sentryDSN != "" {
		err = sentry.Init(sentry.ClientOptions{Dsn: sentryDSN})
		if err != nil {
			return err
		}
		useSentry = true
	}

	return nil
}

// Close сбрасывает буферы логгера и Sentry. Вызывать при завершении программы
func Close() {
	if sugar != nil {
		sugar.Sync()
	}
	if useSentry {
		sentry.Flush(2 * time.Second)
	}
}

// LogEvent логгирует события (например, публикацию статьи)
func LogEvent(event string) {
	if sugar == nil {
		log.Println(event)
		return
	}
	sugar.Infow(event, "kind", "event")
}

// LogRequest логгирует запрос от пользователя
func LogRequest(data RequestData) {
	if sugar == nil {
		log.Println(data.Command, data.Username, data.ID)
		return
	}
	sugar.Infow("запрос",
		"kind", "request",
		"command", data.Command,
		"username", data.Username,
		"id", data.ID,
	)
}

// LogError логгирует ошибку (программы)
func LogError(data ErrorData) {
	if sugar != nil {
		sugar.Errorw("ошибка",
			"command", data.Command,
			"username", data.Username,
			"id", data.UserID,
			"info", data.AddInfo,
			"error", data.Error,
		)
	} else {
		log.Println(data.Command, data.AddInfo, data.Error)
	}
	if useSentry && data.Error != nil {
		sentry.CaptureException(data.Error)
	}
}

// LogMinorError логгирует мелкие ошибки, которые произошли во время работы программы
func LogMinorError(funcName, message string, err error) {
	if sugar == nil {
		log.Println(funcName, message, err)
		return
	}
	sugar.Warnw(message, "function", funcName, "error", err)
}

// LogFatalError логгирует фатальную ошибку, после чего завершает программу с кодом 1
func LogFatalError(funcName, message string, err error) {
	// На всякий случай
	log.Println(funcName, message, err)

	if sugar != nil {
		sugar.Errorw("FATAL "+message, "function", funcName, "error", err)
	}
	if useSentry && err != nil {
		sentry.CaptureException(err)
	}
	Close()
	os.Exit(1)
}

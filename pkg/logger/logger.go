package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// Init configures the process-wide structured logger. Call once at startup.
func Init() {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	log.SetLevel(logrus.InfoLevel)
}

func Info(event string, fields map[string]interface{}) {
	log.WithFields(withEvent(event, fields)).Info(event)
}

func Warn(event string, fields map[string]interface{}) {
	log.WithFields(withEvent(event, fields)).Warn(event)
}

func Error(event string, err error, fields map[string]interface{}) {
	merged := withEvent(event, fields)
	if err != nil {
		merged["error"] = err.Error()
	}
	log.WithFields(merged).Error(event)
}

func InfoWithUser(userID, event string, fields map[string]interface{}) {
	merged := withEvent(event, fields)
	merged["user_id"] = userID
	log.WithFields(merged).Info(event)
}

func WarnWithUser(userID, event string, fields map[string]interface{}) {
	merged := withEvent(event, fields)
	merged["user_id"] = userID
	log.WithFields(merged).Warn(event)
}

func withEvent(event string, fields map[string]interface{}) logrus.Fields {
	merged := logrus.Fields{"event": event}
	for key, value := range fields {
		merged[key] = value
	}
	return merged
}

package logging

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

var levelMap = map[string]log.Level{
	"panic": log.PanicLevel,
	"fatal": log.FatalLevel,
	"error": log.ErrorLevel,
	"warn":  log.WarnLevel,
	"info":  log.InfoLevel,
	"debug": log.DebugLevel,
	"trace": log.TraceLevel,
}

// Init configures the process-wide logrus logger. An empty level means info.
// When file is non-empty the output is appended there instead of stderr;
// rotation is left to logrotate.
func Init(level, file string) error {
	l := log.InfoLevel
	if level != "" {
		if parsed, ok := levelMap[strings.ToLower(level)]; ok {
			l = parsed
		}
	}
	log.SetLevel(l)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return err
		}
		log.SetOutput(f)
	}
	return nil
}

package testutil

import (
	"flag"
	"io/ioutil"

	log "github.com/sirupsen/logrus"
)

var (
	logLevel  = "panic"
	logStderr = false
)

func init() {
	flag.StringVar(&logLevel, "log-level", logLevel,
		"log level: trace, debug, info, warn, error, fatal, or panic")
	flag.BoolVar(&logStderr, "log-stderr", logStderr, "log to standard error")
}

// SetupLogger quiets logging during tests unless asked for on the command
// line.
func SetupLogger() {
	if !logStderr {
		log.SetOutput(ioutil.Discard)
	}
	ll, err := log.ParseLevel(logLevel)
	if err != nil {
		panic(err)
	}
	log.SetLevel(ll)
}

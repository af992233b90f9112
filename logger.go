package main

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

var logFile *os.File

// SetupLogger sends logging to a file so the interactive terminal
// stays clean.
func SetupLogger() {
	logPath := os.Getenv("PDBPP_LOG")
	if logPath == "" {
		logPath = filepath.Join(os.TempDir(), "pdbpp.log")
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		logrus.SetOutput(os.Stderr)
		return
	}
	logFile = f
	logrus.SetOutput(f)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func CloseLogger() {
	if logFile != nil {
		_ = logFile.Close()
	}
}

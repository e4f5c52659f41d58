package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/zecharness/ziggurat-go/crawler"
	"github.com/zecharness/ziggurat-go/synth"
)

// logRotator writes every logged line to both stdout and a size-rotated
// file on disk, the same split the teacher's cmd binaries use.
var logRotator *rotator.Rotator

type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	logRotator.Write(p)
	return len(p), nil
}

// initLogRotator creates the rotating log file at logFile, rolling once
// it passes 10 MiB (the rotator's threshold argument is in KiB) and
// keeping 3 old rolls.
func initLogRotator(logFile string) error {
	logDir := filepath.Dir(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("crawler: creating log directory: %w", err)
	}

	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return fmt.Errorf("crawler: creating log rotator: %w", err)
	}
	logRotator = r
	return nil
}

// useLoggers wires one btclog.Logger per package that exposes UseLogger,
// all backed by the same rotating writer.
func useLoggers(level btclog.Level) {
	backend := btclog.NewBackend(logWriter{})

	crawlerLog := backend.Logger("CRWL")
	crawlerLog.SetLevel(level)
	crawler.UseLogger(crawlerLog)

	synthLog := backend.Logger("SYNT")
	synthLog.SetLevel(level)
	synth.UseLogger(synthLog)
}

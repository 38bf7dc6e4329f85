package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/repo2txt/internal/cli"
	"github.com/temirov/repo2txt/internal/utils"
)

// main is the entry point for the repo2txt command.
func main() {
	os.Exit(run())
}

func run() int {
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger(zapcore.InfoLevel)
	if loggerInitializationError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerInitializationError))
	}
	defer func() { _ = loggerInstance.Sync() }()

	signalContext, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if applicationExecutionError := cli.Execute(signalContext, loggerInstance); applicationExecutionError != nil {
		// fang.Execute already printed the error to stderr; that is the user-facing
		// message. Logging it above Debug would print it twice.
		loggerInstance.Debug(utils.ApplicationExecutionFailedMessage, zap.Error(applicationExecutionError))
		return 1
	}
	return 0
}

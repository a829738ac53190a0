package main

import (
	"github.com/chronomap/chronik/internal/server"
	"github.com/chronomap/chronik/internal/util"
	"github.com/chronomap/chronik/pkg/logger"
	"github.com/chronomap/chronik/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}

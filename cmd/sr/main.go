package main

import (
	"os"

	clientcmd "github.com/colinclerk/sr/internal/cmd/client"
	logpkg "github.com/colinclerk/sr/pkg/log"
)

func main() {
	logger, err := logpkg.ApplyConfig(&logpkg.Config{
		Level:  os.Getenv("SR_LOG_LEVEL"),
		Format: os.Getenv("SR_LOG_FORMAT"),
	})
	if err != nil {
		logger = logpkg.NewLogger(logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}
	// Libraries logging through the standard library end up in our pipeline.
	logpkg.RedirectStdLog(logger)

	root := clientcmd.NewRoot(apiURL)
	root.Short = "sr session recorder"
	root.Long = "sr records browser sessions into durable page logs. This CLI runs the server and inspects recordings."
	root.SilenceUsage = true
	root.AddCommand(newServerCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func apiURL() string {
	if v := os.Getenv("SR_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}

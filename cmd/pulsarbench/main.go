package main

import (
	log "github.com/sirupsen/logrus"

	"github.com/armadaproject/pulsarbench/cmd/pulsarbench/cmd"
	"github.com/armadaproject/pulsarbench/internal/common/logging"
)

// Config is handled by cmd/util.go
func main() {
	logging.ConfigureCommandLineLogging()
	root := cmd.RootCmd()
	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

//go:build mage

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"
)

const (
	pulsarContainer = "pulsar"
	pulsarImage     = "apachepulsar/pulsar:3.3.2"
)

// Start a standalone pulsar in docker and wait for it to accept requests.
func StartPulsar() error {
	err := dockerRun(
		"run", "-d", "--name="+pulsarContainer,
		"-p=6650:6650", "-p=8080:8080",
		pulsarImage, "bin/pulsar", "standalone",
	)
	if err != nil {
		return err
	}
	fmt.Println("Waiting for pulsar to start...")
	return waitForPulsar()
}

// Stop the pulsar container started by StartPulsar.
func StopPulsar() error {
	return dockerRun("rm", "-f", pulsarContainer)
}

func waitForPulsar() error {
	return retry.Do(
		func() error {
			out, err := dockerOutput("exec", pulsarContainer, "bin/pulsar-admin", "namespaces", "list", "public")
			if err != nil {
				return err
			}
			if !strings.Contains(out, "public/default") {
				return errors.Errorf("namespace public/default not found in %q", out)
			}
			return nil
		},
		retry.Attempts(60),
		retry.Delay(2*time.Second),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
}

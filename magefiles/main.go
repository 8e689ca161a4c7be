//go:build mage

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/pkg/errors"
)

const (
	binaryDir  = "bin"
	versionVar = "github.com/armadaproject/pulsarbench/cmd/pulsarbench/cmd.version"
)

// Check dependent tools are present and the correct version.
func CheckDeps() error {
	checks := []struct {
		name  string
		check func() error
	}{
		{"docker", dockerCheck},
		{"go", goCheck},
	}
	failures := false
	for _, check := range checks {
		fmt.Printf("Checking %s... ", check.name)
		if err := check.check(); err != nil {
			fmt.Printf("FAILED\nReason: %v\n", err)
			failures = true
		} else {
			fmt.Println("PASSED")
		}
	}
	if failures {
		return errors.New("check(s) failed.")
	}
	return nil
}

// Build the pulsarbench binary into ./bin. The version defaults to the current git tag.
func Build() error {
	mg.Deps(goCheck)
	timeTaken := time.Now()
	version := os.Getenv("PULSARBENCH_VERSION")
	if version == "" {
		out, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
		if err != nil {
			return err
		}
		version = out
	}
	err := goRun(
		"build",
		"-ldflags", fmt.Sprintf("-X %s=%s", versionVar, version),
		"-o", binaryWithExt(binaryDir+"/pulsarbench"),
		"./cmd/pulsarbench",
	)
	if err != nil {
		return err
	}
	fmt.Println("Time to build:", time.Since(timeTaken))
	return nil
}

// Removes build and test output.
func Clean() {
	fmt.Println("Cleaning...")
	for _, path := range []string{binaryDir, "test_reports"} {
		os.RemoveAll(path)
	}
}

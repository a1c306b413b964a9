// Copyright (c) The numacore Authors
// SPDX-License-Identifier: MPL-2.0

// Command numacorectl is a small operational harness around the
// affinity package: it demonstrates loading a configuration file,
// creating the process-wide manager, and reading back its state. It
// is not part of numacore's library surface.
package main

import (
	"os"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/go-hclog"
)

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "numacorectl",
		Level: hclog.Info,
	})

	c := cli.NewCLI("numacorectl", "0.1.0")
	c.Args = os.Args[1:]
	c.Commands = map[string]cli.CommandFactory{
		"snapshot": func() (cli.Command, error) {
			return &SnapshotCommand{logger: logger}, nil
		},
		"validate": func() (cli.Command, error) {
			return &ValidateCommand{logger: logger}, nil
		},
	}

	status, err := c.Run()
	if err != nil {
		logger.Error("failed to run command", "error", err)
		os.Exit(1)
	}
	os.Exit(status)
}

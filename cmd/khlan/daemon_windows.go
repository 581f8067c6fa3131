//go:build windows

package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/ilyklain/khlan-saas/internal/config"
)

var shutdownSignals = []os.Signal{os.Interrupt}

var errNoDaemon = errors.New("daemon mode is not supported on Windows; use 'run' for foreground execution")

func cmdStart(*cobra.Command, *config.Config) error  { return errNoDaemon }
func cmdStop(*cobra.Command, *config.Config) error   { return errNoDaemon }
func cmdStatus(*cobra.Command, *config.Config) error { return errNoDaemon }

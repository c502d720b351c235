//go:build !windows

package main

import (
	"os"
	"syscall"
)

// shutdownSignals stop a running simulation or server gracefully.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

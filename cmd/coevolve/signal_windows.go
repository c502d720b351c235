//go:build windows

package main

import "os"

// shutdownSignals stop a running simulation or server gracefully.
// On Windows, only os.Interrupt (Ctrl+C) is delivered.
var shutdownSignals = []os.Signal{os.Interrupt}

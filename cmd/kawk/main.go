// Command kawk is the standalone entry point for the kawk interpreter.
package main

import (
	"os"

	"github.com/rcarmo/go-kawk/pkg/applets/kawk"
	"github.com/rcarmo/go-kawk/pkg/core"
)

func main() {
	stdio := core.DefaultStdio()
	os.Exit(kawk.Run(stdio, os.Args[1:]))
}

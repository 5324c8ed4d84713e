// Package main provides the entry point for the Chat-Arena CLI.
package main

import (
	"fmt"
	"os"

	"github.com/s376930/Chat-Arena/cmd/arena/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

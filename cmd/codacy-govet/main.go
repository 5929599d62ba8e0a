package main

import (
	"os"

	"github.com/codacy/codacy-govet/cmd/codacy-govet/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/RaynorEtienn/Financial-Data-Analysis/cmd/check/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

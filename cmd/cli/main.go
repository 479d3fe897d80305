package main

import (
	"os"

	"github.com/gobarber/gobarber/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

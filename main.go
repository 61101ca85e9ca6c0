package main

import (
	"os"

	"github.com/zuvy/assess/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

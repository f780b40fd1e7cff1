package main

import (
	"os"

	"github.com/dsoto/datarun/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

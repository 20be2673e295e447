package main

import (
	"os"

	"github.com/msto63/agones-sdk-go/cmd/agones-sdk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"swaraj/internal/cli"
)

func main() {
	if err := cli.NewTranscribeCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

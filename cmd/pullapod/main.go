package main

import (
	"fmt"
	"os"

	"pullapod/internal/services"
)

func main() {
	err := newRootCommand().Execute()
	code := services.ExitCode(err)
	if code != 0 && code != services.ExitInterrupted {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(code)
}

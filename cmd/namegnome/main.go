package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/DouglasMacKrell/namegnome-serve/internal/services"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(services.ExitCode(err))
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/semantic-rs/semantic-rs/internal/ci"
	"github.com/semantic-rs/semantic-rs/internal/logging"
)

func main() {
	env := ci.DetectEnvironment()

	appLogger, err := logging.New(logging.Options{
		Level:         "info",
		HumanReadable: !env.CI,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	app := &AppContext{
		Logger:      appLogger,
		Environment: env,
		NewBuiltins: registerBuiltins,
	}

	rootCmd := newRootCmd(app)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

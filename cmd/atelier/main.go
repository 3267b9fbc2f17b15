// Package main provides the atelier command line, which works on workflow
// files without a running API.
package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	command := &cli.Command{
		Name:                  "atelier",
		Usage:                 "Validate workflow files and inspect the step catalog",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			NewValidateCommand(),
			NewStepTypesCommand(),
			NewTemplatesCommand(),
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

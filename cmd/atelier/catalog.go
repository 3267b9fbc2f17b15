package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dukex/atelier/pkg/registry"
	"github.com/dukex/atelier/pkg/templates"
	"github.com/urfave/cli/v3"
)

func NewStepTypesCommand() *cli.Command {
	return &cli.Command{
		Name:  "step-types",
		Usage: "Print the step catalog with default configurations as JSON",
		Action: func(_ context.Context, command *cli.Command) error {
			encoder := json.NewEncoder(command.Root().Writer)
			encoder.SetIndent("", "  ")

			return encoder.Encode(registry.StepComponents())
		},
	}
}

func NewTemplatesCommand() *cli.Command {
	return &cli.Command{
		Name:  "templates",
		Usage: "List the built-in workflow templates",
		Action: func(_ context.Context, command *cli.Command) error {
			return listTemplates(command.Root().Writer)
		},
	}
}

func listTemplates(w io.Writer) error {
	list, err := templates.List()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "KEY\tCATEGORY\tSTEPS\tNAME")

	for _, template := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", template.Key, template.Category, len(template.Steps), template.Name)
	}

	return tw.Flush()
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dukex/atelier/pkg/models"
	"github.com/dukex/atelier/pkg/templates"
	"github.com/dukex/atelier/pkg/validation"
	"github.com/dukex/atelier/pkg/workflow"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

var ErrMissingFile = errors.New("a workflow file is required")

// Report is the outcome of validating one file.
type Report struct {
	File       string                 `json:"file"`
	Kind       string                 `json:"kind"`
	Valid      bool                   `json:"valid"`
	Violations []validation.Violation `json:"violations"`
}

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate a workflow record or template (JSON or YAML)",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the report as JSON",
			},
		},
		Action: func(_ context.Context, command *cli.Command) error {
			path := command.Args().First()
			if path == "" {
				return ErrMissingFile
			}

			report, err := validateFile(path)
			if err != nil {
				return err
			}

			if err := writeReport(command.Root().Writer, report, command.Bool("json")); err != nil {
				return err
			}

			if !report.Valid {
				return cli.Exit("", 1)
			}

			return nil
		},
	}
}

func validateFile(path string) (*Report, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	definition, kind, err := decodeDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	violations := definition.Validate()

	return &Report{
		File:       path,
		Kind:       kind,
		Valid:      len(violations) == 0,
		Violations: violations,
	}, nil
}

// decodeDefinition accepts a stored record or a template. JSON documents are
// read through the YAML decoder as well. A document with a template key, or
// whose steps are addressed by ref, is a template.
func decodeDefinition(data []byte) (*workflow.Definition, string, error) {
	var document struct {
		Key   string           `yaml:"key"`
		Steps []map[string]any `yaml:"steps"`
	}

	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, "", fmt.Errorf("failed to parse document: %w", err)
	}

	if isTemplate(document.Key, document.Steps) {
		template, err := templates.Parse(data)
		if err != nil {
			return nil, "", err
		}

		definition, err := template.Instantiate()

		return definition, "template", err
	}

	var generic map[string]any

	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, "", fmt.Errorf("failed to parse document: %w", err)
	}

	raw, err := json.Marshal(generic)
	if err != nil {
		return nil, "", fmt.Errorf("failed to convert document: %w", err)
	}

	var record models.WorkflowRecord

	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, "", fmt.Errorf("failed to decode workflow record: %w", err)
	}

	definition, err := workflow.FromPersisted(&record)

	return definition, "record", err
}

func isTemplate(key string, steps []map[string]any) bool {
	if key != "" {
		return true
	}

	for _, step := range steps {
		if _, ok := step["ref"]; ok {
			return true
		}
	}

	return false
}

func writeReport(w io.Writer, report *Report, asJSON bool) error {
	if asJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		return encoder.Encode(report)
	}

	if report.Valid {
		_, err := fmt.Fprintf(w, "%s: workflow valide (%s)\n", report.File, report.Kind)

		return err
	}

	if _, err := fmt.Fprintf(w, "%s: %d erreur(s)\n", report.File, len(report.Violations)); err != nil {
		return err
	}

	for _, violation := range report.Violations {
		if _, err := fmt.Fprintf(w, "  - %s\n", violation.Message); err != nil {
			return err
		}
	}

	return nil
}

// Package templates ships ready-made workflows that the builder can start from.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"slices"
	"sync"

	"github.com/dukex/atelier/pkg/models"
	"github.com/dukex/atelier/pkg/registry"
	"github.com/dukex/atelier/pkg/workflow"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var embedded embed.FS

var (
	ErrTemplateNotFound = errors.New("workflow template not found")
	ErrUnknownStepRef   = errors.New("unknown step reference")
)

type TriggerTemplate struct {
	Type   models.TriggerType `yaml:"type"   json:"type"`
	Config map[string]any     `yaml:"config" json:"config,omitempty"`
}

type StepTemplate struct {
	Ref    string          `yaml:"ref"    json:"ref"`
	Name   string          `yaml:"name"   json:"name"`
	Type   models.StepType `yaml:"type"   json:"type"`
	Config map[string]any  `yaml:"config" json:"config,omitempty"`
}

type ConnectionTemplate struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to"   json:"to"`
}

// Template describes a workflow by step references instead of ids.
type Template struct {
	Key         string               `yaml:"key"         json:"key"`
	Name        string               `yaml:"name"        json:"name"`
	Description string               `yaml:"description" json:"description"`
	Category    string               `yaml:"category"    json:"category"`
	Trigger     *TriggerTemplate     `yaml:"trigger"     json:"trigger,omitempty"`
	Steps       []StepTemplate       `yaml:"steps"       json:"steps"`
	Connections []ConnectionTemplate `yaml:"connections" json:"connections"`
}

// Parse decodes a template document.
func Parse(data []byte) (*Template, error) {
	var template Template

	if err := yaml.Unmarshal(data, &template); err != nil {
		return nil, fmt.Errorf("failed to parse workflow template: %w", err)
	}

	return &template, nil
}

var builtin = sync.OnceValues(func() (map[string]*Template, error) {
	files, err := fs.Glob(embedded, "data/*.yaml")
	if err != nil {
		return nil, err
	}

	loaded := make(map[string]*Template, len(files))

	for _, file := range files {
		data, err := embedded.ReadFile(file)
		if err != nil {
			return nil, err
		}

		template, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path.Base(file), err)
		}

		loaded[template.Key] = template
	}

	return loaded, nil
})

// List returns the built-in templates ordered by key.
func List() ([]*Template, error) {
	loaded, err := builtin()
	if err != nil {
		return nil, err
	}

	templates := make([]*Template, 0, len(loaded))
	for _, key := range slices.Sorted(maps.Keys(loaded)) {
		templates = append(templates, loaded[key])
	}

	return templates, nil
}

// Get returns the built-in template with the given key.
func Get(key string) (*Template, error) {
	loaded, err := builtin()
	if err != nil {
		return nil, err
	}

	template, ok := loaded[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, key)
	}

	return template, nil
}

// refKeys are the condition fields whose values name other steps.
var refKeys = []string{"trueStep", "falseStep"}

// Instantiate builds a new draft definition from the template. Steps are
// created through the graph operations, so the usual rules apply to them.
func (t *Template) Instantiate(opts ...workflow.Option) (*workflow.Definition, error) {
	definition := workflow.NewDefinition(opts...)
	definition.SetName(t.Name)
	definition.SetDescription(t.Description)
	definition.SetCategory(t.Category)

	graph := definition.Graph()

	if t.Trigger != nil {
		config := registry.DefaultTriggerConfig(t.Trigger.Type)
		maps.Copy(config, t.Trigger.Config)

		_, err := graph.ReplaceTriggers([]*models.Trigger{{Type: t.Trigger.Type, Config: config}})
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", t.Key, err)
		}
	}

	ids := make(map[string]string, len(t.Steps))

	for _, step := range t.Steps {
		ids[step.Ref] = graph.AddStep(step.Type).ID
	}

	for _, step := range t.Steps {
		config := maps.Clone(step.Config)

		for _, key := range refKeys {
			ref, ok := config[key].(string)
			if !ok || ref == "" {
				continue
			}

			id, known := ids[ref]
			if !known {
				return nil, fmt.Errorf("template %s step %s: %w: %s", t.Key, step.Ref, ErrUnknownStepRef, ref)
			}

			config[key] = id
		}

		_, err := graph.UpdateStep(ids[step.Ref], workflow.StepUpdate{Name: &step.Name, Config: config})
		if err != nil {
			return nil, fmt.Errorf("template %s step %s: %w", t.Key, step.Ref, err)
		}
	}

	for _, connection := range t.Connections {
		source, okSource := ids[connection.From]
		target, okTarget := ids[connection.To]

		if !okSource || !okTarget {
			return nil, fmt.Errorf("template %s: %w: %s -> %s", t.Key, ErrUnknownStepRef, connection.From, connection.To)
		}

		graph.AddConnection(source, target)
	}

	return definition, nil
}

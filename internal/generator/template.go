package generator

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"text/template"

	"github.com/baharkarakas/resumeforge/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed prompt.yaml
var defaultTemplate []byte

// Template is the instructional prompt plus generation settings. It is
// configuration: operators can swap the file without a rebuild.
type Template struct {
	Temperature     float32 `yaml:"temperature"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
	Prompt          string  `yaml:"prompt"`

	tmpl *template.Template
}

// LoadTemplate reads a YAML template from path, or the built-in one when
// path is empty.
func LoadTemplate(path string) (*Template, error) {
	raw := defaultTemplate
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read prompt template: %w", err)
		}
		raw = b
	}
	return ParseTemplate(raw)
}

func ParseTemplate(raw []byte) (*Template, error) {
	var t Template
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	if t.Prompt == "" {
		return nil, errors.New("prompt template: empty prompt")
	}
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(t.Prompt)
	if err != nil {
		return nil, fmt.Errorf("compile prompt template: %w", err)
	}
	t.tmpl = tmpl
	return &t, nil
}

func (t *Template) Render(req models.GenerationRequest) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, req); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

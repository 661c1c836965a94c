package ingest

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tinytelemetry/roundwatch/internal/model"
)

// Input is one run file and the label it is reported under.
type Input struct {
	Path  string `yaml:"file"`
	Label string `yaml:"label"`
}

// ParseArgs pairs positional arguments as file, label, file, label, ...
// An empty or odd-length list is a usage error.
func ParseArgs(args []string) ([]Input, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: at least one <file> <label> pair is required", model.ErrUsage)
	}
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("%w: arguments must come in <file> <label> pairs, got %d", model.ErrUsage, len(args))
	}
	inputs := make([]Input, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		in := Input{Path: args[i], Label: args[i+1]}
		if strings.TrimSpace(in.Path) == "" || strings.TrimSpace(in.Label) == "" {
			return nil, fmt.Errorf("%w: empty file or label in pair %d", model.ErrUsage, i/2+1)
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

type manifest struct {
	Runs []Input `yaml:"runs"`
}

// LoadManifest reads a YAML list of runs:
//
//	runs:
//	  - file: tmp/auto.txt
//	    label: auto
func LoadManifest(path string) ([]Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, model.ErrMissingInput)
		}
		return nil, fmt.Errorf("ingest: read manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("ingest: parse manifest %s: %w", path, err)
	}
	if len(m.Runs) == 0 {
		return nil, fmt.Errorf("%w: manifest %s lists no runs", model.ErrUsage, path)
	}
	for i, in := range m.Runs {
		if strings.TrimSpace(in.Path) == "" || strings.TrimSpace(in.Label) == "" {
			return nil, fmt.Errorf("%w: manifest %s: run %d needs file and label", model.ErrUsage, path, i+1)
		}
	}
	return m.Runs, nil
}

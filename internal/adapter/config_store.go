package adapter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfigFilename is the per-project configuration file looked up
// under the project root.
const ProjectConfigFilename = ".hdlvet.yaml"

// SourceEntry is one source declaration from the project file. Entries
// may be a bare path string or a mapping with a library and extra
// compile flags.
type SourceEntry struct {
	Path    string   `yaml:"path"`
	Library string   `yaml:"library"`
	Flags   []string `yaml:"flags"`
}

// UnmarshalYAML accepts either `- src/top.vhd` or the full mapping form.
func (e *SourceEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		e.Path = node.Value

		return nil
	}

	type plain SourceEntry

	return node.Decode((*plain)(e))
}

// ScopedFlags carries the project-wide compile flags per scope.
type ScopedFlags struct {
	Global       []string `yaml:"global"`
	Single       []string `yaml:"single"`
	Dependencies []string `yaml:"dependencies"`
}

// ProjectConfig is the parsed project file: which compiler to use,
// which sources belong to the project and the scoped flag sets.
type ProjectConfig struct {
	Builder string        `yaml:"builder"`
	Flags   ScopedFlags   `yaml:"flags"`
	Sources []SourceEntry `yaml:"sources"`
}

// LoadProjectConfig reads and parses the project file under root. A
// missing file yields an empty config, not an error: a project without
// a config file is served with inferred libraries and the fallback
// compiler.
func LoadProjectConfig(root string) (*ProjectConfig, error) {
	name := filepath.Join(root, ProjectConfigFilename)

	blob, err := os.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return &ProjectConfig{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("read project config: %w", err)
	}

	var config ProjectConfig
	if err := yaml.Unmarshal(blob, &config); err != nil {
		return nil, fmt.Errorf("parse project config %q: %w", name, err)
	}

	for i, src := range config.Sources {
		if src.Path == "" {
			return nil, fmt.Errorf("parse project config %q: source %d has no path", name, i)
		}
	}

	return &config, nil
}

package persona

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type profileFile struct {
	Personas []Persona `yaml:"personas"`
}

// LoadFile reads assistant profiles from a YAML file of the form
//
//	personas:
//	  - id: mait
//	    name: Mait
//	    opening_line: Hi!
func LoadFile(path string) ([]Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}

	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}

	for i, p := range file.Personas {
		if strings.TrimSpace(p.ID) == "" {
			return nil, fmt.Errorf("profile %d: id is required", i)
		}
		if strings.TrimSpace(p.OpeningLine) == "" {
			return nil, fmt.Errorf("profile %q: opening_line is required", p.ID)
		}
	}
	return file.Personas, nil
}

// Package catalog holds the reference lists shared by imports, prompts and
// dashboards: strategic pillars, departments and responsible roles.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed reference.yaml
var embedded []byte

type Reference struct {
	StrategicPillars []string `yaml:"strategicPillars"`
	Departments      []string `yaml:"departments"`
	Responsibles     []string `yaml:"responsibles"`
}

var (
	defaultOnce sync.Once
	defaultRef  Reference
)

// Default returns the embedded reference lists. It panics only if the
// embedded document is malformed, which is a build defect.
func Default() Reference {
	defaultOnce.Do(func() {
		ref, err := Parse(embedded)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded reference.yaml: %v", err))
		}
		defaultRef = ref
	})
	return defaultRef
}

func Parse(blob []byte) (Reference, error) {
	var ref Reference
	if err := yaml.Unmarshal(blob, &ref); err != nil {
		return Reference{}, err
	}
	if len(ref.StrategicPillars) == 0 {
		return Reference{}, errors.New("reference data has no strategic pillars")
	}
	return ref, nil
}

// Load reads an override file, falling back to the embedded lists when path
// is empty.
func Load(path string) (Reference, error) {
	if path == "" {
		return Default(), nil
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return Reference{}, err
	}
	return Parse(blob)
}

// DefaultPillar is the first configured pillar; imports fall back to it.
func (r Reference) DefaultPillar() string {
	if len(r.StrategicPillars) == 0 {
		return ""
	}
	return r.StrategicPillars[0]
}

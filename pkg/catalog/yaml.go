package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// document is the on-disk layout of a catalog file:
//
//	profiles:
//	  - id: C200
//	    type: stud
//	    width: 200
//	    flange: 40
type document struct {
	Profiles []Profile `yaml:"profiles"`
}

// DecodeYAML reads profile entries from r.
func DecodeYAML(r io.Reader) ([]Profile, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog: decode yaml: %w", err)
	}
	for i, p := range doc.Profiles {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog: entry %d has no id", i)
		}
	}
	return doc.Profiles, nil
}

// LoadYAML returns base overlaid with the entries from the file at path.
// An empty path returns base unchanged.
func LoadYAML(base *Registry, path string) (*Registry, error) {
	if path == "" {
		return base, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()

	extra, err := DecodeYAML(f)
	if err != nil {
		return nil, err
	}
	return base.With(extra...), nil
}

//go:build !tinygo

package layout

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Load reads a YAML layout file. Fields missing from the file keep their
// value from Default.
//
//	flash:       {start: 0x08000000, size: 0x80000}
//	ram:         {start: 0x20000000, size: 0x40000}
//	application: 0x08010000
func Load(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, err
	}
	return Parse(data)
}

// Parse decodes a YAML layout.
func Parse(data []byte) (Layout, error) {
	l := Default
	if err := yaml.UnmarshalStrict(data, &l); err != nil {
		return Layout{}, fmt.Errorf("layout: %w", err)
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

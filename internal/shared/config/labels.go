package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type labelFile struct {
	Labels map[string]string `yaml:"labels"`
}

// DefaultLabelMap returns the remap table for the stock two-label classifier.
func DefaultLabelMap() map[string]string {
	return map[string]string{
		"LABEL_0": "email",
		"LABEL_1": "invoice",
	}
}

// LoadLabelMap builds the classifier label remap table. Entries from the YAML
// file at path are applied over the defaults, then inline "raw=display" pairs.
func LoadLabelMap(path, inline string) (map[string]string, error) {
	out := DefaultLabelMap()
	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read label map: %w", err)
		}
		var lf labelFile
		if err := yaml.Unmarshal(data, &lf); err != nil {
			return nil, fmt.Errorf("parse label map: %w", err)
		}
		for raw, display := range lf.Labels {
			if err := put(out, raw, display); err != nil {
				return nil, err
			}
		}
	}
	for _, pair := range splitAndTrim(inline) {
		raw, display, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("label map entry %q: expected raw=display", pair)
		}
		if err := put(out, raw, display); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func put(m map[string]string, raw, display string) error {
	raw = strings.TrimSpace(raw)
	display = strings.TrimSpace(display)
	if raw == "" || display == "" {
		return fmt.Errorf("label map entry %q=%q: empty side", raw, display)
	}
	m[raw] = display
	return nil
}

package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ClassMapping is the index to label table of the classifier output.
type ClassMapping struct {
	labels []string
}

// NewClassMapping builds a mapping whose index i resolves to labels[i].
func NewClassMapping(labels []string) ClassMapping {
	return ClassMapping{labels: append([]string(nil), labels...)}
}

// ParseClassMapping decodes a JSON object keyed by class index, e.g.
// {"0": "battery", "1": "biological"}. Indices missing from a sparse mapping
// resolve to UnknownLabel.
func ParseClassMapping(data []byte) (ClassMapping, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return ClassMapping{}, fmt.Errorf("failed to parse class mapping: %w", err)
	}
	if len(raw) == 0 {
		return ClassMapping{}, errors.New("class mapping is empty")
	}

	byIndex := make(map[int]string, len(raw))
	size := 0
	for key, label := range raw {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 {
			return ClassMapping{}, fmt.Errorf("invalid class index %q", key)
		}
		byIndex[idx] = label
		if idx+1 > size {
			size = idx + 1
		}
	}

	labels := make([]string, size)
	for i := range labels {
		label, ok := byIndex[i]
		if !ok {
			label = UnknownLabel
		}
		labels[i] = label
	}
	return ClassMapping{labels: labels}, nil
}

// Len is the number of classes.
func (m ClassMapping) Len() int {
	return len(m.labels)
}

// Label returns the label for idx, or UnknownLabel when idx is out of range.
func (m ClassMapping) Label(idx int) string {
	if idx < 0 || idx >= len(m.labels) {
		return UnknownLabel
	}
	return m.labels[idx]
}

// Labels returns a copy of all labels in index order.
func (m ClassMapping) Labels() []string {
	return append([]string{}, m.labels...)
}

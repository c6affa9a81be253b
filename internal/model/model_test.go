package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClassifier struct {
	closed bool
}

func (s *stubClassifier) Classify(input []float32, size int) ([]float32, error) {
	return []float32{1}, nil
}

func (s *stubClassifier) Close() error {
	s.closed = true
	return nil
}

func TestParseClassMapping(t *testing.T) {
	m, err := ParseClassMapping([]byte(`{"1": "biological", "0": "battery", "2": "cardboard"}`))
	require.NoError(t, err)

	assert.Equal(t, 3, m.Len())
	assert.Equal(t, []string{"battery", "biological", "cardboard"}, m.Labels())
	assert.Equal(t, "biological", m.Label(1))
	assert.Equal(t, UnknownLabel, m.Label(3))
	assert.Equal(t, UnknownLabel, m.Label(-1))
}

func TestParseClassMapping_Gap(t *testing.T) {
	m, err := ParseClassMapping([]byte(`{"0": "paper", "2": "glass"}`))
	require.NoError(t, err)

	assert.Equal(t, 3, m.Len())
	assert.Equal(t, UnknownLabel, m.Label(1))
}

func TestParseClassMapping_Invalid(t *testing.T) {
	for name, body := range map[string]string{
		"empty":      `{}`,
		"not json":   `[`,
		"bad key":    `{"zero": "paper"}`,
		"negative":   `{"-1": "paper"}`,
		"non-string": `{"0": 1}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseClassMapping([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestClassMapping_LabelsIsCopy(t *testing.T) {
	m := NewClassMapping([]string{"paper"})
	labels := m.Labels()
	labels[0] = "changed"
	assert.Equal(t, "paper", m.Label(0))
}

func writeArtifacts(t *testing.T, classes, cfg string) *Loader {
	t.Helper()
	dir := t.TempDir()
	l := &Loader{
		ModelPath:        filepath.Join(dir, "model.onnx"),
		ClassMappingPath: filepath.Join(dir, "class_mapping.json"),
		ConfigPath:       filepath.Join(dir, "model_config.json"),
	}
	require.NoError(t, os.WriteFile(l.ModelPath, []byte("onnx"), 0o644))
	require.NoError(t, os.WriteFile(l.ClassMappingPath, []byte(classes), 0o644))
	require.NoError(t, os.WriteFile(l.ConfigPath, []byte(cfg), 0o644))
	return l
}

func TestLoader_Load(t *testing.T) {
	l := writeArtifacts(t, `{"0": "battery", "1": "plastic"}`, `{"img_size": 224}`)

	stub := &stubClassifier{}
	var gotCfg Config
	l.Open = func(modelPath string, cfg Config) (Classifier, error) {
		gotCfg = cfg
		return stub, nil
	}

	a, err := l.Load()
	require.NoError(t, err)

	assert.True(t, a.Ready())
	assert.Equal(t, 224, a.Config.ImageSize)
	assert.Equal(t, DefaultInputName, gotCfg.InputName)
	assert.Equal(t, DefaultOutputName, gotCfg.OutputName)
	assert.Equal(t, 2, a.Classes.Len())

	require.NoError(t, a.Close())
	assert.True(t, stub.closed)
}

func TestLoader_ConfigWithoutImageSize(t *testing.T) {
	l := writeArtifacts(t, `{"0": "battery"}`, `{}`)
	l.Open = func(string, Config) (Classifier, error) { return &stubClassifier{}, nil }

	a, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultImageSize, a.Config.ImageSize)
}

func TestLoadOrDegrade(t *testing.T) {
	tests := []struct {
		name  string
		setup func(l *Loader)
	}{
		{"missing model", func(l *Loader) { require.NoError(t, os.Remove(l.ModelPath)) }},
		{"missing classes", func(l *Loader) { require.NoError(t, os.Remove(l.ClassMappingPath)) }},
		{"malformed config", func(l *Loader) { require.NoError(t, os.WriteFile(l.ConfigPath, []byte("{"), 0o644)) }},
		{"open fails", func(l *Loader) {
			l.Open = func(string, Config) (Classifier, error) { return nil, errors.New("incompatible model") }
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := writeArtifacts(t, `{"0": "battery"}`, `{"img_size": 64}`)
			l.Open = func(string, Config) (Classifier, error) { return &stubClassifier{}, nil }
			tt.setup(l)

			a := LoadOrDegrade(l)
			require.NotNil(t, a)
			assert.False(t, a.Ready())
			assert.Equal(t, 0, a.Classes.Len())
			assert.Equal(t, DefaultImageSize, a.Config.ImageSize)
			assert.Error(t, a.LoadErr)
			assert.NoError(t, a.Close())
		})
	}
}

package model

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// OpenFunc builds a Classifier once the class mapping and config are known.
type OpenFunc func(modelPath string, cfg Config) (Classifier, error)

// Loader reads the three startup artifacts.
type Loader struct {
	ModelPath        string
	ClassMappingPath string
	ConfigPath       string

	// Open defaults to the ONNX runtime.
	Open OpenFunc
	// OnnxRuntimeLib is passed to the default Open.
	OnnxRuntimeLib string
}

// Artifacts is the read-only state shared by every request.
type Artifacts struct {
	Classifier Classifier
	Classes    ClassMapping
	Config     Config

	// LoadErr is set on degraded artifacts.
	LoadErr error
}

// Degraded returns the artifact set used when loading fails: no classifier,
// no classes and the default config.
func Degraded(reason error) *Artifacts {
	return &Artifacts{
		Config:  DefaultConfig(),
		LoadErr: reason,
	}
}

// Ready reports whether a classifier is available.
func (a *Artifacts) Ready() bool {
	return a != nil && a.Classifier != nil
}

func (a *Artifacts) Close() error {
	if a == nil || a.Classifier == nil {
		return nil
	}
	return a.Classifier.Close()
}

// Load reads the class mapping, the config and the model, in that order.
func (l *Loader) Load() (*Artifacts, error) {
	data, err := os.ReadFile(l.ClassMappingPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read class mapping: %w", err)
	}
	classes, err := ParseClassMapping(data)
	if err != nil {
		return nil, err
	}

	cfg, err := readConfig(l.ConfigPath)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(l.ModelPath); err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}

	open := l.Open
	if open == nil {
		open = func(modelPath string, cfg Config) (Classifier, error) {
			return OpenONNX(modelPath, l.OnnxRuntimeLib, cfg)
		}
	}
	classifier, err := open(l.ModelPath, cfg)
	if err != nil {
		return nil, err
	}

	return &Artifacts{
		Classifier: classifier,
		Classes:    classes,
		Config:     cfg,
	}, nil
}

// LoadOrDegrade never fails: a load error is logged and the degraded
// artifact set is returned so the server can still start.
func LoadOrDegrade(l *Loader) *Artifacts {
	artifacts, err := l.Load()
	if err != nil {
		log.WithError(err).Error("error loading model files, serving without a model")
		return Degraded(err)
	}

	log.WithFields(log.Fields{
		"model":    l.ModelPath,
		"classes":  artifacts.Classes.Len(),
		"img_size": artifacts.Config.ImageSize,
	}).Info("model loaded successfully")
	return artifacts
}

func readConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read model config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse model config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

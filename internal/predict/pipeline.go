// Package predict runs one uploaded image through the classifier and maps
// the result onto a waste category.
package predict

import (
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/Brownie44l1/waste-api/internal/model"
	"github.com/Brownie44l1/waste-api/internal/preprocess"
	"github.com/Brownie44l1/waste-api/internal/waste"
)

type Pipeline struct {
	artifacts *model.Artifacts
}

func NewPipeline(artifacts *model.Artifacts) *Pipeline {
	if artifacts == nil {
		artifacts = model.Degraded(errors.New("no artifacts"))
	}
	return &Pipeline{artifacts: artifacts}
}

// Artifacts exposes the shared read-only state, e.g. for health reporting.
func (p *Pipeline) Artifacts() *model.Artifacts {
	return p.artifacts
}

// ValidateFilename checks the name the client gave the upload and returns
// its lower-cased extension.
func ValidateFilename(name string) (string, error) {
	if name == "" {
		return "", ErrEmptyFilename
	}
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" || !preprocess.Supported(ext) {
		return "", ErrInvalidExtension
	}
	return strings.ToLower(ext), nil
}

// Predict classifies the image read from r. filename selects the decoder.
func (p *Pipeline) Predict(filename string, r io.Reader) (*model.Prediction, error) {
	ext, err := ValidateFilename(filename)
	if err != nil {
		return nil, err
	}
	if !p.artifacts.Ready() {
		return nil, ErrModelNotLoaded
	}

	size := p.artifacts.Config.ImageSize
	input, err := preprocess.Prepare(ext, r, size)
	if err != nil {
		return nil, Failure(err)
	}

	probs, err := p.artifacts.Classifier.Classify(input, size)
	if err != nil {
		return nil, Failure(err)
	}
	if len(probs) == 0 {
		return nil, Failure(errors.New("classifier returned no predictions"))
	}

	idx := argmax(probs)
	confidence := float64(probs[idx])
	label := p.artifacts.Classes.Label(idx)

	return &model.Prediction{
		OriginalClass:  label,
		WasteCategory:  string(waste.Categorize(label, confidence)),
		Confidence:     confidence,
		AllPredictions: probs,
		AllClasses:     p.artifacts.Classes.Labels(),
	}, nil
}

// argmax returns the first index holding the largest value.
func argmax(values []float32) int {
	maxIdx := 0
	for i, v := range values {
		if v > values[maxIdx] {
			maxIdx = i
		}
	}
	return maxIdx
}

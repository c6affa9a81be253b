package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"sync"
	"testing"

	"github.com/Brownie44l1/waste-api/internal/model"
)

// MockClassifier is a model.Classifier returning fixed probabilities.
type MockClassifier struct {
	ClassifyFunc func(input []float32, size int) ([]float32, error)
	Probs        []float32

	mu        sync.Mutex
	CallCount int
	LastSize  int
	LastInput []float32
	Closed    bool
}

func (m *MockClassifier) Classify(input []float32, size int) ([]float32, error) {
	m.mu.Lock()
	m.CallCount++
	m.LastSize = size
	m.LastInput = input
	m.mu.Unlock()

	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(input, size)
	}
	return append([]float32(nil), m.Probs...), nil
}

func (m *MockClassifier) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

func (m *MockClassifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// Softmax turns logits into a probability vector.
func Softmax(logits ...float64) []float32 {
	maxLogit := math.Inf(-1)
	for _, l := range logits {
		maxLogit = math.Max(maxLogit, l)
	}
	var sum float64
	exps := make([]float64, len(logits))
	for i, l := range logits {
		exps[i] = math.Exp(l - maxLogit)
		sum += exps[i]
	}
	probs := make([]float32, len(logits))
	for i := range exps {
		probs[i] = float32(exps[i] / sum)
	}
	return probs
}

// Classes is the label set of the garbage classification dataset.
var Classes = []string{
	"battery", "biological", "brown-glass", "cardboard", "clothes", "green-glass",
	"metal", "paper", "plastic", "shoes", "trash", "white-glass",
}

// Artifacts returns ready artifacts around classifier using Classes.
func Artifacts(classifier model.Classifier, size int) *model.Artifacts {
	return &model.Artifacts{
		Classifier: classifier,
		Classes:    model.NewClassMapping(Classes),
		Config:     model.Config{ImageSize: size, InputName: "input", OutputName: "output"},
	}
}

// OneHot returns a vector over Classes with p on label and the rest spread
// evenly.
func OneHot(label string, p float32) []float32 {
	probs := make([]float32, len(Classes))
	rest := (1 - p) / float32(len(Classes)-1)
	for i, c := range Classes {
		if c == label {
			probs[i] = p
		} else {
			probs[i] = rest
		}
	}
	return probs
}

func PNG(t testing.TB, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, gradient(w, h)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func JPEG(t testing.TB, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gradient(w, h), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func gradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 0xff})
		}
	}
	return img
}

package model

const (
	DefaultImageSize  = 128
	DefaultInputName  = "input"
	DefaultOutputName = "output"

	UnknownLabel = "Unknown"
)

// Classifier maps a [1, size, size, 3] image batch to one probability per
// class. Implementations must be safe for concurrent use.
type Classifier interface {
	Classify(input []float32, size int) ([]float32, error)
	Close() error
}

// Config is the preprocessing configuration shipped next to the model.
type Config struct {
	ImageSize  int    `json:"img_size"`
	InputName  string `json:"input_name"`
	OutputName string `json:"output_name"`
}

// DefaultConfig is used when the configuration blob cannot be loaded.
func DefaultConfig() Config {
	return Config{
		ImageSize:  DefaultImageSize,
		InputName:  DefaultInputName,
		OutputName: DefaultOutputName,
	}
}

func (c *Config) applyDefaults() {
	if c.ImageSize <= 0 {
		c.ImageSize = DefaultImageSize
	}
	if c.InputName == "" {
		c.InputName = DefaultInputName
	}
	if c.OutputName == "" {
		c.OutputName = DefaultOutputName
	}
}

// Prediction is the outcome of classifying one uploaded image.
type Prediction struct {
	OriginalClass  string    `json:"original_class"`
	WasteCategory  string    `json:"waste_category"`
	Confidence     float64   `json:"confidence"`
	AllPredictions []float32 `json:"all_predictions"`
	AllClasses     []string  `json:"all_classes"`
}

package model

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var ortInit sync.Once

type onnxClassifier struct {
	session *ort.DynamicAdvancedSession
}

// OpenONNX creates a classifier for the model at modelPath. libPath, when
// set, points at the onnxruntime shared library.
func OpenONNX(modelPath, libPath string, cfg Config) (Classifier, error) {
	var initErr error
	ortInit.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			initErr = fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	})
	if initErr != nil {
		return nil, initErr
	}
	if !ort.IsInitialized() {
		return nil, fmt.Errorf("ONNX environment is not initialized")
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &onnxClassifier{session: session}, nil
}

// Classify runs one NHWC example. The output is allocated by onnxruntime so
// its width is whatever the model produces.
func (c *onnxClassifier) Classify(input []float32, size int) ([]float32, error) {
	inputShape := ort.NewShape(1, int64(size), int64(size), 3)

	inputTensor, err := ort.NewTensor(inputShape, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputs := []ort.ArbitraryTensor{nil}
	if err := c.session.Run([]ort.ArbitraryTensor{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	if outputs[0] != nil {
		defer outputs[0].Destroy()
	}

	return outputData(outputs[0])
}

func outputData(v ort.ArbitraryTensor) ([]float32, error) {
	t, ok := v.(*ort.Tensor[float32])
	if !ok || t == nil {
		return nil, fmt.Errorf("unexpected model output %T, want float32 tensor", v)
	}
	return append([]float32(nil), t.GetData()...), nil
}

func (c *onnxClassifier) Close() error {
	if c.session != nil {
		if err := c.session.Destroy(); err != nil {
			return err
		}
	}
	if ort.IsInitialized() {
		return ort.DestroyEnvironment()
	}
	return nil
}

// Package onnx wraps the ONNX Runtime session lifecycle behind a small
// Runner contract so detectors can be exercised without a model file.
package onnx

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/yalue/onnxruntime_go"
)

// Runner is the inference contract the detectors depend on: submit one
// input tensor, receive the flat output data and its shape.
type Runner interface {
	Run(input Tensor) ([]float32, []int64, error)
}

var envOnce sync.Once

// setupEnvironment initializes the process-wide ONNX Runtime environment.
func setupEnvironment() error {
	var err error
	envOnce.Do(func() {
		if !onnxruntime_go.IsInitialized() {
			err = onnxruntime_go.InitializeEnvironment()
		}
	})
	if err != nil {
		return fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
	}
	return nil
}

// Session owns a loaded model and implements Runner. A Session is safe for
// serialized use; callers running concurrently must coordinate access.
type Session struct {
	session    *onnxruntime_go.DynamicAdvancedSession
	inputInfo  onnxruntime_go.InputOutputInfo
	outputInfo onnxruntime_go.InputOutputInfo
	mu         sync.Mutex
}

// NewSession loads the model at modelPath and prepares a reusable
// inference session. numThreads <= 0 lets the runtime pick.
func NewSession(modelPath string, numThreads int) (*Session, error) {
	if modelPath == "" {
		return nil, errors.New("model path cannot be empty")
	}
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", modelPath)
	}
	if err := setupEnvironment(); err != nil {
		return nil, err
	}

	inputInfo, outputInfo, err := validateModelInfo(modelPath)
	if err != nil {
		return nil, err
	}

	options, err := onnxruntime_go.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() { _ = options.Destroy() }()

	if numThreads > 0 {
		if err := options.SetIntraOpNumThreads(numThreads); err != nil {
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	session, err := onnxruntime_go.NewDynamicAdvancedSession(modelPath,
		[]string{inputInfo.Name}, []string{outputInfo.Name}, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Session{session: session, inputInfo: inputInfo, outputInfo: outputInfo}, nil
}

func validateModelInfo(modelPath string) (onnxruntime_go.InputOutputInfo, onnxruntime_go.InputOutputInfo, error) {
	inputs, outputs, err := onnxruntime_go.GetInputOutputInfo(modelPath)
	if err != nil {
		return onnxruntime_go.InputOutputInfo{}, onnxruntime_go.InputOutputInfo{},
			fmt.Errorf("failed to get model input/output info: %w", err)
	}
	if len(inputs) != 1 {
		return onnxruntime_go.InputOutputInfo{}, onnxruntime_go.InputOutputInfo{},
			fmt.Errorf("expected 1 input, got %d", len(inputs))
	}
	if len(outputs) < 1 {
		return onnxruntime_go.InputOutputInfo{}, onnxruntime_go.InputOutputInfo{},
			errors.New("model has no outputs")
	}
	return inputs[0], outputs[0], nil
}

// Run performs one inference call. The returned data and shape belong to
// the caller; the runtime tensors are destroyed before returning.
func (s *Session) Run(input Tensor) ([]float32, []int64, error) {
	if err := VerifyImageTensor(input); err != nil {
		return nil, nil, fmt.Errorf("invalid tensor: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, nil, errors.New("session is closed")
	}

	inputTensor, err := onnxruntime_go.NewTensor(onnxruntime_go.NewShape(input.Shape...), input.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer func() { _ = inputTensor.Destroy() }()

	outputs := []onnxruntime_go.Value{nil}
	if err := s.session.Run([]onnxruntime_go.Value{inputTensor}, outputs); err != nil {
		return nil, nil, fmt.Errorf("inference failed: %w", err)
	}
	outputTensor := outputs[0]
	defer func() { _ = outputTensor.Destroy() }()

	floatTensor, ok := outputTensor.(*onnxruntime_go.Tensor[float32])
	if !ok {
		return nil, nil, fmt.Errorf("expected float32 tensor, got %T", outputTensor)
	}

	shape := outputTensor.GetShape()
	outShape := make([]int64, len(shape))
	copy(outShape, shape)
	src := floatTensor.GetData()
	data := make([]float32, len(src))
	copy(data, src)
	return data, outShape, nil
}

// Close releases the underlying session. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		if err := s.session.Destroy(); err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
		s.session = nil
	}
	return nil
}

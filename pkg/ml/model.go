package ml

import (
	"fmt"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Classifier evaluates one scaled feature row and returns the model's class-1
// probability for it.
type Classifier interface {
	PredictProba(row []float64) (float64, error)
	Close()
}

var ortInitOnce sync.Once

func initializeORT() error {
	var err error
	ortInitOnce.Do(func() {
		libPath := "/usr/lib/libonnxruntime.so"
		switch runtime.GOOS {
		case "windows":
			libPath = "onnxruntime.dll"
		case "darwin":
			libPath = "libonnxruntime.dylib"
		}
		ort.SetSharedLibraryPath(libPath)
		err = ort.InitializeEnvironment()
	})
	return err
}

// ONNXClassifier runs a binary classifier exported to ONNX. The session holds
// a 1xN input tensor and a 1x2 probability output tensor; every call
// overwrites the input in place, so the classifier is not safe for concurrent
// use and callers serialize access.
type ONNXClassifier struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	columns int
}

// NewONNXClassifier opens the model artifact with the given feature column
// count. Input and output tensor names follow the exporter's convention.
func NewONNXClassifier(modelPath string, columns int) (*ONNXClassifier, error) {
	if columns <= 0 {
		return nil, fmt.Errorf("ml: column count must be positive")
	}
	if err := initializeORT(); err != nil {
		return nil, fmt.Errorf("ml: initialize onnxruntime: %w", err)
	}

	inputShape := ort.NewShape(1, int64(columns))
	inputTensor, err := ort.NewTensor(inputShape, make([]float32, columns))
	if err != nil {
		return nil, fmt.Errorf("ml: create input tensor: %w", err)
	}

	outputShape := ort.NewShape(1, 2)
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("ml: create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"probabilities"},
		[]ort.Value{inputTensor}, []ort.Value{outputTensor}, nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("ml: create session: %w", err)
	}

	return &ONNXClassifier{
		session: session,
		input:   inputTensor,
		output:  outputTensor,
		columns: columns,
	}, nil
}

// PredictProba implements Classifier, returning the class-1 probability.
func (c *ONNXClassifier) PredictProba(row []float64) (float64, error) {
	if len(row) != c.columns {
		return 0, fmt.Errorf("ml: model expects %d columns, got %d", c.columns, len(row))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data := c.input.GetData()
	for i, v := range row {
		data[i] = float32(v)
	}
	if err := c.session.Run(); err != nil {
		return 0, fmt.Errorf("ml: inference failed: %w", err)
	}
	out := c.output.GetData()
	if len(out) < 2 {
		return 0, fmt.Errorf("ml: unexpected output width %d", len(out))
	}
	return float64(out[1]), nil
}

// Close releases the session and its tensors.
func (c *ONNXClassifier) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.session.Destroy()
		c.session = nil
	}
	if c.input != nil {
		c.input.Destroy()
		c.input = nil
	}
	if c.output != nil {
		c.output.Destroy()
		c.output = nil
	}
}

package classifier

import (
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNXScorer scores encoded sequences with an externally exported sequence
// classifier. The model must take one int64 input of shape [batch, seqLen]
// and produce one float32 probability per row.
type ONNXScorer struct {
	mu         sync.Mutex
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	maxSeqLen  int
}

// NewONNXScorer loads modelPath. The ONNX Runtime shared library is expected
// next to the model as libonnxruntime.so.
func NewONNXScorer(modelPath string, maxSeqLen int) (*ONNXScorer, error) {
	if maxSeqLen <= 0 {
		return nil, fmt.Errorf("onnx: max sequence length must be positive, got %d", maxSeqLen)
	}
	libPath := filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	if err := validateIO(inputs, outputs); err != nil {
		return nil, err
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(1)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	return &ONNXScorer{
		session:    session,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
		maxSeqLen:  maxSeqLen,
	}, nil
}

func validateIO(inputs, outputs []ort.InputOutputInfo) error {
	if len(inputs) != 1 {
		return fmt.Errorf("onnx: expected 1 input, model has %d", len(inputs))
	}
	if inputs[0].DataType != ort.TensorElementDataTypeInt64 {
		return fmt.Errorf("onnx: input %q must be int64, got %v", inputs[0].Name, inputs[0].DataType)
	}
	if len(inputs[0].Dimensions) != 2 {
		return fmt.Errorf("onnx: expected 2D input, got %v", inputs[0].Dimensions)
	}
	if len(outputs) == 0 {
		return fmt.Errorf("onnx: model has no outputs")
	}
	if outputs[0].DataType != ort.TensorElementDataTypeFloat {
		return fmt.Errorf("onnx: output %q must be float32, got %v", outputs[0].Name, outputs[0].DataType)
	}
	return nil
}

// Predict scores a single sequence.
func (s *ONNXScorer) Predict(seq []int) (float64, error) {
	out, err := s.PredictBatch([][]int{seq})
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// PredictBatch scores all sequences in one inference call.
func (s *ONNXScorer) PredictBatch(seqs [][]int) ([]float64, error) {
	if len(seqs) == 0 {
		return nil, nil
	}
	flat := make([]int64, 0, len(seqs)*s.maxSeqLen)
	for i, seq := range seqs {
		if err := checkLen(seq, s.maxSeqLen); err != nil {
			return nil, fmt.Errorf("onnx: sequence %d: %w", i, err)
		}
		for _, id := range seq {
			flat = append(flat, int64(id))
		}
	}

	batch := int64(len(seqs))
	in, err := ort.NewTensor(ort.NewShape(batch, int64(s.maxSeqLen)), flat)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer in.Destroy()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(batch, 1))
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer out.Destroy()

	s.mu.Lock()
	err = s.session.Run([]ort.Value{in}, []ort.Value{out})
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}

	data := out.GetData()
	probs := make([]float64, len(data))
	for i, v := range data {
		probs[i] = float64(v)
	}
	return probs, nil
}

// Close releases ONNX Runtime resources.
func (s *ONNXScorer) Close() error {
	if s.session != nil {
		return s.session.Destroy()
	}
	return nil
}

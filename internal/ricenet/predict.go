package ricenet

import (
	"fmt"
	"time"

	tflite "github.com/tphakala/go-tflite"

	"github.com/graintec/ricenet-go/internal/errors"
	"github.com/graintec/ricenet-go/internal/quality"
)

// Prediction is one raw model output vector together with the rice type it
// was conditioned on and the inference timing.
type Prediction struct {
	Raw         []float32
	RiceType    quality.RiceType
	InferenceMs int64
}

// Predict performs inference on a prepared image tensor. The rice type is
// fed to the model's embedding input so the regression heads can account
// for the sample's processing state.
func (rn *RiceNet) Predict(imageTensor []float32, riceType quality.RiceType) (*Prediction, error) {
	// locking to prevent concurrent access to the interpreter
	rn.mu.Lock()
	defer rn.mu.Unlock()

	input := rn.interpreter.GetInputTensor(rn.imageInput)
	if input == nil {
		return nil, fmt.Errorf("cannot get input tensor")
	}

	// Preparing input tensor with the sample data
	float32s := input.Float32s()
	if len(float32s) != len(imageTensor) {
		return nil, errors.Newf("image tensor size mismatch: model wants %d values, got %d", len(float32s), len(imageTensor)).
			Category(errors.CategoryValidation).
			Context("expected", len(float32s)).
			Context("got", len(imageTensor)).
			Build()
	}
	copy(float32s, imageTensor)

	if err := rn.setRiceTypeInput(riceType); err != nil {
		return nil, err
	}

	// Invoke the interpreter to perform inference
	start := time.Now()
	if status := rn.interpreter.Invoke(); status != tflite.OK {
		err := errors.Newf("tensor invoke failed: %v", status).
			Category(errors.CategoryInference).
			Context("rice_type", riceType.String()).
			Build()
		if m := getMetrics(); m != nil {
			m.RecordPrediction(modelVersion, time.Since(start).Seconds(), err)
		}
		return nil, err
	}
	elapsed := time.Since(start)
	if m := getMetrics(); m != nil {
		m.RecordPrediction(modelVersion, elapsed.Seconds(), nil)
	}

	output := rn.interpreter.GetOutputTensor(0)
	raw := extractPredictions(output)

	return &Prediction{
		Raw:         raw,
		RiceType:    riceType,
		InferenceMs: elapsed.Milliseconds(),
	}, nil
}

// PredictFile decodes the sample photo at path and runs inference on it.
func (rn *RiceNet) PredictFile(path string, riceType quality.RiceType) (*Prediction, error) {
	tensor, err := LoadImageTensor(path)
	if err != nil {
		return nil, err
	}
	return rn.Predict(tensor, riceType)
}

// setRiceTypeInput writes the rice type embedding index into the model's
// second input. Exported models vary in the integer width of the embedding
// input, so the tensor type decides how the index is written.
func (rn *RiceNet) setRiceTypeInput(riceType quality.RiceType) error {
	tensor := rn.interpreter.GetInputTensor(rn.typeInput)
	if tensor == nil {
		return fmt.Errorf("cannot get rice type input tensor")
	}

	idx := riceType.Index()
	switch tensor.Type() {
	case tflite.Int32:
		values := tensor.Int32s()
		if len(values) == 0 {
			return fmt.Errorf("rice type input tensor is empty")
		}
		values[0] = int32(idx) //nolint:gosec // G115: index is 0-2
	case tflite.Int64:
		values := tensor.Int64s()
		if len(values) == 0 {
			return fmt.Errorf("rice type input tensor is empty")
		}
		values[0] = int64(idx)
	case tflite.Float32:
		values := tensor.Float32s()
		if len(values) == 0 {
			return fmt.Errorf("rice type input tensor is empty")
		}
		values[0] = float32(idx)
	default:
		return errors.Newf("unsupported rice type tensor type %v", tensor.Type()).
			Category(errors.CategoryValidation).
			Context("tensor_type", int(tensor.Type())).
			Build()
	}
	return nil
}

// extractPredictions extracts prediction results from a TensorFlow Lite tensor.
func extractPredictions(tensor *tflite.Tensor) []float32 {
	predSize := tensor.Dim(tensor.NumDims() - 1)
	predictions := make([]float32, predSize)
	copy(predictions, tensor.Float32s())
	return predictions
}

// ricenet.go rice quality model specific code
package ricenet

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	tflite "github.com/tphakala/go-tflite"
	"github.com/tphakala/go-tflite/delegates/xnnpack"

	"github.com/graintec/ricenet-go/internal/conf"
	"github.com/graintec/ricenet-go/internal/cpuspec"
	"github.com/graintec/ricenet-go/internal/errors"
	"github.com/graintec/ricenet-go/internal/quality"
)

// DefaultModelVersion identifies the combined regression model this build
// was developed against.
const DefaultModelVersion = "RiceNet_Combined_V1"

// DefaultModelName is the expected filesystem basename for the combined
// model file. It is used when searching standard paths for the model.
const DefaultModelName = "RiceNet_Combined_V1_FP32.tflite"

// DefaultModelDirectory is the default directory name where model files are
// expected to be found. It is a relative path resolved against several base
// paths during model discovery. In containers with WORKDIR /data this
// resolves to /data/model/.
const DefaultModelDirectory = "model"

// Model version string, updated when a custom model path is configured.
var modelVersion = DefaultModelVersion

// RiceNet represents the combined quality model with its interpreter and
// configuration. The interpreter is not safe for concurrent invocation, so
// all predictions serialize on the mutex.
type RiceNet struct {
	Settings    *conf.Settings
	interpreter *tflite.Interpreter

	// Input tensor indices resolved during validation. The combined model
	// takes the sample image and the rice type embedding index.
	imageInput int
	typeInput  int

	mu sync.Mutex
}

// NewRiceNet initializes a new RiceNet instance with the given settings.
func NewRiceNet(settings *conf.Settings) (*RiceNet, error) {
	rn := &RiceNet{Settings: settings}

	if err := rn.initializeModel(); err != nil {
		wrapped := errors.New(fmt.Errorf("RiceNet: failed to initialize model: %w", err)).
			Component("ricenet").
			Category(errors.CategoryModelInit).
			ModelContext(settings.RiceNet.ModelPath, modelVersion).
			Build()
		if m := getMetrics(); m != nil {
			m.RecordModelLoad(modelVersion, wrapped)
		}
		return nil, wrapped
	}

	if err := rn.validateModel(); err != nil {
		rn.Delete()
		wrapped := errors.New(fmt.Errorf("RiceNet: model validation failed: %w", err)).
			Component("ricenet").
			Category(errors.CategoryModelInit).
			ModelContext(settings.RiceNet.ModelPath, modelVersion).
			Build()
		if m := getMetrics(); m != nil {
			m.RecordModelLoad(modelVersion, wrapped)
		}
		return nil, wrapped
	}

	if m := getMetrics(); m != nil {
		m.RecordModelLoad(modelVersion, nil)
	}

	return rn, nil
}

// initializeModel loads and initializes the combined quality model.
func (rn *RiceNet) initializeModel() error {
	start := time.Now()

	modelData, err := rn.loadModel()
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryModelLoad).
			ModelContext(rn.Settings.RiceNet.ModelPath, modelVersion).
			Timing("model-load", time.Since(start)).
			Build()
	}

	model := tflite.NewModel(modelData)
	if model == nil {
		return errors.New(fmt.Errorf("cannot load TensorFlow Lite model")).
			Category(errors.CategoryModelInit).
			ModelContext(rn.Settings.RiceNet.ModelPath, modelVersion).
			Context("model_size_mb", len(modelData)/1024/1024).
			Context("use_xnnpack", rn.Settings.RiceNet.UseXNNPACK).
			Timing("model-init", time.Since(start)).
			Build()
	}

	// Determine the number of threads for the interpreter based on settings
	// and system capacity.
	threads := rn.determineThreadCount(rn.Settings.RiceNet.Threads)

	options := tflite.NewInterpreterOptions()

	// Try to use XNNPACK delegate if enabled in settings
	log := GetLogger()
	if rn.Settings.RiceNet.UseXNNPACK {
		delegate := xnnpack.New(xnnpack.DelegateOptions{NumThreads: int32(max(1, threads-1))}) //nolint:gosec // G115: thread count bounded by CPU count, safe conversion
		if delegate == nil {
			log.Warn("Failed to create XNNPACK delegate, falling back to default CPU",
				"tflite_download", "https://github.com/tphakala/tflite_c/releases/tag/v2.17.1")
			options.SetNumThread(threads)
		} else {
			options.AddDelegate(delegate)
			options.SetNumThread(1)
		}
	} else {
		options.SetNumThread(threads)
	}

	options.SetErrorReporter(func(msg string, _ any) {
		GetLogger().Error("TFLite error", "message", msg)
	}, nil)

	// Create and allocate the TensorFlow Lite interpreter.
	rn.interpreter = tflite.NewInterpreter(model, options)
	if rn.interpreter == nil {
		return fmt.Errorf("cannot create interpreter")
	}
	if status := rn.interpreter.AllocateTensors(); status != tflite.OK {
		return fmt.Errorf("tensor allocation failed")
	}

	// Force garbage collection to reclaim memory from model loading.
	// The model data is no longer needed as TFLite has created its own
	// internal copy.
	runtime.GC()

	if rn.Settings.RiceNet.ModelPath != "" {
		modelVersion = rn.Settings.RiceNet.ModelPath
	}

	// Log model initialization details
	if rn.Settings.RiceNet.Threads == 0 {
		spec := cpuspec.GetCPUSpec()
		if spec.PerformanceCores > 0 {
			log.Info("RiceNet model initialized",
				"model", modelVersion,
				"threads", threads,
				"performance_cores", spec.PerformanceCores,
				"total_cpus", runtime.NumCPU())
		} else {
			log.Info("RiceNet model initialized",
				"model", modelVersion,
				"threads", threads,
				"total_cpus", runtime.NumCPU())
		}
	} else {
		log.Info("RiceNet model initialized",
			"model", modelVersion,
			"threads", threads,
			"total_cpus", runtime.NumCPU(),
			"threads_configured", true)
	}
	return nil
}

// determineThreadCount calculates the appropriate number of threads to use
// based on settings and system capabilities.
func (rn *RiceNet) determineThreadCount(configuredThreads int) int {
	systemCpuCount := runtime.NumCPU()

	// If threads are configured to 0, try to get optimal count from cpuspec
	if configuredThreads == 0 {
		spec := cpuspec.GetCPUSpec()
		optimalThreads := spec.GetOptimalThreadCount()
		if optimalThreads > 0 {
			return min(optimalThreads, systemCpuCount)
		}

		// If cpuspec doesn't know the CPU, use all available cores
		return systemCpuCount
	}

	if configuredThreads > systemCpuCount {
		return systemCpuCount
	}

	return configuredThreads
}

// loadModel loads the model from the configured path or from standard
// locations. There is no embedded fallback, the model ships separately from
// the binary.
func (rn *RiceNet) loadModel() ([]byte, error) {
	start := time.Now()

	if rn.Settings.RiceNet.ModelPath != "" {
		modelPath := os.ExpandEnv(rn.Settings.RiceNet.ModelPath)

		if strings.HasPrefix(modelPath, "~/") {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, errors.New(err).
					Category(errors.CategoryFileIO).
					Context("path", modelPath).
					Build()
			}
			modelPath = filepath.Join(homeDir, modelPath[2:])
		}

		data, err := os.ReadFile(modelPath) //nolint:gosec // G304: modelPath is from application settings
		if err != nil {
			return nil, errors.New(err).
				Category(errors.CategoryFileIO).
				ModelContext(modelPath, "external").
				Context("operation", "read").
				Timing("model-file-read", time.Since(start)).
				Build()
		}

		rn.Debug("Loaded external model file: %s (size: %d MB)", modelPath, len(data)/1024/1024)
		return data, nil
	}

	data, path, err := tryLoadModelFromStandardPaths(DefaultModelName)
	if err != nil {
		return nil, err
	}
	GetLogger().Info("Loaded RiceNet model from standard path", "path", path)
	rn.Debug("Loaded model from standard path: %s (size: %d MB)", path, len(data)/1024/1024)
	return data, nil
}

// standardModelPaths returns the candidate locations searched for the model
// file, in preference order.
func standardModelPaths(modelName string) []string {
	paths := []string{
		filepath.Join(DefaultModelDirectory, modelName),
		filepath.Join("data", DefaultModelDirectory, modelName),
		filepath.Join(string(filepath.Separator), "data", DefaultModelDirectory, modelName),
		filepath.Join(string(filepath.Separator), "models", modelName),
		filepath.Join(string(filepath.Separator), "usr", "share", "ricenet-go", DefaultModelDirectory, modelName),
		filepath.Join(string(filepath.Separator), "opt", "ricenet-go", DefaultModelDirectory, modelName),
	}

	// XDG Base Directory specification for user data
	if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		paths = append(paths, filepath.Join(xdgDataHome, "ricenet-go", DefaultModelDirectory, modelName))
	} else if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".local", "share", "ricenet-go", DefaultModelDirectory, modelName))
	}

	// Executable-relative paths
	if exePath, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exePath)
		paths = append(paths,
			filepath.Join(exeDir, DefaultModelDirectory, modelName),
			filepath.Join(exeDir, "..", DefaultModelDirectory, modelName),
			filepath.Join(exeDir, "..", "share", "ricenet-go", DefaultModelDirectory, modelName),
		)
	}

	return paths
}

// tryLoadModelFromStandardPaths attempts to load the model from standard
// locations. The error includes all attempted paths for debugging.
func tryLoadModelFromStandardPaths(modelName string) (data []byte, path string, err error) {
	candidatePaths := standardModelPaths(modelName)

	// Attempt to read each candidate path directly, no os.Stat to avoid TOCTOU
	for _, candidatePath := range candidatePaths {
		fileData, readErr := os.ReadFile(candidatePath) //nolint:gosec // G304: candidatePath built from known safe paths
		if readErr == nil {
			return fileData, candidatePath, nil
		}
	}

	return nil, "", errors.Newf("model '%s' not found in standard paths, set ricenet.modelpath in configuration", modelName).
		Category(errors.CategoryModelLoad).
		Context("attempted_file", modelName).
		Context("attempted_paths", candidatePaths).
		Build()
}

// validateModel resolves the model's input tensor layout and checks that the
// output vector matches the metric set this build understands.
func (rn *RiceNet) validateModel() error {
	inputCount := rn.interpreter.GetInputTensorCount()
	if inputCount != 2 {
		return errors.Newf("combined model expects 2 inputs (image, rice type), got %d", inputCount).
			Category(errors.CategoryValidation).
			Context("input_count", inputCount).
			Build()
	}

	// The image input is the only 4-dimensional tensor, the other input
	// carries the rice type embedding index.
	rn.imageInput, rn.typeInput = -1, -1
	for i := range inputCount {
		tensor := rn.interpreter.GetInputTensor(i)
		if tensor == nil {
			return fmt.Errorf("cannot get input tensor %d", i)
		}
		if tensor.NumDims() == 4 {
			rn.imageInput = i
		} else {
			rn.typeInput = i
		}
	}
	if rn.imageInput < 0 || rn.typeInput < 0 {
		return errors.Newf("cannot identify image and rice type inputs").
			Category(errors.CategoryValidation).
			Build()
	}

	imgTensor := rn.interpreter.GetInputTensor(rn.imageInput)
	if imgTensor.Dim(1) != InputSize || imgTensor.Dim(2) != InputSize || imgTensor.Dim(3) != inputChannels {
		return errors.Newf("unexpected image input shape [%d %d %d %d], want [1 %d %d %d]",
			imgTensor.Dim(0), imgTensor.Dim(1), imgTensor.Dim(2), imgTensor.Dim(3), InputSize, InputSize, inputChannels).
			Category(errors.CategoryValidation).
			Build()
	}

	output := rn.interpreter.GetOutputTensor(0)
	if output == nil {
		return fmt.Errorf("cannot get output tensor from model")
	}
	outputSize := output.Dim(output.NumDims() - 1)
	if outputSize != quality.NumMetrics {
		return errors.Newf("output size mismatch: model emits %d values but this build understands %d metrics",
			outputSize, quality.NumMetrics).
			Category(errors.CategoryValidation).
			Context("model_outputs", outputSize).
			Context("expected_outputs", quality.NumMetrics).
			Build()
	}

	rn.Debug("Model validation successful: %d inputs, %d outputs", inputCount, outputSize)
	return nil
}

// Delete releases resources used by the TensorFlow Lite interpreter.
func (rn *RiceNet) Delete() {
	if rn.interpreter != nil {
		rn.interpreter.Delete()
		rn.interpreter = nil
	}
}

// Debug prints debug messages if debug mode is enabled.
func (rn *RiceNet) Debug(format string, v ...any) {
	if rn.Settings.RiceNet.Debug {
		GetLogger().Debug(fmt.Sprintf(format, v...))
	}
}

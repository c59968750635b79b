// Package providers - Inference sessions.
package providers

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	// ErrSessionClosed is returned by Run after Close.
	ErrSessionClosed = errors.New("session is closed")
	// ErrInputSize is returned when the input does not fill the input tensor.
	ErrInputSize = errors.New("input length does not match tensor shape")

	envMu sync.Mutex
)

// Session represents a model session from the onnxruntime with one
// preallocated float32 input and output tensor.
type Session struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]

	inputShape  []int64
	outputShape []int64
}

// NewSessionArgs represents the arguments for creating a new ONNX session.
type NewSessionArgs struct {
	// The path to the ONNX model file.
	ModelPath string
	// The input and output node names, e.g. "images" and "output0".
	Input  string
	Output string
	// The tensor shapes, e.g. [1, 3, 640, 640] and [1, 56, 8400].
	InputShape  []int64
	OutputShape []int64
	// The execution provider and tuning.
	Provider Config
}

// NewSession creates a new ONNX session.
//
// Order of operations:
//  1. Library path check: Ensures native runtime is accessible.
//  2. Environment setup: Loads the native library once per process.
//  3. Tensor allocation: Prepares fixed-shape buffers for input/output data.
//  4. Session options: Threading and graph optimization level.
//  5. Execution providers: CoreML, CUDA or OpenVINO when configured.
//  6. Session creation: Loads the model and binds the tensors.
//
// Arguments:
//   - args: The arguments for the session.
//
// Returns:
//   - *Session: The runnable session. Close it to release native memory.
//   - error: An error if the session creation fails.
func NewSession(args NewSessionArgs) (*Session, error) {
	if err := args.Provider.Validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(args.ModelPath); err != nil {
		return nil, errors.Wrapf(err, "model not found at %s", args.ModelPath)
	}
	if err := InitializeEnvironment(args.Provider.LibraryPath); err != nil {
		return nil, err
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(args.InputShape...))
	if err != nil {
		return nil, errors.Wrap(err, "error creating input tensor")
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(args.OutputShape...))
	if err != nil {
		input.Destroy()
		return nil, errors.Wrap(err, "error creating output tensor")
	}

	options, err := sessionOptions(args.Provider)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, err
	}
	defer options.Destroy()

	session, err := ort.NewAdvancedSession(
		args.ModelPath,
		[]string{args.Input},
		[]string{args.Output},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		options,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "error creating ORT session")
	}

	return &Session{
		session:     session,
		input:       input,
		output:      output,
		inputShape:  append([]int64(nil), args.InputShape...),
		outputShape: append([]int64(nil), args.OutputShape...),
	}, nil
}

// InitializeEnvironment loads the ONNX Runtime shared library. Calls after
// the first successful one are no-ops.
//
// Arguments:
//   - libPath: The shared library; empty uses GetSharedLibPath.
func InitializeEnvironment(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}

	if libPath == "" {
		libPath = GetSharedLibPath()
	}
	if _, err := os.Stat(libPath); err != nil {
		return errors.Wrapf(err, "ONNX Runtime library not found at %q (set %s)", libPath, LibraryPathEnv)
	}

	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrap(err, "error initializing ORT environment")
	}
	return nil
}

// DestroyEnvironment unloads the ONNX Runtime environment. All sessions must
// be closed first.
func DestroyEnvironment() error {
	envMu.Lock()
	defer envMu.Unlock()

	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

func sessionOptions(cfg Config) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "error creating ORT session options")
	}

	if err := cfg.Optimization.apply(options); err != nil {
		options.Destroy()
		return nil, err
	}
	if err := appendProvider(options, cfg); err != nil {
		options.Destroy()
		return nil, err
	}
	return options, nil
}

func appendProvider(options *ort.SessionOptions, cfg Config) error {
	switch cfg.Backend {
	case CoreMLProviderBackend:
		opts, _ := cfg.Options.(CoreMLOptions)
		if err := options.AppendExecutionProviderCoreML(opts.Flags()); err != nil {
			return errors.Wrap(err, "error enabling CoreML")
		}
	case OpenVINOProviderBackend:
		opts, _ := cfg.Options.(OpenVINOOptions)
		if err := options.AppendExecutionProviderOpenVINO(opts.Map()); err != nil {
			return errors.Wrap(err, "error enabling OpenVINO")
		}
	case CUDAProviderBackend:
		opts, _ := cfg.Options.(CUDAOptions)
		cuda, err := opts.ToNativeProviderOptions()
		if err != nil {
			return err
		}
		defer cuda.Destroy()
		if err := options.AppendExecutionProviderCUDA(cuda); err != nil {
			return errors.Wrap(err, "error enabling CUDA")
		}
	}
	return nil
}

// InputShape returns the shape of the input tensor.
func (s *Session) InputShape() []int64 {
	return s.inputShape
}

// OutputShape returns the shape of the output tensor.
func (s *Session) OutputShape() []int64 {
	return s.outputShape
}

// Run copies input into the input tensor, runs the model and returns a copy
// of the output tensor. Calls are serialized.
//
// Arguments:
//   - input: Exactly as many values as the input shape holds.
//
// Returns:
//   - []float32: The output values, owned by the caller.
//   - error: ErrInputSize, ErrSessionClosed or the runtime error.
func (s *Session) Run(input []float32) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, ErrSessionClosed
	}

	dst := s.input.GetData()
	if len(input) != len(dst) {
		return nil, errors.Wrapf(ErrInputSize, "got %d values, tensor holds %d", len(input), len(dst))
	}
	copy(dst, input)

	if err := s.session.Run(); err != nil {
		return nil, errors.Wrap(err, "error running ORT session")
	}

	src := s.output.GetData()
	out := make([]float32, len(src))
	copy(out, src)
	return out, nil
}

// Close releases the resources associated with the Session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.session != nil {
		err = s.session.Destroy()
		s.session = nil
	}
	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}
	if s.output != nil {
		s.output.Destroy()
		s.output = nil
	}
	if err != nil {
		return errors.Wrap(err, "error destroying ORT session")
	}
	return nil
}

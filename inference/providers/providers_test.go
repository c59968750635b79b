package providers

import (
	"testing"

	"github.com/nvr-ai/go-pose/models/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    ProviderBackend
		wantErr bool
	}{
		{"", CPUProviderBackend, false},
		{"cpu", CPUProviderBackend, false},
		{"CoreML", CoreMLProviderBackend, false},
		{"cuda", CUDAProviderBackend, false},
		{"openvino", OpenVINOProviderBackend, false},
		{"tensorrt", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBackend(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, Config{Backend: CUDAProviderBackend, Options: CUDAOptions{DeviceID: 1}}.Validate())
	assert.NoError(t, Config{Backend: CoreMLProviderBackend}.Validate())

	err := Config{Backend: CoreMLProviderBackend, Options: CUDAOptions{}}.Validate()
	assert.EqualError(t, err, "invalid options type for coreml: providers.CUDAOptions")

	assert.Error(t, Config{Backend: "tpu"}.Validate())
}

func TestCoreMLOptions_Flags(t *testing.T) {
	assert.Equal(t, uint32(0), CoreMLOptions{}.Flags())
	assert.Equal(t, uint32(0x001|0x008), CoreMLOptions{CPUOnly: true, RequireStaticInputShapes: true}.Flags())
	assert.Equal(t, uint32(0x01f), CoreMLOptions{
		CPUOnly:                  true,
		RequireANE:               true,
		RequireStaticInputShapes: true,
		EnableOnSubgraphs:        true,
		MLProgram:                true,
	}.Flags())
}

func TestCUDAOptions_Map(t *testing.T) {
	m := CUDAOptions{DeviceID: 2, DoCopyInDefaultStream: true}.Map()
	assert.Equal(t, map[string]string{
		"device_id":                 "2",
		"do_copy_in_default_stream": "1",
	}, m)

	m = CUDAOptions{GPUMemLimit: 1 << 31, ArenaExtendStrategy: "kSameAsRequested", CudnnConvAlgoSearch: "HEURISTIC"}.Map()
	assert.Equal(t, "2147483648", m["gpu_mem_limit"])
	assert.Equal(t, "kSameAsRequested", m["arena_extend_strategy"])
	assert.Equal(t, "HEURISTIC", m["cudnn_conv_algo_search"])
	assert.Equal(t, "0", m["do_copy_in_default_stream"])
}

func TestOpenVINOOptions_Map(t *testing.T) {
	m := OpenVINOOptions{DeviceType: "GPU", Precision: model.PrecisionFP16, NumOfThreads: 4}.Map()
	assert.Equal(t, map[string]string{
		"device_type":            "GPU",
		"precision":              "FP16",
		"num_of_threads":         "4",
		"disable_dynamic_shapes": "false",
	}, m)
}

func TestGetSharedLibPath_Env(t *testing.T) {
	t.Setenv(LibraryPathEnv, "/opt/onnxruntime/lib/libonnxruntime.so")
	assert.Equal(t, "/opt/onnxruntime/lib/libonnxruntime.so", GetSharedLibPath())
}

func TestNewSession_MissingModel(t *testing.T) {
	_, err := NewSession(NewSessionArgs{
		ModelPath:   "testdata/does-not-exist.onnx",
		Input:       "images",
		Output:      "output0",
		InputShape:  []int64{1, 3, 640, 640},
		OutputShape: []int64{1, 56, 8400},
		Provider:    DefaultConfig(),
	})
	assert.ErrorContains(t, err, "model not found")
}

func TestDefaultOptimizationConfig(t *testing.T) {
	cfg := DefaultOptimizationConfig()
	assert.GreaterOrEqual(t, cfg.IntraOpNumThreads, 1)
	assert.Equal(t, 1, cfg.InterOpNumThreads)
}

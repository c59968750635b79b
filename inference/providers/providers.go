// Package providers - ONNX Runtime sessions and execution provider selection.
package providers

import (
	"fmt"
	"strings"
)

// ProviderBackend names an ONNX Runtime execution provider.
type ProviderBackend string

const (
	// CPUProviderBackend runs the model on the default CPU provider.
	CPUProviderBackend ProviderBackend = "cpu"
)

// Backends lists the supported execution providers.
var Backends = []ProviderBackend{
	CPUProviderBackend,
	CoreMLProviderBackend,
	CUDAProviderBackend,
	OpenVINOProviderBackend,
}

// ParseBackend validates a backend name; the match is case-insensitive and an
// empty string selects the CPU provider.
func ParseBackend(s string) (ProviderBackend, error) {
	if s == "" {
		return CPUProviderBackend, nil
	}
	b := ProviderBackend(strings.ToLower(s))
	for _, known := range Backends {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("unsupported provider backend %q", s)
}

// ProviderOptions is a marker interface for provider-specific config.
type ProviderOptions interface {
	isProviderOptions()
}

// Config selects and tunes the execution provider for a session.
type Config struct {
	// Backend specifies the backend to use.
	Backend ProviderBackend `json:"backend" yaml:"backend"`

	// Options contains provider-specific configuration options. It must
	// match Backend; nil uses the provider defaults.
	Options ProviderOptions `json:"options" yaml:"options"`

	// Optimization controls threading and graph rewrites.
	Optimization OptimizationConfig `json:"optimization" yaml:"optimization"`

	// LibraryPath overrides the ONNX Runtime shared library location.
	LibraryPath string `json:"library_path" yaml:"library_path"`
}

// DefaultConfig returns a CPU configuration with the default optimization
// settings.
func DefaultConfig() Config {
	return Config{
		Backend:      CPUProviderBackend,
		Optimization: DefaultOptimizationConfig(),
	}
}

// Validate checks that the options match the backend.
func (c Config) Validate() error {
	if _, err := ParseBackend(string(c.Backend)); err != nil {
		return err
	}
	if c.Options == nil {
		return nil
	}

	ok := false
	switch c.Options.(type) {
	case CoreMLOptions:
		ok = c.Backend == CoreMLProviderBackend
	case CUDAOptions:
		ok = c.Backend == CUDAProviderBackend
	case OpenVINOOptions:
		ok = c.Backend == OpenVINOProviderBackend
	}
	if !ok {
		return fmt.Errorf("invalid options type for %s: %T", c.Backend, c.Options)
	}
	return nil
}

package asr

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Execution providers understood by onnxruntime through sherpa-onnx.
const (
	ProviderCPU  = "cpu"
	ProviderCUDA = "cuda"
)

// ResolveProvider maps a configured device ("auto", "cpu", "cuda") to an
// execution provider. "auto" picks CUDA when an NVIDIA device is visible.
func ResolveProvider(device string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(device)) {
	case "", "auto":
		if gpuAvailable() {
			return ProviderCUDA, nil
		}
		return ProviderCPU, nil
	case ProviderCPU:
		return ProviderCPU, nil
	case ProviderCUDA, "gpu":
		return ProviderCUDA, nil
	default:
		return "", fmt.Errorf("unknown device %q (want auto, cpu or cuda)", device)
	}
}

var gpuAvailable = func() bool {
	if _, err := os.Stat("/dev/nvidia0"); err == nil {
		return true
	}
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		return true
	}
	return false
}

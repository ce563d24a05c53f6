// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !(js && wasm)

package device

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
)

// WGPUProbe inspects the native GPU through a throwaway wgpu adapter.
// The adapter and instance are released before ProbeGPU returns.
type WGPUProbe struct {
	// PowerPreference is forwarded to the adapter request.
	PowerPreference gputypes.PowerPreference
}

// ProbeGPU implements GPUProbe.
func (p WGPUProbe) ProbeGPU() (info GPUInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			info, err = GPUInfo{}, fmt.Errorf("%w: %v", ErrProbePanic, r)
		}
	}()

	inst, err := wgpu.CreateInstance(nil)
	if err != nil {
		return GPUInfo{}, fmt.Errorf("device: create wgpu instance: %w", err)
	}
	defer inst.Release()

	adapter, err := inst.RequestAdapter(&wgpu.RequestAdapterOptions{PowerPreference: p.PowerPreference})
	if err != nil {
		return GPUInfo{}, fmt.Errorf("%w: %w", ErrNoGPU, err)
	}
	if adapter == nil {
		return GPUInfo{}, ErrNoGPU
	}
	defer adapter.Release()

	ai := adapter.Info()
	return GPUInfo{
		Adapter: gpucontext.AdapterInfo{
			Name: ai.Name,
			Type: AdapterTypeOf(ai.DeviceType),
		},
		MaxTextureSize: int(adapter.Limits().MaxTextureDimension2D),
		Renderer:       ai.Name,
	}, nil
}

// AdapterTypeOf maps a wgpu device type to a gpucontext adapter type.
func AdapterTypeOf(t gputypes.DeviceType) gpucontext.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}

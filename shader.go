package vkr

import (
	"io/ioutil"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// LoadShaderModule reads a compiled SPIR-V file resolved through the asset
// directory and wraps it in a shader module.
func (p *Platform) LoadShaderModule(cfg *Config, name string) (vk.ShaderModule, error) {
	path, err := cfg.Asset(name)
	if err != nil {
		return vk.NullShaderModule, err
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return vk.NullShaderModule, errors.Wrapf(err, "shader %s", name)
	}
	if len(data) == 0 || len(data)%4 != 0 {
		return vk.NullShaderModule, errors.Errorf("shader %s: not SPIR-V (%d bytes)", name, len(data))
	}
	return NewShaderModule(p.Device(), data)
}

// NewShaderModule creates a module from raw SPIR-V bytes.
func NewShaderModule(device vk.Device, data []byte) (vk.ShaderModule, error) {
	var module vk.ShaderModule
	ret := vk.CreateShaderModule(device, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(data)),
		PCode:    sliceUint32(data),
	}, nil, &module)
	if isError(ret) {
		return vk.NullShaderModule, NewError(ret)
	}
	return module, nil
}

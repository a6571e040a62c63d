package vkr

import (
	"context"
	"image"
	"sync"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/sync/semaphore"
	"neilpa.me/go-stbi"
)

// Texture is a sampled 2D image uploaded from host pixels.
type Texture struct {
	*Image
	Sampler vk.Sampler
}

// LoadTexture decodes an image file from the asset directory and uploads it
// as a single-level sampled texture.
func (p *Platform) LoadTexture(cfg *Config, name string) (*Texture, error) {
	path, err := cfg.Asset(name)
	if err != nil {
		return nil, err
	}
	rgba, err := stbi.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "texture %s", name)
	}
	return p.NewTexture(rgba)
}

// NewTexture uploads RGBA pixels through a staging buffer and transitions the
// image to shader-read layout.
func (p *Platform) NewTexture(rgba *image.RGBA) (*Texture, error) {
	extent := vk.Extent2D{
		Width:  uint32(rgba.Rect.Dx()),
		Height: uint32(rgba.Rect.Dy()),
	}
	img, err := p.NewImage(vk.FormatR8g8b8a8Unorm, extent, ImageOptions{
		Usage: vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit,
	})
	if err != nil {
		return nil, err
	}
	if err := p.uploadImagePixels(img, 0, rgba); err != nil {
		img.Destroy()
		return nil, err
	}
	t := &Texture{Image: img}
	t.Sampler, err = p.newTextureSampler(1)
	if err != nil {
		img.Destroy()
		return nil, err
	}
	return t, nil
}

func (t *Texture) Destroy() {
	if t.Sampler != vk.NullSampler {
		vk.DestroySampler(t.Image.device, t.Sampler, nil)
		t.Sampler = vk.NullSampler
	}
	t.Image.Destroy()
}

func (p *Platform) newTextureSampler(levels uint32) (vk.Sampler, error) {
	var sampler vk.Sampler
	ret := vk.CreateSampler(p.Device(), &vk.SamplerCreateInfo{
		SType:         vk.StructureTypeSamplerCreateInfo,
		MagFilter:     vk.FilterLinear,
		MinFilter:     vk.FilterLinear,
		MipmapMode:    vk.SamplerMipmapModeLinear,
		AddressModeU:  vk.SamplerAddressModeRepeat,
		AddressModeV:  vk.SamplerAddressModeRepeat,
		AddressModeW:  vk.SamplerAddressModeRepeat,
		MaxLod:        float32(levels),
		MaxAnisotropy: 1.0,
	}, nil, &sampler)
	if isError(ret) {
		return vk.NullSampler, NewError(ret)
	}
	return sampler, nil
}

// uploadImagePixels stages the pixels and records the copy plus layout
// transitions for one mip level on the graphics queue.
func (p *Platform) uploadImagePixels(img *Image, level uint32, rgba *image.RGBA) error {
	staging, err := p.NewHostBuffer(rgba.Pix, vk.BufferUsageTransferSrcBit)
	if err != nil {
		return err
	}
	defer staging.Destroy()

	return p.OneTimeCommands(func(cmd vk.CommandBuffer) {
		cmdTransitionLayout(cmd, img.Image, vk.ImageAspectColorBit,
			vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal, img.Levels, img.Layers)
		vk.CmdCopyBufferToImage(cmd, staging.Buffer, img.Image,
			vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{{
				ImageSubresource: vk.ImageSubresourceLayers{
					AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
					MipLevel:   level,
					LayerCount: 1,
				},
				ImageExtent: vk.Extent3D{
					Width:  uint32(rgba.Rect.Dx()),
					Height: uint32(rgba.Rect.Dy()),
					Depth:  1,
				},
			}})
		cmdTransitionLayout(cmd, img.Image, vk.ImageAspectColorBit,
			vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal, img.Levels, img.Layers)
	})
}

// maxConcurrentDecodes bounds how many mip decodes may run at once so a
// streaming texture never starves the frame loop of CPU.
const maxConcurrentDecodes = 2

// StreamingTexture loads its mip chain progressively: the smallest level is
// uploaded synchronously so sampling works immediately, larger levels are
// decoded on background goroutines and uploaded as they become ready.
// MinLod shrinks toward zero as levels arrive.
type StreamingTexture struct {
	platform *Platform

	Image   *Image
	Sampler vk.Sampler

	mu         sync.Mutex
	minLoaded  uint32
	pending    []pendingLevel
	decodeSlot *semaphore.Weighted
	cancel     context.CancelFunc
}

type pendingLevel struct {
	level uint32
	rgba  *image.RGBA
}

// NewStreamingTexture starts loading the named files as the mip chain, from
// paths[0] (full size) to paths[len-1] (smallest). The smallest level blocks;
// the rest stream in.
func (p *Platform) NewStreamingTexture(cfg *Config, paths []string) (*StreamingTexture, error) {
	if len(paths) == 0 {
		return nil, errors.New("streaming texture: empty mip chain")
	}
	smallest := uint32(len(paths) - 1)
	rgba, err := loadMipLevel(cfg, paths, smallest)
	if err != nil {
		return nil, err
	}
	// The full-size extent is the smallest level scaled back up.
	extent := vk.Extent2D{
		Width:  uint32(rgba.Rect.Dx()) << smallest,
		Height: uint32(rgba.Rect.Dy()) << smallest,
	}
	img, err := p.NewImage(vk.FormatR8g8b8a8Unorm, extent, ImageOptions{
		Usage:  vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit,
		Levels: uint32(len(paths)),
	})
	if err != nil {
		return nil, err
	}
	t := &StreamingTexture{
		platform:   p,
		Image:      img,
		minLoaded:  smallest,
		decodeSlot: semaphore.NewWeighted(maxConcurrentDecodes),
	}
	if err := p.uploadImagePixels(img, smallest, rgba); err != nil {
		img.Destroy()
		return nil, err
	}
	t.Sampler, err = p.newTextureSampler(uint32(len(paths)))
	if err != nil {
		img.Destroy()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	for level := int(smallest) - 1; level >= 0; level-- {
		go t.decodeLevel(ctx, cfg, paths, uint32(level))
	}
	return t, nil
}

// loadMipLevel decodes the file for one mip level. When the per-level file
// is absent on disk the pixels are derived by box-filtering the full-size
// image down instead, so a chain that only ships its base level still loads.
func loadMipLevel(cfg *Config, paths []string, level uint32) (*image.RGBA, error) {
	if path, err := cfg.Asset(paths[level]); err == nil {
		rgba, err := stbi.Load(path)
		if err == nil {
			return rgba, nil
		}
	}
	path, err := cfg.Asset(paths[0])
	if err != nil {
		return nil, err
	}
	base, err := stbi.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "streaming texture: level %d", level)
	}
	return mipFallback(base, level), nil
}

// mipFallback box-filters the base image down level times.
func mipFallback(base *image.RGBA, level uint32) *image.RGBA {
	rgba := base
	for i := uint32(0); i < level; i++ {
		rgba = halveRGBA(rgba)
	}
	return rgba
}

func (t *StreamingTexture) decodeLevel(ctx context.Context, cfg *Config, paths []string, level uint32) {
	if err := t.decodeSlot.Acquire(ctx, 1); err != nil {
		return
	}
	defer t.decodeSlot.Release(1)

	rgba, err := loadMipLevel(cfg, paths, level)
	if err != nil {
		return
	}
	t.mu.Lock()
	t.pending = append(t.pending, pendingLevel{level: level, rgba: rgba})
	t.mu.Unlock()
}

// Poll uploads any decoded levels. Call once per frame from the render
// thread; the GPU copy itself must not run on a decode goroutine. Returns
// the lowest resident mip level, which callers clamp sampling to via MinLod.
func (t *StreamingTexture) Poll() (uint32, error) {
	t.mu.Lock()
	ready := t.pending
	t.pending = nil
	t.mu.Unlock()

	for _, lvl := range ready {
		if err := t.uploadLevel(lvl.level, lvl.rgba); err != nil {
			return t.minLoaded, err
		}
		if lvl.level < t.minLoaded {
			t.minLoaded = lvl.level
		}
	}
	return t.minLoaded, nil
}

func (t *StreamingTexture) uploadLevel(level uint32, rgba *image.RGBA) error {
	staging, err := t.platform.NewHostBuffer(rgba.Pix, vk.BufferUsageTransferSrcBit)
	if err != nil {
		return err
	}
	defer staging.Destroy()

	return t.platform.OneTimeCommands(func(cmd vk.CommandBuffer) {
		cmdTransitionLevel(cmd, t.Image.Image, level,
			vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutTransferDstOptimal)
		vk.CmdCopyBufferToImage(cmd, staging.Buffer, t.Image.Image,
			vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{{
				ImageSubresource: vk.ImageSubresourceLayers{
					AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
					MipLevel:   level,
					LayerCount: 1,
				},
				ImageExtent: vk.Extent3D{
					Width:  uint32(rgba.Rect.Dx()),
					Height: uint32(rgba.Rect.Dy()),
					Depth:  1,
				},
			}})
		cmdTransitionLevel(cmd, t.Image.Image, level,
			vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	})
}

func (t *StreamingTexture) Destroy() {
	t.cancel()
	if t.Sampler != vk.NullSampler {
		vk.DestroySampler(t.platform.Device(), t.Sampler, nil)
		t.Sampler = vk.NullSampler
	}
	t.Image.Destroy()
}

// cmdTransitionLevel moves a single mip level between transfer-dst and
// shader-read layouts.
func cmdTransitionLevel(cmd vk.CommandBuffer, img vk.Image, level uint32,
	oldLayout, newLayout vk.ImageLayout) {

	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:   vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel: level,
			LevelCount:   1,
			LayerCount:   1,
		},
	}
	srcStage := vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	dstStage := vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	barrier.SrcAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
	barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
	if oldLayout == vk.ImageLayoutTransferDstOptimal {
		srcStage, dstStage = dstStage, srcStage
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
	}
	vk.CmdPipelineBarrier(cmd, srcStage, dstStage, 0,
		0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

// halveRGBA box-filters an image down to half size.
func halveRGBA(src *image.RGBA) *image.RGBA {
	w, h := src.Rect.Dx()/2, src.Rect.Dy()/2
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	maxX, maxY := src.Rect.Dx()-1, src.Rect.Dy()-1
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc [4]uint32
			for dy := 0; dy < 2; dy++ {
				for dx := 0; dx < 2; dx++ {
					sx, sy := x*2+dx, y*2+dy
					if sx > maxX {
						sx = maxX
					}
					if sy > maxY {
						sy = maxY
					}
					o := src.PixOffset(src.Rect.Min.X+sx, src.Rect.Min.Y+sy)
					for c := 0; c < 4; c++ {
						acc[c] += uint32(src.Pix[o+c])
					}
				}
			}
			o := dst.PixOffset(x, y)
			for c := 0; c < 4; c++ {
				dst.Pix[o+c] = uint8(acc[c] / 4)
			}
		}
	}
	return dst
}

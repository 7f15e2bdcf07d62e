package condor

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"
)

// DefaultImage is the container image used when none is configured.
const DefaultImage = "python:3.7.10-slim"

// ConfigurationOptions holds the caller-supplied resource request.
// It is validated and frozen by NewConfiguration.
type ConfigurationOptions struct {
	Universe       Universe // Execution universe (vanilla or docker)
	Image          string   // Container image reference, docker universe only
	ExtraMounts    []string // Additional host paths made visible in the container
	CPUs           int      // request_cpus
	GPUs           int      // request_gpus
	MemoryMB       int64    // request_memory in MB (0 = scheduler default)
	GPUMemoryMinMB int64    // Inclusive lower bound on CUDAGlobalMemoryMb
	GPUMemoryMaxMB int64    // Inclusive upper bound on CUDAGlobalMemoryMb (0 = unbounded)
	CUDACapability float64  // Minimum CUDACapability
	GPUModel       string   // Optional model name that fills in capability/memory
	HasStornext    bool     // Require execute hosts exposing HasStornext
	NoPriority     bool     // Avoid project-owned (priority) machines
}

// DefaultConfigurationOptions returns the defaults used by the submit tooling:
// one CPU and 4 GB of memory in the docker universe.
func DefaultConfigurationOptions() ConfigurationOptions {
	return ConfigurationOptions{
		Universe:       UniverseDocker,
		Image:          DefaultImage,
		CPUs:           1,
		MemoryMB:       4096,
		GPUMemoryMinMB: 2000,
		GPUMemoryMaxMB: 24000,
		CUDACapability: 2.0,
	}
}

// Configuration is an immutable cluster-resource request.
type Configuration struct {
	universe       Universe
	image          string
	extraMounts    []string
	cpus           int
	gpus           int
	memoryMB       int64
	gpuMemoryMinMB int64
	gpuMemoryMaxMB int64
	cudaCapability float64
	hasStornext    bool
	noPriority     bool
}

// NewConfiguration validates opts and returns a frozen Configuration.
//
// A docker universe requires an image reference. A vanilla universe with an
// image reference is rejected rather than silently ignored.
func NewConfiguration(opts ConfigurationOptions) (*Configuration, error) {
	universe := opts.Universe
	if universe == "" {
		universe = UniverseDocker
	}
	universe, err := ParseUniverse(string(universe))
	if err != nil {
		return nil, err
	}

	image := strings.TrimSpace(opts.Image)
	switch {
	case universe.IsContainer() && image == "":
		return nil, NewConfigurationError("Image", "", "required for the docker universe")
	case !universe.IsContainer() && image != "":
		return nil, NewConfigurationError("Image", image, "only allowed in the docker universe")
	}
	if image != "" {
		if _, err := name.ParseReference(image); err != nil {
			return nil, NewConfigurationError("Image", image, err.Error())
		}
	}

	if opts.CPUs < 1 {
		return nil, NewConfigurationError("CPUs", strconv.Itoa(opts.CPUs), "must be at least 1")
	}
	if opts.GPUs < 0 {
		return nil, NewConfigurationError("GPUs", strconv.Itoa(opts.GPUs), "must not be negative")
	}
	if opts.MemoryMB < 0 {
		return nil, NewConfigurationError("MemoryMB", strconv.FormatInt(opts.MemoryMB, 10), "must not be negative")
	}

	capability := opts.CUDACapability
	memMin := opts.GPUMemoryMinMB
	if opts.GPUModel != "" {
		model, ok := LookupGPUModel(opts.GPUModel)
		if !ok {
			return nil, NewConfigurationError("GPUModel", opts.GPUModel,
				"unknown model (known: "+strings.Join(GPUModelNames(), ", ")+")")
		}
		if capability == 0 {
			capability = model.Compute
		}
		if memMin == 0 {
			memMin = model.MemoryMB
		}
	}

	if capability < 0 {
		return nil, NewConfigurationError("CUDACapability", formatCapability(capability), "must not be negative")
	}
	if memMin < 0 || opts.GPUMemoryMaxMB < 0 {
		return nil, NewConfigurationError("GPUMemoryRange",
			fmt.Sprintf("[%d, %d]", memMin, opts.GPUMemoryMaxMB), "bounds must not be negative")
	}
	if opts.GPUMemoryMaxMB > 0 && memMin > opts.GPUMemoryMaxMB {
		return nil, NewConfigurationError("GPUMemoryRange",
			fmt.Sprintf("[%d, %d]", memMin, opts.GPUMemoryMaxMB), "lower bound exceeds upper bound")
	}

	mounts := make([]string, 0, len(opts.ExtraMounts))
	for _, m := range opts.ExtraMounts {
		if !path.IsAbs(m) {
			return nil, NewConfigurationError("ExtraMounts", m, "must be an absolute path")
		}
		if strings.ContainsAny(m, ", \t\n\"'") {
			return nil, NewConfigurationError("ExtraMounts", m, "must not contain commas, quotes or whitespace")
		}
		mounts = append(mounts, path.Clean(m))
	}

	return &Configuration{
		universe:       universe,
		image:          image,
		extraMounts:    mounts,
		cpus:           opts.CPUs,
		gpus:           opts.GPUs,
		memoryMB:       opts.MemoryMB,
		gpuMemoryMinMB: memMin,
		gpuMemoryMaxMB: opts.GPUMemoryMaxMB,
		cudaCapability: capability,
		hasStornext:    opts.HasStornext,
		noPriority:     opts.NoPriority,
	}, nil
}

func (c *Configuration) Universe() Universe { return c.universe }
func (c *Configuration) Image() string { return c.image }
func (c *Configuration) CPUs() int { return c.cpus }
func (c *Configuration) GPUs() int { return c.gpus }
func (c *Configuration) MemoryMB() int64 { return c.memoryMB }

// GPUMemoryRange returns the inclusive GPU memory bounds in MB.
func (c *Configuration) GPUMemoryRange() (int64, int64) {
	return c.gpuMemoryMinMB, c.gpuMemoryMaxMB
}

func (c *Configuration) CUDACapability() float64 { return c.cudaCapability }

// Mounts returns a copy of the extra mount paths.
func (c *Configuration) Mounts() []string {
	return append([]string(nil), c.extraMounts...)
}

// Requirements renders the ClassAd constraint expression for the requested
// resources. It is empty when nothing constrains the execute host.
func (c *Configuration) Requirements() string {
	var terms []string
	if c.hasStornext {
		terms = append(terms, "(HasStornext)")
	}
	if c.gpus > 0 {
		if c.gpuMemoryMinMB > 0 {
			terms = append(terms, fmt.Sprintf("(CUDAGlobalMemoryMb >= %d)", c.gpuMemoryMinMB))
		}
		if c.gpuMemoryMaxMB > 0 {
			terms = append(terms, fmt.Sprintf("(CUDAGlobalMemoryMb <= %d)", c.gpuMemoryMaxMB))
		}
		if c.cudaCapability > 0 {
			terms = append(terms, fmt.Sprintf("(CUDACapability >= %s)", formatCapability(c.cudaCapability)))
		}
	}
	if c.noPriority {
		terms = append(terms, "(NotProjectOwned)")
	}
	return strings.Join(terms, " && ")
}

// Directives renders the system part of the submit description.
func (c *Configuration) Directives() []Directive {
	ds := []Directive{{Key: "universe", Value: string(c.universe)}}
	if c.universe.IsContainer() {
		ds = append(ds, Directive{Key: "docker_image", Value: c.image})
	}
	ds = append(ds,
		Directive{Key: "request_cpus", Value: strconv.Itoa(c.cpus)},
		Directive{Key: "request_gpus", Value: strconv.Itoa(c.gpus)},
	)
	if c.memoryMB > 0 {
		ds = append(ds, Directive{Key: "request_memory", Value: strconv.FormatInt(c.memoryMB, 10)})
	}
	if req := c.Requirements(); req != "" {
		ds = append(ds, Directive{Key: "requirements", Value: req})
	}
	if c.gpus > 0 {
		ds = append(ds, Directive{Key: "+GPUMem", Value: strconv.FormatInt(c.gpuMemoryMinMB, 10)})
	}
	return ds
}

// formatCapability keeps one decimal for whole numbers ("8.0"), like nvidia-smi prints it.
func formatCapability(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

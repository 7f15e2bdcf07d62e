package condor

import (
	"sort"
	"strings"
)

// GPUModel describes the HTCondor-visible properties of a GPU family.
type GPUModel struct {
	Name     string   // Canonical model name (e.g., "a100")
	Compute  float64  // CUDA compute capability (e.g., 8.0)
	MemoryMB int64    // Smallest memory size shipped for this model, in MB
	Aliases  []string // Alternative names for this model
}

// gpuModels is a knowledge base of GPU models and their CUDA properties.
// MemoryMB is the smallest variant so that the derived requirement still
// matches every card of the family.
var gpuModels = map[string]GPUModel{
	// NVIDIA H-series (Hopper architecture)
	"h100": {Name: "h100", Compute: 9.0, MemoryMB: 80 * 1024, Aliases: []string{"h100", "hopper"}},

	// NVIDIA A-series (Ampere architecture)
	"a100": {Name: "a100", Compute: 8.0, MemoryMB: 40 * 1024, Aliases: []string{"a100", "ampere"}},
	"a40":  {Name: "a40", Compute: 8.6, MemoryMB: 48 * 1024, Aliases: []string{"a40"}},
	"a30":  {Name: "a30", Compute: 8.0, MemoryMB: 24 * 1024, Aliases: []string{"a30"}},

	// NVIDIA V-series (Volta architecture)
	"v100": {Name: "v100", Compute: 7.0, MemoryMB: 16 * 1024, Aliases: []string{"v100", "volta"}},

	// NVIDIA P-series (Pascal architecture)
	"p100": {Name: "p100", Compute: 6.0, MemoryMB: 12 * 1024, Aliases: []string{"p100", "pascal"}},
	"p40":  {Name: "p40", Compute: 6.1, MemoryMB: 24 * 1024, Aliases: []string{"p40"}},

	// NVIDIA T-series (Turing architecture)
	"t4": {Name: "t4", Compute: 7.5, MemoryMB: 16 * 1024, Aliases: []string{"t4", "turing"}},

	// NVIDIA K-series (Kepler architecture)
	"k80": {Name: "k80", Compute: 3.7, MemoryMB: 12 * 1024, Aliases: []string{"k80", "kepler"}},
}

// NormalizeGPUModel normalizes GPU model strings to canonical form
// ("NVIDIA-Tesla-V100-SXM" -> "v100").
func NormalizeGPUModel(model string) string {
	normalized := strings.ToLower(strings.TrimSpace(model))

	// Remove common prefixes/suffixes (before removing dashes)
	normalized = strings.TrimPrefix(normalized, "nvidia-")
	normalized = strings.TrimPrefix(normalized, "nvidia_")
	normalized = strings.TrimPrefix(normalized, "tesla-")
	normalized = strings.TrimPrefix(normalized, "tesla_")
	normalized = strings.TrimSuffix(normalized, "-sxm")
	normalized = strings.TrimSuffix(normalized, "-pcie")

	normalized = strings.ReplaceAll(normalized, "_", "")
	normalized = strings.ReplaceAll(normalized, "-", "")

	for canonical, model := range gpuModels {
		for _, alias := range model.Aliases {
			if normalized == alias {
				return canonical
			}
		}
	}

	return normalized
}

// LookupGPUModel returns the known properties of a GPU model.
func LookupGPUModel(model string) (GPUModel, bool) {
	m, ok := gpuModels[NormalizeGPUModel(model)]
	return m, ok
}

// GPUModelNames returns the canonical names of all known GPU models, sorted.
func GPUModelNames() []string {
	names := make([]string, 0, len(gpuModels))
	for name := range gpuModels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

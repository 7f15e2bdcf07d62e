package condor

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewConfigurationUniverseImagePairing(t *testing.T) {
	tests := []struct {
		name     string
		universe Universe
		image    string
		wantErr  bool
	}{
		{"docker with image", UniverseDocker, "repo/img:tag", false},
		{"docker without image", UniverseDocker, "", true},
		{"docker with blank image", UniverseDocker, "   ", true},
		{"vanilla without image", UniverseVanilla, "", false},
		{"vanilla with image", UniverseVanilla, "repo/img:tag", true},
		{"empty universe defaults to docker", "", "repo/img:tag", false},
		{"unknown universe", Universe("java"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultConfigurationOptions()
			opts.Universe = tt.universe
			opts.Image = tt.image

			cfg, err := NewConfiguration(opts)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewConfiguration() succeeded; want error")
				}
				if !IsConfigurationError(err) {
					t.Errorf("error %v is not a ConfigurationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewConfiguration() error = %v", err)
			}
			if cfg.Image() != strings.TrimSpace(tt.image) {
				t.Errorf("Image() = %q; want %q", cfg.Image(), tt.image)
			}
		})
	}
}

func TestNewConfigurationRejectsInvalidFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ConfigurationOptions)
		field  string
	}{
		{"zero cpus", func(o *ConfigurationOptions) { o.CPUs = 0 }, "CPUs"},
		{"negative gpus", func(o *ConfigurationOptions) { o.GPUs = -1 }, "GPUs"},
		{"negative memory", func(o *ConfigurationOptions) { o.MemoryMB = -1 }, "MemoryMB"},
		{"inverted gpu memory range", func(o *ConfigurationOptions) {
			o.GPUMemoryMinMB, o.GPUMemoryMaxMB = 24000, 8000
		}, "GPUMemoryRange"},
		{"negative capability", func(o *ConfigurationOptions) { o.CUDACapability = -1 }, "CUDACapability"},
		{"relative mount", func(o *ConfigurationOptions) { o.ExtraMounts = []string{"data"} }, "ExtraMounts"},
		{"mount with comma", func(o *ConfigurationOptions) { o.ExtraMounts = []string{"/a,b"} }, "ExtraMounts"},
		{"bad image reference", func(o *ConfigurationOptions) { o.Image = "Repo/IMG:tag" }, "Image"},
		{"unknown gpu model", func(o *ConfigurationOptions) { o.GPUModel = "voodoo2" }, "GPUModel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultConfigurationOptions()
			tt.mutate(&opts)
			_, err := NewConfiguration(opts)
			if err == nil {
				t.Fatalf("NewConfiguration() succeeded; want error on %s", tt.field)
			}
			ce, ok := err.(*ConfigurationError)
			if !ok {
				t.Fatalf("error type = %T; want *ConfigurationError", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field = %q; want %q", ce.Field, tt.field)
			}
		})
	}
}

func TestConfigurationDoesNotRetainCallerSlices(t *testing.T) {
	opts := DefaultConfigurationOptions()
	mounts := []string{"/data"}
	opts.ExtraMounts = mounts

	cfg, err := NewConfiguration(opts)
	if err != nil {
		t.Fatalf("NewConfiguration() error = %v", err)
	}
	mounts[0] = "/changed"
	got := cfg.Mounts()
	got[0] = "/also-changed"

	if diff := cmp.Diff([]string{"/data"}, cfg.Mounts()); diff != "" {
		t.Errorf("Mounts() mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigurationRequirements(t *testing.T) {
	tests := []struct {
		name string
		opts ConfigurationOptions
		want string
	}{
		{
			name: "cpu only",
			opts: ConfigurationOptions{Universe: UniverseVanilla, CPUs: 2},
			want: "",
		},
		{
			name: "gpu range and capability",
			opts: ConfigurationOptions{
				Universe: UniverseVanilla, CPUs: 1, GPUs: 1,
				GPUMemoryMinMB: 8000, GPUMemoryMaxMB: 24000, CUDACapability: 5.5,
			},
			want: "(CUDAGlobalMemoryMb >= 8000) && (CUDAGlobalMemoryMb <= 24000) && (CUDACapability >= 5.5)",
		},
		{
			name: "gpu constraints ignored without gpus",
			opts: ConfigurationOptions{
				Universe: UniverseVanilla, CPUs: 1,
				GPUMemoryMinMB: 8000, GPUMemoryMaxMB: 24000, CUDACapability: 5.5,
			},
			want: "",
		},
		{
			name: "stornext and no priority",
			opts: ConfigurationOptions{
				Universe: UniverseVanilla, CPUs: 1, GPUs: 2, CUDACapability: 7,
				HasStornext: true, NoPriority: true,
			},
			want: "(HasStornext) && (CUDACapability >= 7.0) && (NotProjectOwned)",
		},
		{
			name: "gpu model fills capability and memory",
			opts: ConfigurationOptions{Universe: UniverseVanilla, CPUs: 1, GPUs: 1, GPUModel: "NVIDIA-Tesla-V100"},
			want: "(CUDAGlobalMemoryMb >= 16384) && (CUDACapability >= 7.0)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewConfiguration(tt.opts)
			if err != nil {
				t.Fatalf("NewConfiguration() error = %v", err)
			}
			if got := cfg.Requirements(); got != tt.want {
				t.Errorf("Requirements() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestConfigurationDirectives(t *testing.T) {
	cfg, err := NewConfiguration(ConfigurationOptions{
		Universe:       UniverseDocker,
		Image:          "repo/img:tag",
		CPUs:           1,
		GPUs:           1,
		MemoryMB:       4096,
		GPUMemoryMinMB: 8000,
		GPUMemoryMaxMB: 24000,
		CUDACapability: 5.5,
	})
	if err != nil {
		t.Fatalf("NewConfiguration() error = %v", err)
	}

	want := []Directive{
		{Key: "universe", Value: "docker"},
		{Key: "docker_image", Value: "repo/img:tag"},
		{Key: "request_cpus", Value: "1"},
		{Key: "request_gpus", Value: "1"},
		{Key: "request_memory", Value: "4096"},
		{Key: "requirements", Value: "(CUDAGlobalMemoryMb >= 8000) && (CUDAGlobalMemoryMb <= 24000) && (CUDACapability >= 5.5)"},
		{Key: "+GPUMem", Value: "8000"},
	}
	if diff := cmp.Diff(want, cfg.Directives()); diff != "" {
		t.Errorf("Directives() mismatch (-want +got):\n%s", diff)
	}

	// Rendering is deterministic.
	if diff := cmp.Diff(cfg.Directives(), cfg.Directives()); diff != "" {
		t.Errorf("Directives() not deterministic:\n%s", diff)
	}
}

func TestVanillaDirectivesOmitImage(t *testing.T) {
	cfg, err := NewConfiguration(ConfigurationOptions{Universe: UniverseVanilla, CPUs: 4})
	if err != nil {
		t.Fatalf("NewConfiguration() error = %v", err)
	}
	for _, d := range cfg.Directives() {
		if d.Key == "docker_image" || d.Key == "requirements" || d.Key == "+GPUMem" {
			t.Errorf("unexpected directive %q in vanilla CPU configuration", d.Key)
		}
	}
}

func TestNormalizeGPUModel(t *testing.T) {
	tests := map[string]string{
		"A100":              "a100",
		"nvidia-tesla-v100": "v100",
		"Tesla_T4":          "t4",
		"h100-sxm":          "h100",
		"ampere":            "a100",
		"rtx4090":           "rtx4090",
	}
	for input, want := range tests {
		if got := NormalizeGPUModel(input); got != want {
			t.Errorf("NormalizeGPUModel(%q) = %q; want %q", input, got, want)
		}
	}
}

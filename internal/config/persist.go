package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Justype/condorlink/internal/condor"
	"github.com/Justype/condorlink/internal/utils"
	"github.com/spf13/viper"
)

// ConfigFilename is the name of the config file
const ConfigFilename = "config"

// ConfigType is the type of config file (yaml, json, toml)
const ConfigType = "yaml"

// EnvPrefix prefixes environment overrides, e.g. CONDORLINK_HOST.
const EnvPrefix = "CONDORLINK"

// InitViper initializes Viper with proper search paths and defaults
// Priority (highest to lowest):
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (CONDORLINK_*)
// 3. User config file (~/.config/condorlink/config.yaml)
// 4. System config file (/etc/condorlink/config.yaml)
// 5. Defaults
func InitViper() error {
	viper.SetConfigName(ConfigFilename)
	viper.SetConfigType(ConfigType)

	// User config (highest priority)
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(filepath.Join(userConfigDir, "condorlink"))
	}

	// Home directory fallback
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".condorlink"))
	}

	// System-wide config (lower priority)
	viper.AddConfigPath("/etc/condorlink")

	// Current directory (for development)
	viper.AddConfigPath(".")

	// Environment variables; nested keys use "_" (defaults.image -> CONDORLINK_DEFAULTS_IMAGE)
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set defaults (lowest priority)
	setDefaults()

	// Read config file (non-fatal if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// setDefaults sets default values for all config keys
func setDefaults() {
	viper.SetDefault("host", "")
	viper.SetDefault("user", "")
	viper.SetDefault("port", 0)
	viper.SetDefault("project_space", "")
	viper.SetDefault("identity_files", []string{})
	viper.SetDefault("ssh_config", "~/.ssh/config")
	viper.SetDefault("known_hosts", "~/.ssh/known_hosts")
	viper.SetDefault("host_key_policy", "accept-new")
	viper.SetDefault("connect_timeout", "30s")
	viper.SetDefault("password_env", "")
	viper.SetDefault("password_file", "")

	viper.SetDefault("submit_bin", "condor_submit")
	viper.SetDefault("export_env", []string{})
	viper.SetDefault("remove_submit_file", false)

	// Resource defaults
	defaults := condor.DefaultConfigurationOptions()
	viper.SetDefault("defaults.universe", string(defaults.Universe))
	viper.SetDefault("defaults.cpus", defaults.CPUs)
	viper.SetDefault("defaults.memory", fmt.Sprintf("%dM", defaults.MemoryMB))
	viper.SetDefault("defaults.gpu_memory_min", fmt.Sprintf("%dM", defaults.GPUMemoryMinMB))
	viper.SetDefault("defaults.gpu_memory_max", fmt.Sprintf("%dM", defaults.GPUMemoryMaxMB))
	viper.SetDefault("defaults.cuda_capability", defaults.CUDACapability)
}

// GetUserConfigPath returns the path to the user config file
func GetUserConfigPath() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".condorlink", ConfigFilename+"."+ConfigType), nil
	}

	return filepath.Join(userConfigDir, "condorlink", ConfigFilename+"."+ConfigType), nil
}

// SaveConfig saves current Viper config to user config file
func SaveConfig() error {
	configPath, err := GetUserConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	if err := utils.EnsureDir(filepath.Dir(configPath)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadFromViper loads config from Viper into Global struct.
// Malformed durations and sizes are reported instead of silently ignored.
func LoadFromViper() error {
	home, _ := os.UserHomeDir()

	Global.Host = viper.GetString("host")
	Global.User = viper.GetString("user")
	if port := viper.GetInt("port"); port > 0 {
		Global.Port = port
	}
	Global.ProjectSpace = viper.GetString("project_space")

	Global.IdentityFiles = nil
	for _, f := range viper.GetStringSlice("identity_files") {
		if f = strings.TrimSpace(f); f != "" {
			Global.IdentityFiles = append(Global.IdentityFiles, utils.ExpandHome(f, home))
		}
	}
	Global.SSHConfigFile = utils.ExpandHome(viper.GetString("ssh_config"), home)
	Global.KnownHostsFile = utils.ExpandHome(viper.GetString("known_hosts"), home)
	if policy := viper.GetString("host_key_policy"); policy != "" {
		Global.HostKeyPolicy = policy
	}
	if timeout := viper.GetString("connect_timeout"); timeout != "" {
		dur, err := utils.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid connect_timeout %q: %w", timeout, err)
		}
		Global.ConnectTimeout = dur
	}
	Global.PasswordEnv = viper.GetString("password_env")
	Global.PasswordFile = utils.ExpandHome(viper.GetString("password_file"), home)

	if bin := viper.GetString("submit_bin"); bin != "" {
		Global.SubmitBin = bin
	}
	Global.ExportEnv = viper.GetStringSlice("export_env")
	Global.RemoveSubmitFile = viper.GetBool("remove_submit_file")

	return loadResourceDefaults()
}

func loadResourceDefaults() error {
	d := &Global.Defaults
	if u := viper.GetString("defaults.universe"); u != "" {
		universe, err := condor.ParseUniverse(u)
		if err != nil {
			return err
		}
		d.Universe = universe
	}
	if image := viper.GetString("defaults.image"); image != "" {
		d.Image = image
	} else if !d.Universe.IsContainer() {
		d.Image = ""
	}
	if cpus := viper.GetInt("defaults.cpus"); cpus > 0 {
		d.CPUs = cpus
	}

	sizes := []struct {
		key string
		dst *int64
	}{
		{"defaults.memory", &d.MemoryMB},
		{"defaults.gpu_memory_min", &d.GPUMemoryMinMB},
		{"defaults.gpu_memory_max", &d.GPUMemoryMaxMB},
	}
	for _, s := range sizes {
		raw := viper.GetString(s.key)
		if raw == "" {
			continue
		}
		mb, err := utils.ParseSizeToMB(raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", s.key, raw, err)
		}
		*s.dst = int64(mb)
	}

	if capability := viper.GetFloat64("defaults.cuda_capability"); capability >= 0 {
		d.CUDACapability = capability
	}
	return nil
}

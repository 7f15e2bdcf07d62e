package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/Justype/condorlink/internal/condor"
	"github.com/Justype/condorlink/internal/config"
	"github.com/Justype/condorlink/internal/remote"
	"github.com/Justype/condorlink/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var showPath bool

// configKeys is the list of known configuration keys for shell completion
var configKeys = []string{
	"host",
	"user",
	"port",
	"project_space",
	"identity_files",
	"ssh_config",
	"known_hosts",
	"host_key_policy",
	"connect_timeout",
	"password_env",
	"password_file",
	"submit_bin",
	"export_env",
	"remove_submit_file",
	"defaults.universe",
	"defaults.image",
	"defaults.cpus",
	"defaults.memory",
	"defaults.gpu_memory_min",
	"defaults.gpu_memory_max",
	"defaults.cuda_capability",
}

// listKeys are array settings; they are edited in the file or via env.
var listKeys = map[string]bool{
	"identity_files": true,
	"export_env":     true,
}

// configKeysCompletion returns config keys for shell completion
func configKeysCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return configKeys, cobra.ShellCompDirectiveNoFileComp
	}
	if len(args) == 1 {
		return configValueCompletion(args[0]), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// configValueCompletion returns suggested values for a config key
func configValueCompletion(key string) []string {
	switch key {
	case "host_key_policy":
		return []string{string(remote.HostKeyStrict), string(remote.HostKeyAcceptNew), string(remote.HostKeyInsecure)}
	case "remove_submit_file":
		return []string{"true", "false"}
	case "connect_timeout":
		return []string{"10s", "30s", "1m"}
	case "defaults.universe":
		return []string{string(condor.UniverseDocker), string(condor.UniverseVanilla)}
	case "defaults.cpus":
		return []string{"1", "2", "4", "8"}
	case "defaults.memory":
		return []string{"4G", "8G", "16G", "32G"}
	case "defaults.gpu_memory_min", "defaults.gpu_memory_max":
		return []string{"8G", "16G", "24G", "40G", "80G"}
	case "defaults.cuda_capability":
		return []string{"5.5", "7.0", "8.0"}
	default:
		return nil
	}
}

// configEnvVar returns the environment variable that overrides key.
func configEnvVar(key string) string {
	return config.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// getConfigEnvVars returns the sorted override variables for all known keys.
func getConfigEnvVars() []string {
	vars := make([]string, 0, len(configKeys))
	for _, key := range configKeys {
		vars = append(vars, configEnvVar(key))
	}
	sort.Strings(vars)
	return vars
}

// validateConfigValue rejects values LoadFromViper would refuse later.
func validateConfigValue(key, value string) error {
	switch key {
	case "connect_timeout":
		if _, err := utils.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration %q: use a format like 30s, 1m or 00:01:00", value)
		}
	case "defaults.memory", "defaults.gpu_memory_min", "defaults.gpu_memory_max":
		if _, err := utils.ParseSizeToMB(value); err != nil {
			return fmt.Errorf("invalid size %q: use a format like 8G or 512M", value)
		}
	case "host_key_policy":
		if _, err := remote.ParseHostKeyPolicy(value); err != nil {
			return err
		}
	case "defaults.universe":
		if _, err := condor.ParseUniverse(value); err != nil {
			return err
		}
	}
	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage condorlink configuration",
	Long: `Manage condorlink configuration settings.

Configuration priority (highest to lowest):
  1. Command-line flags
  2. Environment variables (CONDORLINK_*)
  3. User config file (~/.config/condorlink/config.yaml)
  4. System config file (/etc/condorlink/config.yaml)
  5. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the effective configuration and any environment overrides.",
	Run: func(cmd *cobra.Command, args []string) {
		if showPath {
			configPath, err := config.GetUserConfigPath()
			if err != nil {
				utils.PrintError("Failed to get config path: %v", err)
				os.Exit(1)
			}
			fmt.Println(configPath)
			return
		}

		g := config.Global
		if used := viper.ConfigFileUsed(); used != "" {
			fmt.Printf("Config file: %s\n", utils.StylePath(used))
		} else {
			fmt.Printf("Config file: %s (use 'condorlink config init' to create)\n", utils.StyleWarning("none"))
		}
		fmt.Println()

		fmt.Println(utils.StyleTitle("Connection:"))
		fmt.Printf("  host:             %s\n", g.Host)
		fmt.Printf("  user:             %s\n", g.User)
		fmt.Printf("  port:             %d\n", g.Port)
		fmt.Printf("  project_space:    %s\n", g.ProjectSpace)
		fmt.Printf("  identity_files:   %s\n", strings.Join(g.IdentityFiles, ", "))
		fmt.Printf("  ssh_config:       %s\n", g.SSHConfigFile)
		fmt.Printf("  known_hosts:      %s\n", g.KnownHostsFile)
		fmt.Printf("  host_key_policy:  %s\n", g.HostKeyPolicy)
		fmt.Printf("  connect_timeout:  %s\n", g.ConnectTimeout)
		fmt.Printf("  password_env:     %s\n", g.PasswordEnv)
		fmt.Printf("  password_file:    %s\n", g.PasswordFile)
		fmt.Println()

		fmt.Println(utils.StyleTitle("Submission:"))
		fmt.Printf("  submit_bin:          %s\n", g.SubmitBin)
		fmt.Printf("  export_env:          %s\n", strings.Join(g.ExportEnv, ", "))
		fmt.Printf("  remove_submit_file:  %v\n", g.RemoveSubmitFile)
		fmt.Println()

		d := g.Defaults
		fmt.Println(utils.StyleTitle("Resource Defaults:"))
		fmt.Printf("  universe:         %s\n", d.Universe)
		fmt.Printf("  image:            %s\n", d.Image)
		fmt.Printf("  cpus:             %d\n", d.CPUs)
		fmt.Printf("  memory:           %d MB\n", d.MemoryMB)
		fmt.Printf("  gpu_memory_min:   %d MB\n", d.GPUMemoryMinMB)
		fmt.Printf("  gpu_memory_max:   %d MB\n", d.GPUMemoryMaxMB)
		fmt.Printf("  cuda_capability:  %g\n", d.CUDACapability)
		fmt.Println()

		fmt.Println(utils.StyleTitle("Environment Variable Overrides:"))
		hasEnvOverrides := false
		for _, envVar := range getConfigEnvVars() {
			if val := os.Getenv(envVar); val != "" {
				fmt.Printf("  %s=%s\n", envVar, val)
				hasEnvOverrides = true
			}
		}
		if !hasEnvOverrides {
			fmt.Printf("  %s\n", utils.StyleInfo("none"))
		}
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Example: `  condorlink config get host
  condorlink config get defaults.memory`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: configKeysCompletion,
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		value := viper.Get(key)
		if value == nil {
			utils.PrintError("Unknown config key: %s", key)
			os.Exit(1)
		}
		fmt.Println(value)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value and save to config file.

Size format (defaults.memory, defaults.gpu_memory_*): 512M, 8G, 1T
Duration format (connect_timeout): 30s, 1m, 00:01:00`,
	Example: `  condorlink config set host gpu-submit.example.org
  condorlink config set project_space /proj/alice
  condorlink config set defaults.memory 16G
  condorlink config set host_key_policy strict`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: configKeysCompletion,
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		value := args[1]

		if listKeys[key] {
			utils.PrintError("'%s' is an array setting. Use 'condorlink config edit' or environment variable.", key)
			utils.PrintHint("Config file (YAML array):\n  %s:\n    - first\n    - second\n\nEnvironment variable (space-separated):\n  export %s=\"first second\"",
				key, configEnvVar(key))
			os.Exit(1)
		}

		known := false
		for _, k := range configKeys {
			if k == key {
				known = true
				break
			}
		}
		if !known {
			utils.PrintWarning("Warning: '%s' is not a standard config key", key)
		}

		if err := validateConfigValue(key, value); err != nil {
			utils.PrintError("%v", err)
			os.Exit(1)
		}

		viper.Set(key, value)
		if err := config.SaveConfig(); err != nil {
			utils.PrintError("Failed to save config: %v", err)
			os.Exit(1)
		}

		configPath, _ := config.GetUserConfigPath()
		utils.PrintSuccess("Set %s = %s", utils.StyleInfo(key), utils.StyleInfo(value))
		utils.PrintNote("Config saved to: %s", configPath)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file with defaults",
	Long: `Create the user configuration file (~/.config/condorlink/config.yaml)
with default values. Connection flags given on the command line are saved too.`,
	Example: `  condorlink config init -H gpu-submit.example.org -P /proj/alice`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, err := config.GetUserConfigPath()
		if err != nil {
			utils.PrintError("Failed to get config path: %v", err)
			os.Exit(1)
		}

		if utils.FileExists(configPath) {
			utils.PrintWarning("Config file already exists: %s", configPath)
			fmt.Print("Overwrite? [y/N]: ")
			var response string
			fmt.Scanln(&response)
			response = strings.ToLower(strings.TrimSpace(response))
			if response != "y" && response != "yes" {
				utils.PrintNote("Cancelled")
				return
			}
		}

		if err := config.SaveConfig(); err != nil {
			utils.PrintError("Failed to save config: %v", err)
			os.Exit(1)
		}
		utils.PrintSuccess("Config file created")
		fmt.Printf("  Location: %s\n", utils.StylePath(configPath))
		if config.Global.Host == "" || config.Global.ProjectSpace == "" {
			utils.PrintHint("Set the submit host and project space:\n  condorlink config set host <host>\n  condorlink config set project_space <dir>")
		}
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit config file in default editor",
	Long:  "Open the configuration file in your default text editor ($EDITOR)",
	Run: func(cmd *cobra.Command, args []string) {
		configPath, err := config.GetUserConfigPath()
		if err != nil {
			utils.PrintError("Failed to get config path: %v", err)
			os.Exit(1)
		}

		if !utils.FileExists(configPath) {
			utils.PrintNote("Config file doesn't exist, creating it first...")
			if err := config.SaveConfig(); err != nil {
				utils.PrintError("Failed to create config: %v", err)
				os.Exit(1)
			}
		}

		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "vi"
		}

		editorCmd := exec.Command(editor, configPath)
		editorCmd.Stdin = os.Stdin
		editorCmd.Stdout = os.Stdout
		editorCmd.Stderr = os.Stderr

		if err := editorCmd.Run(); err != nil {
			utils.PrintError("Failed to open editor: %v", err)
			os.Exit(1)
		}
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&showPath, "path", false, "Show only the config file path")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEditCmd)

	rootCmd.AddCommand(configCmd)
}

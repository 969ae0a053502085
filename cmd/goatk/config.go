package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"goatk/internal/config"
)

var (
	configFormat   string
	configShowDiff bool
	configForce    bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage goatk configuration",
	Long:  "View and manage goatk configuration stored in .goatk/config.toml",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	Long: `Write the built-in defaults to .goatk/config.toml in the workspace.

Examples:
  goatk config init
  goatk config init --force   # Overwrite an existing file`,
	Args: cobra.NoArgs,
	Run:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective goatk configuration, after environment overrides.

Examples:
  goatk config show                 # Pretty-print current config
  goatk config show --format=toml   # As a config file
  goatk config show --diff          # Only show non-default values`,
	Args: cobra.NoArgs,
	Run:  runConfigShow,
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List supported environment variables",
	Long:  "Display every GOATK_* environment variable override",
	Args:  cobra.NoArgs,
	Run:   runConfigEnv,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")
	configShowCmd.Flags().StringVar(&configFormat, "format", "human", "Output format (human, json, yaml, toml)")
	configShowCmd.Flags().BoolVar(&configShowDiff, "diff", false, "Only show non-default values")

	configCmd.AddCommand(configInitCmd, configShowCmd, configEnvCmd)
	rootCmd.AddCommand(configCmd)
}

// ConfigSettingCLI is one flattened configuration key.
type ConfigSettingCLI struct {
	Key     string      `json:"key" yaml:"key"`
	Value   interface{} `json:"value" yaml:"value"`
	Default interface{} `json:"default" yaml:"default"`
}

func runConfigInit(cmd *cobra.Command, args []string) {
	path := config.Path(workspaceFlag)
	if _, err := os.Stat(path); err == nil && !configForce {
		fmt.Fprintf(os.Stderr, "Error: %s already exists (use --force to overwrite)\n", path)
		os.Exit(1)
	}
	if err := config.DefaultConfig().Save(workspaceFlag); err != nil {
		exitWithError("writing config", err)
	}
	fmt.Printf("Wrote %s\n", path)
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(flagOptions(cmd))
	if err != nil {
		exitWithError("loading config", err)
	}

	if configFormat == "toml" {
		if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
			exitWithError("formatting output", err)
		}
		return
	}

	settings, err := configSettings(cfg, configShowDiff)
	if err != nil {
		exitWithError("formatting output", err)
	}
	if configFormat != "human" {
		if configShowDiff {
			printResponse(settings, configFormat)
		} else {
			printResponse(cfg, configFormat)
		}
		return
	}

	fmt.Println("goatk configuration")
	fmt.Println(strings.Repeat("-", 50))
	if configFlag != "" {
		fmt.Printf("Source: %s\n", configFlag)
	} else if _, err := os.Stat(config.Path(workspaceFlag)); err == nil {
		fmt.Printf("Source: %s\n", config.Path(workspaceFlag))
	} else {
		fmt.Println("Source: defaults (no config file found)")
	}
	fmt.Println()
	if configShowDiff && len(settings) == 0 {
		fmt.Println("All settings are at their defaults.")
		return
	}
	for _, st := range settings {
		fmt.Println(formatSetting(st))
	}
}

func formatSetting(st ConfigSettingCLI) string {
	if isEqual(st.Value, st.Default) {
		return fmt.Sprintf("%s: %v", st.Key, st.Value)
	}
	return fmt.Sprintf("%s: %v (default: %v)", st.Key, st.Value, st.Default)
}

// configSettings flattens cfg into dotted keys sorted by key, each with
// its default. With diffOnly, keys equal to their default are dropped.
func configSettings(cfg *config.Config, diffOnly bool) ([]ConfigSettingCLI, error) {
	current, err := flattenConfig(cfg)
	if err != nil {
		return nil, err
	}
	defaults, err := flattenConfig(config.DefaultConfig())
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(current))
	for k := range current {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []ConfigSettingCLI
	for _, k := range keys {
		st := ConfigSettingCLI{Key: k, Value: current[k], Default: defaults[k]}
		if diffOnly && isEqual(st.Value, st.Default) {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

func flattenConfig(cfg *config.Config) (map[string]interface{}, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var tree map[string]interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	out := make(map[string]interface{})
	flatten("", tree, out)
	return out, nil
}

func flatten(prefix string, v interface{}, out map[string]interface{}) {
	m, ok := v.(map[string]interface{})
	if !ok {
		out[prefix] = v
		return
	}
	for k, child := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		flatten(key, child, out)
	}
}

func isEqual(a, b interface{}) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// envVarName is the environment variable overriding a dotted config key.
func envVarName(key string) string {
	return config.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func runConfigEnv(cmd *cobra.Command, args []string) {
	settings, err := configSettings(config.DefaultConfig(), false)
	if err != nil {
		exitWithError("listing environment variables", err)
	}
	fmt.Println("Supported environment variables:")
	fmt.Println()
	for _, st := range settings {
		value := os.Getenv(envVarName(st.Key))
		if value != "" {
			fmt.Printf("  %-45s %s (set: %s)\n", envVarName(st.Key), st.Key, value)
		} else {
			fmt.Printf("  %-45s %s\n", envVarName(st.Key), st.Key)
		}
	}
}

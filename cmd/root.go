package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/epochlab/protopack/internal/config"
	"github.com/epochlab/protopack/internal/log"
	"github.com/epochlab/protopack/internal/stage"
	"github.com/epochlab/protopack/internal/stagecache"
	"github.com/epochlab/protopack/internal/tools"
	"github.com/epochlab/protopack/internal/version"
)

var (
	cliVersion = "dev"
	cfgFile    string
	debugMode  bool
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "protopack",
	Short: "Package the schema library for native, scripting, and web ecosystems",
	Long: `protopack drives the schema compiler and per-ecosystem packaging tools
through a repeatable pipeline: generate -> package -> build -> test -> publish.

Completed stages are recorded per version and skipped on re-runs; the canonical
version lives in the VERSION file and is propagated into every ecosystem manifest.`,
	Version:       cliVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debugMode || os.Getenv("PROTOPACK_DEBUG") != "" {
			if _, err := log.Init(".protopack/protopack.log"); err != nil {
				return fmt.Errorf("initializing debug log: %w", err)
			}
		} else {
			log.SetEnabled(false)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .protopack.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false,
		"write a debug log to .protopack/protopack.log")
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("schema_dir", defaults.SchemaDir)
	viper.SetDefault("marker_dir", defaults.MarkerDir)
	viper.SetDefault("watch_debounce", defaults.WatchDebounce)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .protopack.yaml (current directory)
		// 2. ~/.config/protopack/config.yaml (user config)
		if _, err := os.Stat(".protopack.yaml"); err == nil {
			viper.SetConfigFile(".protopack.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "protopack"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at .protopack.yaml
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			defaultPath := ".protopack.yaml"
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "warning: invalid configuration: %v\n", err)
		cfg = config.Defaults()
	}
	if len(cfg.Targets) == 0 {
		cfg.Targets = config.Defaults().Targets
	}
	if len(cfg.Manifests) == 0 {
		cfg.Manifests = config.Defaults().Manifests
	}
}

// loadProject validates the configuration and wires the shared components for
// a command run.
func loadProject() (*version.Registry, *stagecache.Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	cache, err := stagecache.New(cfg.MarkerDir)
	if err != nil {
		return nil, nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("getting current directory: %w", err)
	}
	return version.NewRegistry(cwd), cache, nil
}

// parseTargets resolves positional target arguments, defaulting to all three.
func parseTargets(args []string) ([]stage.Target, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "all") {
		return stage.Targets(), nil
	}

	out := make([]stage.Target, 0, len(args))
	for _, a := range args {
		t, err := stage.ParseTarget(a)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// newRunner returns the external tool runner commands share.
func newRunner() tools.Runner {
	return tools.NewExecRunner()
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	cliVersion = v
	rootCmd.Version = v
}

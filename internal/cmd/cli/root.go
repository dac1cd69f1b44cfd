package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/rzbill/multipart/internal/config"
	"github.com/rzbill/multipart/internal/runtime"
	logpkg "github.com/rzbill/multipart/pkg/log"
)

// NewRoot constructs the root command. logger receives runtime and engine
// logs; its level follows --log-level when set.
func NewRoot(logger logpkg.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "multipart",
		Short:         "Partition streams into fixed-size signed page logs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", os.Getenv("MULTIPART_CONFIG"), "Config file (JSON or YAML)")
	root.PersistentFlags().String("data-dir", "", "Data directory (default from config or OS-specific application data directory)")
	root.PersistentFlags().String("fsync", "", "Fsync mode: always|interval|never")
	root.PersistentFlags().String("log-level", "", "Log level: debug|info|warn|error")

	root.AddCommand(
		newWriteCommand(logger),
		newReadCommand(logger),
		newKeysCommand(),
		newListCommand(logger),
		newInspectCommand(logger),
		newRemoveCommand(logger),
	)
	return root
}

// loadConfig resolves config file, environment and global flags, in that
// order of increasing precedence.
func loadConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, err
	}
	cfgpkg.FromEnv(&cfg)
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("fsync"); v != "" {
		cfg.Fsync = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if err := cfg.Validate(); err != nil {
		return cfgpkg.Config{}, err
	}
	return cfg, nil
}

// withRuntime opens the runtime for the duration of fn.
func withRuntime(cmd *cobra.Command, logger logpkg.Logger, fn func(*runtime.Runtime) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if lvl, err := logpkg.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(lvl)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	rt, err := runtime.Open(runtime.Options{Config: cfg, Logger: logger})
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()
	if err := rt.CheckHealth(cmd.Context()); err != nil {
		return err
	}
	return fn(rt)
}

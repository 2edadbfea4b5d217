package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mj1618/device-bridge/internal/config"
	"github.com/mj1618/device-bridge/internal/observability"
	"github.com/mj1618/device-bridge/internal/output"
	"github.com/mj1618/device-bridge/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile   string
	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "device-bridge",
	Short: "Read and tap an Android device's UI for automation agents",
	Long: `device-bridge reads the actionable elements of a device's current screen,
captures screenshots and injects taps. Agents drive it over MCP (serve) or
through the one-shot capture, tap and status commands.`,
	SilenceUsage: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	observability.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./device-bridge.yaml)")
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Indent JSON output")
	rootCmd.PersistentFlags().String("backend", "", "Device backend (overrides backend.name)")
	rootCmd.PersistentFlags().String("serial", "", "Device serial (overrides backend.serial)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			observability.InitializeLogger(config.NewDefaultConfig().Logger)
			return err
		}
		appConfig = cfg
		observability.InitializeLogger(cfg.Logger)
		observability.GetLogger().Debug("configuration loaded",
			zap.String("version", version.Version),
			zap.String("backend", cfg.Backend.Name))

		format, _ := rootCmd.PersistentFlags().GetString("format")
		f, err := output.ParseFormat(format)
		if err != nil {
			return err
		}
		output.OutputFormat = f
		output.PrettyOutput, _ = rootCmd.PersistentFlags().GetBool("pretty")
		return nil
	}
}

// flagKeys maps flags onto the config keys they override. Subcommand
// flags are included; Lookup only finds the ones the command defines.
var flagKeys = map[string]string{
	"backend":   "backend.name",
	"serial":    "backend.serial",
	"log-level": "logger.level",
	"transport": "server.transport",
	"port":      "server.port",
	"annotate":  "capture.annotate",
	"labels":    "capture.labels",
}

// loadConfig reads the config file and environment, then applies any
// flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := config.NewViper()
	if err := config.ReadFile(v, cfgFile); err != nil {
		return nil, err
	}
	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}
	return config.FromViper(v)
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for flag, key := range flagKeys {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	return nil
}

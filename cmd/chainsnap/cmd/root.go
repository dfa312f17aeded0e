package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/chainsnap/chainsnap"
)

var rootCmd = &cobra.Command{
	Use:   "chainsnap",
	Short: "Chain state snapshot tool",
	Long:  "CLI for capturing remote chain storage into local snapshot files and inspecting them.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ~/.config/chainsnap/config.yaml)")
	rootCmd.PersistentFlags().String("endpoint", "", "node RPC endpoint (default: "+chainsnap.DefaultEndpoint+")")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	viper.BindPFlag("endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfg := rootCmd.PersistentFlags().Lookup("config").Value.String(); cfg != "" {
		viper.SetConfigFile(cfg)
	} else {
		viper.AddConfigPath(configDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CHAINSNAP")
	viper.AutomaticEnv()
	viper.SetDefault("endpoint", chainsnap.DefaultEndpoint)
	viper.SetDefault("concurrency", 4)

	viper.ReadInConfig()
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "chainsnap")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "chainsnap")
	}
	return ".chainsnap"
}

// newObserver builds the event observer backing all commands. The returned
// func flushes buffered log output.
func newObserver() (chainsnap.Observer, func()) {
	var (
		logger *zap.Logger
		err    error
	)
	if viper.GetBool("verbose") {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return chainsnap.NoopObserver{}, func() {}
	}
	return chainsnap.NewZapObserver(logger), func() { _ = logger.Sync() }
}

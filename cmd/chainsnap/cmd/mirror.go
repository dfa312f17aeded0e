package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chainsnap/chainsnap"
)

// target is one chain to mirror, as listed under "targets" in the config
// file.
type target struct {
	Name     string   `mapstructure:"name"`
	Endpoint string   `mapstructure:"endpoint"`
	At       string   `mapstructure:"at"`
	Modules  []string `mapstructure:"modules"`
	Path     string   `mapstructure:"path"`
	Compress bool     `mapstructure:"compress"`
}

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Snapshot every configured target",
	Long: "Run one retrieval session per target from the config file and write each snapshot. " +
		"Targets are fetched in parallel; each session still issues its own requests sequentially.",
	Args: cobra.NoArgs,
	RunE: runMirror,
}

func init() {
	mirrorCmd.Flags().Int("concurrency", 4, "number of targets fetched in parallel")
	viper.BindPFlag("concurrency", mirrorCmd.Flags().Lookup("concurrency"))
	rootCmd.AddCommand(mirrorCmd)
}

func runMirror(cmd *cobra.Command, args []string) error {
	var targets []target
	if err := viper.UnmarshalKey("targets", &targets); err != nil {
		return fmt.Errorf("parse targets: %w", err)
	}
	if len(targets) == 0 {
		return fmt.Errorf("no targets configured")
	}

	observer, flush := newObserver()
	defer flush()

	p := pool.New().WithMaxGoroutines(viper.GetInt("concurrency")).WithContext(cmd.Context()).WithCancelOnError()

	for _, t := range targets {
		p.Go(func(ctx context.Context) error {
			if t.Path == "" {
				return fmt.Errorf("target %q: missing snapshot path", t.Name)
			}
			endpoint := t.Endpoint
			if endpoint == "" {
				endpoint = viper.GetString("endpoint")
			}

			store, err := chainsnap.New(
				chainsnap.WithMode(chainsnap.Online{
					Endpoint: endpoint,
					At:       t.At,
					Modules:  t.Modules,
					Snapshot: &chainsnap.SnapshotConfig{Path: t.Path, Compress: t.Compress},
				}),
				chainsnap.WithObserver(observer),
			).Build(ctx)
			if err != nil {
				return fmt.Errorf("target %q: %w", t.Name, err)
			}

			fmt.Fprintf(os.Stderr, "[mirror] %s: %d keys -> %s\n", t.Name, store.Len(), t.Path)
			return nil
		})
	}

	return p.Wait()
}

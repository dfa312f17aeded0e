package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chainsnap/chainsnap"
)

var pullCmd = &cobra.Command{
	Use:   "pull <snapshot-path>",
	Short: "Fetch chain state into a snapshot file",
	Long:  "Fetch storage pairs from a node at a fixed block and write them to a snapshot file.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPull,
}

func init() {
	pullCmd.Flags().StringSlice("module", nil, "module to fetch (repeatable; default: whole keyspace)")
	pullCmd.Flags().String("at", "", "block hash to read at (default: latest finalized)")
	pullCmd.Flags().Bool("compress", false, "zstd-compress the snapshot")
	rootCmd.AddCommand(pullCmd)
}

func runPull(cmd *cobra.Command, args []string) error {
	path := args[0]
	modules, _ := cmd.Flags().GetStringSlice("module")
	at, _ := cmd.Flags().GetString("at")
	compress, _ := cmd.Flags().GetBool("compress")

	observer, flush := newObserver()
	defer flush()

	store, err := chainsnap.New(
		chainsnap.WithMode(chainsnap.Online{
			Endpoint: viper.GetString("endpoint"),
			At:       at,
			Modules:  modules,
			Snapshot: &chainsnap.SnapshotConfig{Path: path, Compress: compress},
		}),
		chainsnap.WithObserver(observer),
	).Build(cmd.Context())
	if err != nil {
		return fmt.Errorf("pull failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Done. %d keys -> %s\n", store.Len(), path)
	return nil
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chainsnap/chainsnap"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <snapshot-path>",
	Short: "Inspect a snapshot file",
	Long:  "Load a snapshot file offline and print its contents without contacting a node.",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().Bool("keys", false, "list every key")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	showKeys, _ := cmd.Flags().GetBool("keys")

	observer, flush := newObserver()
	defer flush()

	store, err := chainsnap.New(
		chainsnap.WithMode(chainsnap.Offline{
			Snapshot: chainsnap.SnapshotConfig{Path: path},
		}),
		chainsnap.WithObserver(observer),
	).Build(cmd.Context())
	if err != nil {
		return err
	}

	var total int
	for key, value := range store.Entries() {
		total += len(key) + len(value)
		if showKeys {
			fmt.Printf("0x%x\t%d bytes\n", key, len(value))
		}
	}

	fmt.Fprintf(os.Stderr, "%d keys, %d bytes of state\n", store.Len(), total)
	return nil
}

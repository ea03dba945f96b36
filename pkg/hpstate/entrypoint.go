package hpstate

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/function61/gokit/osutil"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func Entrypoint() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect the per-root state file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show [root]",
		Short: "Show the recorded snapshot for a root",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			osutil.ExitIfError(show(args[0]))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "location [root]",
		Short: "Print the state file location for a root",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			root, err := filepath.Abs(args[0])
			osutil.ExitIfError(err)

			fmt.Println(Location(root))
		},
	})

	return cmd
}

func show(rootArg string) error {
	root, err := filepath.Abs(rootArg)
	if err != nil {
		return err
	}

	snapshot, err := Load(root)
	if err != nil {
		return err
	}

	paths := lo.Keys(snapshot.Entries)
	sort.Strings(paths)

	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.SetHeader([]string{"Path", "Modified", "SHA-256"})
	tbl.SetBorder(false)

	for _, path := range paths {
		entry := snapshot.Entries[path]

		tbl.Append([]string{
			path,
			entry.Mtime.Format(time.RFC3339),
			hex.EncodeToString(entry.Hash),
		})
	}

	tbl.Render()

	return nil
}

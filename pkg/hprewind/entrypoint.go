package hprewind

import (
	"path/filepath"

	"github.com/function61/gokit/logex"
	"github.com/function61/gokit/osutil"
	"github.com/spf13/cobra"
)

func Entrypoint() *cobra.Command {
	dry := false

	cmd := &cobra.Command{
		Use:   "rewind [root]",
		Short: "Rewind mtimes of files that were touched but whose content did not change",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			osutil.ExitIfError(func() error {
				root, err := filepath.Abs(args[0])
				if err != nil {
					return err
				}

				_, err = Reconcile(root, dry, logex.StandardLogger())
				return err
			}())
		},
	}

	cmd.Flags().BoolVarP(&dry, "dry", "", dry, "Only report what would be rewound, without changing anything")

	return cmd
}

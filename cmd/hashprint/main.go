package main

import (
	"os"

	"github.com/function61/gokit/dynversion"
	"github.com/function61/gokit/osutil"
	"github.com/function61/hashprint/pkg/hprewind"
	"github.com/function61/hashprint/pkg/hpstate"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     os.Args[0],
		Short:   "Rewinds mtimes of files that were touched without their content changing",
		Version: dynversion.Version,
	}

	rootCmd.AddCommand(hprewind.Entrypoint())
	rootCmd.AddCommand(hpstate.Entrypoint())

	osutil.ExitIfError(rootCmd.Execute())
}

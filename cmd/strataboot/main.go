// Command strataboot runs the web application and its out-of-band tools.
//
//	strataboot serve [waffle flags]     run the HTTP server
//	strataboot migrate up|down|version|goto N|force N
//	strataboot hash-password            print a bcrypt hash for a seed file
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "strataboot",
		Short:         "Strataboot web application",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newHashPasswordCmd())
	return root
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is stamped by the release build via -ldflags.
var version = "dev"

func init() {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the wayfarer version",
		Run:   runVersion,
	}

	RootCmd.AddCommand(cmd)
}

func runVersion(cmd *cobra.Command, args []string) {
	fmt.Println("wayfarer " + version)
}

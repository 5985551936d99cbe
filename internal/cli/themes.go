package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/wayfarer/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "themes",
		Short: "List the available destination themes",
		Run:   runThemes,
	}

	RootCmd.AddCommand(cmd)
}

func runThemes(cmd *cobra.Command, args []string) {
	for _, t := range model.Themes() {
		fmt.Println(t)
	}
}

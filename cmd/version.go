package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("techtranslator %s\n", displayVersion())
			if appDate != "" && appDate != "unknown" {
				fmt.Printf("built %s\n", appDate)
			}
		},
	}
}

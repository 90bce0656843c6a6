package commands

import (
	"fmt"

	"github.com/natserract/pipedrive/pkg/pipedrive"
	"github.com/spf13/cobra"
)

// NewEntityNameCommand prints the REST collection name of a type name.
func NewEntityNameCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "entity-name TYPE",
		Short:   "Print the REST collection of a type",
		Example: "  pipedrive entity-name CallLog   # call_logs",
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), pipedrive.EntityName(args[0]))
		},
	}
}

package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the sr client.
// It registers the recordings and session command groups.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "sr",
		Short: "sr client commands",
	}
	root.AddCommand(NewRecordingsCommand(baseURL))
	root.AddCommand(NewSessionCommand(baseURL))
	return root
}

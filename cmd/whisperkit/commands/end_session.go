package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"whisperkit/internal/domain"
)

func endSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "end-session <peer>",
		Short: "Delete the session with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			peer := domain.Username(args[0])
			if err := appCtx.Sessions.Delete(peer); err != nil {
				return err
			}
			fmt.Printf("Session with %s deleted\n", peer)
			return nil
		},
	}
}

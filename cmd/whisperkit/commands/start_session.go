package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"whisperkit/internal/domain"
)

// startSessionCmd runs the handshake against a peer's prekey bundle and
// persists a new session for future messaging.
func startSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start-session <peer>",
		Short: "Establish a secure session with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if appCtx.Relay == nil {
				return fmt.Errorf("no relay configured. use --relay")
			}
			peer := domain.Username(args[0])

			if err := appCtx.Sessions.Initiate(cmd.Context(), passphrase, peer); err != nil {
				return fmt.Errorf("starting session with %q: %w", peer, err)
			}
			fmt.Printf("Session created with %s\n", peer)
			return nil
		},
	}
}

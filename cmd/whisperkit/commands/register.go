package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"whisperkit/internal/domain"
)

func registerCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Publish your prekey bundle to the relay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if appCtx.Relay == nil {
				return fmt.Errorf("no relay configured. use --relay")
			}
			name := args[0]

			// Rotate the signed and KEM prekeys and mint fresh one-time keys.
			if _, err := appCtx.PreKeys.GenerateAndStorePreKeys(passphrase, count); err != nil {
				return err
			}
			bundle, err := appCtx.PreKeys.LoadPreKeyBundle(passphrase, domain.Username(name))
			if err != nil {
				return err
			}
			if err := appCtx.Relay.RegisterPreKeyBundle(cmd.Context(), bundle); err != nil {
				return err
			}

			fmt.Printf("Registered %d one-time prekeys with relay\n", len(bundle.OneTimePreKeys))
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 10, "number of one-time prekeys to generate")
	return cmd
}

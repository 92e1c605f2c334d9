package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"whisperkit/internal/app"
)

var (
	home       string
	passphrase string
	relayURL   string
	username   string

	appCtx *app.App
)

// Execute builds the root command and runs it.
func Execute() error {
	root := &cobra.Command{
		Use:   "whisperkit",
		Short: "End-to-end encrypted messaging CLI with post-quantum key agreement",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".whisperkit")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}
			appCtx = app.New(app.Config{Home: home, RelayURL: relayURL})
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.whisperkit)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase to protect keys")
	root.PersistentFlags().StringVar(&relayURL, "relay", "", "relay base URL (e.g. http://127.0.0.1:8080)")

	root.AddCommand(
		initCmd(),
		fingerprintCmd(),
		registerCmd(),
		startSessionCmd(),
		endSessionCmd(),
		sendCmd(),
		recvCmd(),
	)
	return root.Execute()
}

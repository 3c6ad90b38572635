package main

import (
	"github.com/spf13/cobra"

	"namechain/crypto"
)

func newKeyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "key", Short: "Create and inspect keystore files"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "new",
			Short: "Generate a key and write it to --keystore",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				pass, err := a.secret()
				if err != nil {
					return err
				}
				key, err := crypto.CreateKeystore(a.keystore, pass)
				if err != nil {
					return err
				}
				a.printf("%s\n", key.PubKey().Address().String())
				return nil
			},
		},
		&cobra.Command{
			Use:   "address",
			Short: "Print the address stored in --keystore",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				key, err := a.loadKey()
				if err != nil {
					return err
				}
				a.printf("%s\n", key.PubKey().Address().String())
				return nil
			},
		},
	)
	return cmd
}

func (a *app) loadKey() (*crypto.PrivateKey, error) {
	pass, err := a.secret()
	if err != nil {
		return nil, err
	}
	return crypto.LoadFromKeystore(a.keystore, pass)
}

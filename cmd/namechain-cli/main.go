package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"namechain/cmd/internal/passphrase"
)

const (
	rpcURLEnv     = "NAMECHAIN_RPC_URL"
	rpcTokenEnv   = "NAMECHAIN_RPC_TOKEN"
	passphraseEnv = "NAMECHAIN_KEYSTORE_PASS"
)

// app carries the global flags shared by every command.
type app struct {
	endpoint string
	token    string
	keystore string
	out      io.Writer
	secret   func() (string, error)
}

func main() {
	a := &app{out: os.Stdout, secret: passphrase.NewSource(passphraseEnv, "").Get}
	if err := newRootCmd(a).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "namechain-cli",
		Short: "Manage keys, names and registry administration on a namechain node",
		SilenceUsage: true,
	}
	root.SetOut(a.out)
	root.PersistentFlags().StringVar(&a.endpoint, "rpc", envOr(rpcURLEnv, "http://127.0.0.1:8545"), "JSON-RPC endpoint (env "+rpcURLEnv+")")
	root.PersistentFlags().StringVar(&a.token, "token", os.Getenv(rpcTokenEnv), "bearer token for write calls (env "+rpcTokenEnv+")")
	root.PersistentFlags().StringVar(&a.keystore, "keystore", "./key.json", "keystore file used to sign transactions")

	root.AddCommand(
		newKeyCmd(a),
		newQueryCmd(a),
		newSendCmd(a),
		newAdminCmd(a),
		newMerkleCmd(a),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}

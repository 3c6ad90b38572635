package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"namechain/crypto"
)

func (a *app) printJSON(raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		a.printf("%s\n", strings.TrimSpace(string(raw)))
		return nil
	}
	a.printf("%s\n", buf.String())
	return nil
}

func (a *app) query(ctx context.Context, method string, param interface{}) error {
	var result json.RawMessage
	if err := newRPCClient(a.endpoint, a.token).Call(ctx, method, param, &result); err != nil {
		return err
	}
	return a.printJSON(result)
}

func parseRecipient(value string) ([]byte, error) {
	addr, err := crypto.ParseAddress(value)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", value, err)
	}
	return addr.Bytes(), nil
}

// queryCmd binds a read-only RPC method to a command whose positional
// arguments fill the named parameters in order.
func queryCmd(a *app, use, short, method string, fields ...string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(len(fields)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var param interface{}
			if len(fields) > 0 {
				values := make(map[string]string, len(fields))
				for i, field := range fields {
					values[field] = args[i]
				}
				param = values
			}
			return a.query(cmd.Context(), method, param)
		},
	}
}

func newQueryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "query", Aliases: []string{"q"}, Short: "Read chain and registry state"}

	var years uint64
	var recipient, referrer string
	price := &cobra.Command{
		Use:   "price <name>",
		Short: "Quote the registration price of a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]interface{}{"name": args[0], "years": years}
			if recipient != "" {
				params["recipient"] = recipient
			}
			if referrer != "" {
				params["referrer"] = referrer
			}
			return a.query(cmd.Context(), "nc_getNamePrice", params)
		},
	}
	price.Flags().Uint64Var(&years, "years", 1, "registration period in years")
	price.Flags().StringVar(&recipient, "recipient", "", "recipient used for whitelist pricing")
	price.Flags().StringVar(&referrer, "referrer", "", "referrer name")

	var limit int
	history := &cobra.Command{
		Use:   "history <name>",
		Short: "List indexed events for a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.query(cmd.Context(), "nc_getNameHistory", map[string]interface{}{"name": args[0], "limit": limit})
		},
	}
	history.Flags().IntVar(&limit, "limit", 50, "maximum number of events")

	status := &cobra.Command{
		Use:   "status <name>...",
		Short: "Show the status of one or more names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.query(cmd.Context(), "nc_getNameStatus", map[string][]string{"names": args})
		},
	}

	cmd.AddCommand(
		status,
		price,
		history,
		queryCmd(a, "info", "Show chain parameters and head", "nc_chainInfo"),
		queryCmd(a, "account <address>", "Show nonce and balance of an account", "nc_getAccount", "address"),
		queryCmd(a, "resolve <domain>", "Resolve a fully qualified domain to an address", "nc_resolve", "domain"),
		queryCmd(a, "primary <address>", "Show the primary domain of an address", "nc_getPrimaryDomain", "address"),
		queryCmd(a, "name <name>", "Show the full record of a name", "nc_getNameRecord", "name"),
		queryCmd(a, "records <name>", "List the text records of a name", "nc_getRecords", "name"),
		queryCmd(a, "names-of <relation> <address>", "List names an address owns, controls or resolves to", "nc_getNamesOf", "relation", "address"),
		queryCmd(a, "settings", "Show registry settings", "nc_getRegistrySettings"),
	)
	return cmd
}

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"namechain/core"
	"namechain/core/types"
)

func newAdminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "admin", Short: "Registry administration transactions"}

	var beneficiary string
	withdraw := &cobra.Command{
		Use:   "withdraw <amount>",
		Short: "Withdraw collected fees from the vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.submit(cmd.Context(), types.TxTypeWithdraw, nil, nil, core.WithdrawPayload{Beneficiary: beneficiary, Amount: args[0]})
		},
	}
	withdraw.Flags().StringVar(&beneficiary, "to", "", "beneficiary address; defaults to the sender")

	var claimants []string
	reserve := &cobra.Command{
		Use:   "reserve <name>...",
		Short: "Reserve names, optionally for a claimant given as name=address via --for",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := reservedEntries(args, claimants)
			if err != nil {
				return err
			}
			return a.submit(cmd.Context(), types.TxTypeAddReserved, nil, nil, core.AddReservedPayload{Entries: entries})
		},
	}
	reserve.Flags().StringArrayVar(&claimants, "for", nil, "name=address claimant (repeatable)")

	cmd.AddCommand(
		withdraw,
		reserve,
		&cobra.Command{
			Use:   "unreserve <name>...",
			Short: "Remove names from the reserved list",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.submit(cmd.Context(), types.TxTypeRemoveReserved, nil, nil, core.NamesPayload{Names: args})
			},
		},
		&cobra.Command{
			Use:   "public-phase",
			Short: "End the whitelist phase",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.submit(cmd.Context(), types.TxTypeSwitchToPublicPhase, nil, nil, nil)
			},
		},
		&cobra.Command{
			Use:   "merkle-root <root>",
			Short: "Replace the whitelist Merkle root",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := core.ParseHash32(args[0]); err != nil {
					return err
				}
				return a.submit(cmd.Context(), types.TxTypeUpdateMerkleRoot, nil, nil, core.MerkleRootPayload{Root: args[0]})
			},
		},
		&cobra.Command{
			Use:   "transfer-admin <address>",
			Short: "Nominate a new registry admin",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.submit(cmd.Context(), types.TxTypeTransferAdmin, nil, nil, core.TransferAdminPayload{NewAdmin: args[0]})
			},
		},
		&cobra.Command{
			Use:   "accept-admin",
			Short: "Accept a pending admin nomination",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.submit(cmd.Context(), types.TxTypeAcceptAdmin, nil, nil, nil)
			},
		},
		&cobra.Command{
			Use:   "records-limit <bytes>",
			Short: "Set the maximum total size of a name's records",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				limit, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid limit %q: %w", args[0], err)
				}
				return a.submit(cmd.Context(), types.TxTypeSetRecordsLimit, nil, nil, core.RecordsLimitPayload{Limit: limit})
			},
		},
	)
	return cmd
}

func reservedEntries(names, claimants []string) ([]core.ReservedEntryPayload, error) {
	byName := make(map[string]string, len(claimants))
	for _, entry := range claimants {
		name, addr, ok := strings.Cut(entry, "=")
		if !ok || name == "" || addr == "" {
			return nil, fmt.Errorf("claimant %q must be name=address", entry)
		}
		byName[name] = addr
	}
	entries := make([]core.ReservedEntryPayload, 0, len(names))
	for _, name := range names {
		entries = append(entries, core.ReservedEntryPayload{Name: name, Claimant: byName[name]})
		delete(byName, name)
	}
	for name := range byName {
		return nil, fmt.Errorf("claimant given for %q which is not being reserved", name)
	}
	return entries, nil
}

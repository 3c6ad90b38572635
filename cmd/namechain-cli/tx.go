package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/spf13/cobra"

	"namechain/core"
	"namechain/core/types"
)

type accountView struct {
	Address string `json:"address"`
	Nonce   uint64 `json:"nonce"`
	Balance string `json:"balance"`
}

type chainInfoView struct {
	ChainID uint64   `json:"chainId"`
	TLDs    []string `json:"tlds"`
	Height  uint64   `json:"height"`
}

// submit signs a transaction of txType carrying payload with the keystore key
// and sends it through nc_sendTransaction.
func (a *app) submit(ctx context.Context, txType types.TxType, value *big.Int, to []byte, payload interface{}) error {
	key, err := a.loadKey()
	if err != nil {
		return err
	}
	client := newRPCClient(a.endpoint, a.token)

	var info chainInfoView
	if err := client.Call(ctx, "nc_chainInfo", nil, &info); err != nil {
		return err
	}
	var account accountView
	sender := key.PubKey().Address().String()
	if err := client.Call(ctx, "nc_getAccount", map[string]string{"address": sender}, &account); err != nil {
		return err
	}

	tx, err := core.NewTransaction(txType, info.ChainID, account.Nonce, value, payload)
	if err != nil {
		return err
	}
	tx.To = to
	if err := tx.Sign(key.PrivateKey); err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}

	var receipt json.RawMessage
	if err := client.Call(ctx, "nc_sendTransaction", tx, &receipt); err != nil {
		return err
	}
	return a.printJSON(receipt)
}

func parseValue(raw string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return value, nil
}

func optional(value string, set bool) *string {
	if !set {
		return nil
	}
	return &value
}

func newSendCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "tx", Short: "Sign and submit name transactions"}
	cmd.AddCommand(
		newRegisterCmd(a),
		nameCmd(a, "claim <name>", "Claim a name reserved for the sender", types.TxTypeClaimReserved),
		nameCmd(a, "release <name>", "Release a name owned by the sender", types.TxTypeRelease),
		newTransferNameCmd(a),
		newApproveCmd(a),
		&cobra.Command{
			Use:   "set-address <name> <address>",
			Short: "Point a name at an address",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.submit(cmd.Context(), types.TxTypeSetAddress, nil, nil, core.SetAddressPayload{Name: args[0], Address: args[1]})
			},
		},
		&cobra.Command{
			Use:   "set-controller <name> <controller>",
			Short: "Change the controller of a name",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.submit(cmd.Context(), types.TxTypeSetController, nil, nil, core.SetControllerPayload{Name: args[0], Controller: args[1]})
			},
		},
		&cobra.Command{
			Use:   "set-primary [name]",
			Short: "Set the sender's primary name, or clear it when no name is given",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				payload := core.SetPrimaryNamePayload{}
				if len(args) == 1 {
					payload.Name = &args[0]
				}
				return a.submit(cmd.Context(), types.TxTypeSetPrimaryName, nil, nil, payload)
			},
		},
		newRecordsCmd(a),
		&cobra.Command{
			Use:   "clear-expired <name>...",
			Short: "Remove expired names from the registry",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.submit(cmd.Context(), types.TxTypeClearExpired, nil, nil, core.NamesPayload{Names: args})
			},
		},
		newTransferCmd(a),
	)
	return cmd
}

func nameCmd(a *app, use, short string, txType types.TxType) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.submit(cmd.Context(), txType, nil, nil, core.NamePayload{Name: args[0]})
		},
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	var (
		recipient string
		years     uint64
		referrer  string
		value     string
		proof     []string
	)
	cmd := &cobra.Command{
		Use:   "register <name>",
		Short: "Register a name, paying the quoted price unless --value is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := core.RegisterPayload{
				Name:      args[0],
				Recipient: recipient,
				Years:     years,
				Referrer:  optional(referrer, cmd.Flags().Changed("referrer")),
				Proof:     proof,
			}
			amount, err := parseValue(value)
			if err != nil {
				return err
			}
			if amount == nil {
				if amount, err = a.quote(cmd.Context(), payload); err != nil {
					return err
				}
			}
			return a.submit(cmd.Context(), types.TxTypeRegister, amount, nil, payload)
		},
	}
	cmd.Flags().StringVar(&recipient, "recipient", "", "register on behalf of this address")
	cmd.Flags().Uint64Var(&years, "years", 1, "registration period in years")
	cmd.Flags().StringVar(&referrer, "referrer", "", "referrer name credited with the referral share")
	cmd.Flags().StringVar(&value, "value", "", "amount to attach; defaults to the quoted total")
	cmd.Flags().StringSliceVar(&proof, "proof", nil, "whitelist proof hashes (0x hex)")
	return cmd
}

// quote asks the node for the total price of payload.
func (a *app) quote(ctx context.Context, payload core.RegisterPayload) (*big.Int, error) {
	params := map[string]interface{}{"name": payload.Name, "years": payload.Years}
	if payload.Recipient != "" {
		params["recipient"] = payload.Recipient
	}
	if payload.Referrer != nil {
		params["referrer"] = *payload.Referrer
	}
	var price struct {
		Total string `json:"total"`
	}
	if err := newRPCClient(a.endpoint, a.token).Call(ctx, "nc_getNamePrice", params, &price); err != nil {
		return nil, err
	}
	return parseValue(price.Total)
}

func newTransferNameCmd(a *app) *cobra.Command {
	var keepRecords, keepController, keepResolving bool
	cmd := &cobra.Command{
		Use:   "transfer-name <name> <to>",
		Short: "Transfer ownership of a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.submit(cmd.Context(), types.TxTypeTransferName, nil, nil, core.TransferNamePayload{
				Name:           args[0],
				To:             args[1],
				KeepRecords:    keepRecords,
				KeepController: keepController,
				KeepResolving:  keepResolving,
			})
		},
	}
	cmd.Flags().BoolVar(&keepRecords, "keep-records", false, "keep text records")
	cmd.Flags().BoolVar(&keepController, "keep-controller", false, "keep the current controller")
	cmd.Flags().BoolVar(&keepResolving, "keep-resolving", false, "keep the resolved address")
	return cmd
}

func newApproveCmd(a *app) *cobra.Command {
	var (
		name   string
		revoke bool
	)
	cmd := &cobra.Command{
		Use:   "approve <operator>",
		Short: "Approve an operator for one name or for all names of the sender",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.submit(cmd.Context(), types.TxTypeApprove, nil, nil, core.ApprovePayload{
				Operator: args[0],
				Name:     optional(name, cmd.Flags().Changed("name")),
				Approved: !revoke,
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "limit the approval to this name")
	cmd.Flags().BoolVar(&revoke, "revoke", false, "revoke instead of approve")
	return cmd
}

func newRecordsCmd(a *app) *cobra.Command {
	var (
		set        []string
		remove     []string
		removeRest bool
	)
	cmd := &cobra.Command{
		Use:   "set-records <name>",
		Short: "Set or delete text records of a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := recordChanges(set, remove)
			if err != nil {
				return err
			}
			return a.submit(cmd.Context(), types.TxTypeUpdateRecords, nil, nil, core.UpdateRecordsPayload{
				Name:       args[0],
				Records:    changes,
				RemoveRest: removeRest,
			})
		},
	}
	cmd.Flags().StringArrayVar(&set, "set", nil, "key=value record to write (repeatable)")
	cmd.Flags().StringArrayVar(&remove, "delete", nil, "record key to delete (repeatable)")
	cmd.Flags().BoolVar(&removeRest, "remove-rest", false, "drop every record not named in this call")
	return cmd
}

func recordChanges(set, remove []string) ([]core.RecordChangePayload, error) {
	changes := make([]core.RecordChangePayload, 0, len(set)+len(remove))
	for _, entry := range set {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("record %q must be key=value", entry)
		}
		v := value
		changes = append(changes, core.RecordChangePayload{Key: key, Value: &v})
	}
	for _, key := range remove {
		changes = append(changes, core.RecordChangePayload{Key: key})
	}
	return changes, nil
}

func newTransferCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <to> <amount>",
		Short: "Send a plain balance transfer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := parseRecipient(args[0])
			if err != nil {
				return err
			}
			amount, err := parseValue(args[1])
			if err != nil {
				return err
			}
			if amount == nil {
				return fmt.Errorf("amount required")
			}
			return a.submit(cmd.Context(), types.TxTypeTransfer, amount, to, nil)
		},
	}
}

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"namechain/core"
	"namechain/crypto"
	"namechain/native/merkle"
)

func newMerkleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "merkle", Short: "Build whitelist roots and proofs from an address list"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "root <file>",
			Short: "Print the whitelist root of the addresses in file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				members, err := readMembers(args[0])
				if err != nil {
					return err
				}
				a.printf("%s\n", core.FormatHash32(merkle.NewAccountTree(members).Root()))
				return nil
			},
		},
		&cobra.Command{
			Use:   "proof <file> <address>",
			Short: "Print the whitelist proof of address, one hash per line",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				members, err := readMembers(args[0])
				if err != nil {
					return err
				}
				addr, err := crypto.ParseAddress(args[1])
				if err != nil {
					return err
				}
				proof, err := merkle.NewAccountTree(members).Proof(merkle.AccountLeaf(addr.Bytes()))
				if err != nil {
					return fmt.Errorf("%s: %w", args[1], err)
				}
				for _, node := range proof {
					a.printf("%s\n", core.FormatHash32(node))
				}
				return nil
			},
		},
	)
	return cmd
}

// readMembers parses one address per line. Blank lines and lines starting
// with # are skipped.
func readMembers(path string) ([][20]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var members [][20]byte
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		addr, err := crypto.ParseAddress(text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		members = append(members, addr.Raw())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

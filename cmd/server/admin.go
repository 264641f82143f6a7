package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rpggio/socialxp/internal/domain/ledger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newAuditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Print the total credit held by all projects (as the configured owner)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			call, err := a.ownerCall("")
			if err != nil {
				return err
			}
			total, err := a.ledger.AuditTotalCredit(cmd.Context(), call)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "total credit: %d\n", total)
			return nil
		},
	}
}

func newFeesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fees",
		Short: "Show the fee schedule in force",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fees, err := a.ledger.Fees(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), fees)
		},
	}

	var requestID string
	set := &cobra.Command{
		Use:   "set",
		Short: "Replace the fee schedule (as the configured owner). Unset flags keep their current value.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fees, err := a.ledger.Fees(cmd.Context())
			if err != nil {
				return err
			}
			if err := applyFeeFlags(cmd.Flags(), &fees); err != nil {
				return err
			}
			call, err := a.ownerCall(requestID)
			if err != nil {
				return err
			}
			receipt, err := a.ledger.SetFees(cmd.Context(), call, fees)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fees updated, tx %s\n", receipt.Event.TxHash)
			return writeJSON(cmd.OutOrStdout(), fees)
		},
	}
	flags := set.Flags()
	flags.Uint64("member", 0, "project member fee units")
	flags.Uint64("owner", 0, "project owner fee units")
	flags.Uint64("mint", 0, "mint fee units")
	flags.Uint64("burn", 0, "burn fee units")
	flags.StringVar(&requestID, "request-id", "", "idempotency key, applies the change once")

	cmd.AddCommand(set)
	return cmd
}

func applyFeeFlags(flags *pflag.FlagSet, fees *ledger.FeeSchedule) error {
	targets := map[string]*uint64{
		"member": &fees.ProjectMemberFee,
		"owner":  &fees.ProjectOwnerFee,
		"mint":   &fees.MintFee,
		"burn":   &fees.BurnFee,
	}
	changed := false
	for name, target := range targets {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetUint64(name)
		if err != nil {
			return err
		}
		*target = v
		changed = true
	}
	if !changed {
		return fmt.Errorf("set at least one of --member, --owner, --mint, --burn")
	}
	return nil
}

func newKeysCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys",
	}

	var description string
	add := &cobra.Command{
		Use:   "add <token> <address>",
		Short: "Issue a bearer token that authenticates as address",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := ledger.ParseAddress(args[1])
			if err != nil {
				return err
			}
			if err := a.keys.AddKey(cmd.Context(), args[0], address, description); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "key added for %s\n", address)
			return nil
		},
	}
	add.Flags().StringVar(&description, "description", "", "free-form note stored with the key")

	cmd.AddCommand(add)
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// startBody is the JSON body pkcon sends to Start; only the fields a
// given subcommand's flags populate are non-zero, matching
// internal/httpapi.startRequest's "every role gets the same envelope,
// the backend ignores what it doesn't expect" shape.
type startBody struct {
	Filters          []string `json:"filters,omitempty"`
	TransactionFlags []string `json:"transaction-flags,omitempty"`
	PackageIDs       []string `json:"package-ids,omitempty"`
	Values           []string `json:"values,omitempty"`
	Force            bool     `json:"force,omitempty"`
	Number           uint64   `json:"number,omitempty"`
}

// newRoleCommand builds a subcommand that allocates a transaction,
// starts role with the positional args as search terms or package ids,
// and prints every signal as it streams in. One command per role
// instead of per-argument-shape flags, mirroring the teacher's
// resource-per-endpoint CLI shape.
func newRoleCommand(role, short string) *cobra.Command {
	var force bool
	var flags []string

	cmd := &cobra.Command{
		Use:   role + " [args...]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRole(cmd, role, args, force, flags)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "set the force transaction flag")
	cmd.Flags().StringSliceVar(&flags, "filter", nil, "filter token, repeatable")
	return cmd
}

func runRole(cmd *cobra.Command, role string, args []string, force bool, filters []string) error {
	ctx := cmd.Context()
	c := currentClient()

	tid, err := c.allocateTID(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "tid %s\n", tid)

	body := startBody{Filters: filters, Force: force}
	if role == "install-packages" || role == "remove-packages" || role == "update-packages" || role == "get-details" {
		body.PackageIDs = args
	} else {
		body.Values = args
	}

	if err := c.start(ctx, tid, role, body); err != nil {
		return err
	}

	return c.streamSignals(ctx, tid, func(sig signal) {
		printSignal(cmd, sig)
	})
}

func printSignal(cmd *cobra.Command, sig signal) {
	var pretty map[string]any
	if err := json.Unmarshal([]byte(sig.Data), &pretty); err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", sig.Name, sig.Data)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", sig.Name, pretty)
}

func newCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <tid>",
		Short: "Cancel a running transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return currentClient().cancel(cmd.Context(), args[0])
		},
	}
}

func newDaemonStateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get-daemon-state",
		Short: "Dump the daemon's internal state for debugging",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := currentClient().daemonState(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), state)
			return nil
		},
	}
}

func newSuggestQuitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest-daemon-quit",
		Short: "Ask the daemon to exit if it is idle",
		RunE: func(cmd *cobra.Command, args []string) error {
			return currentClient().suggestDaemonQuit(cmd.Context())
		},
	}
}

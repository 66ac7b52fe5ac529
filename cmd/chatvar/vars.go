// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"nickandperla.net/chatvar/internal/store"
)

func newVarsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vars",
		Short: "Inspect and edit stored variables",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime()
			if err != nil {
				return err
			}
			l, ok := rt.Store().(store.Lister)
			if !ok {
				return errors.New("store cannot list variables")
			}
			vars, err := l.List()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range store.Names(vars) {
				fmt.Fprintf(tw, "%s\t%s\n", name, vars[name])
			}
			return tw.Flush()
		},
	}

	get := &cobra.Command{
		Use:   "get <name>",
		Short: "Print a variable's value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime()
			if err != nil {
				return err
			}
			v, ok, err := rt.Store().Get(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("variable %q not found", args[0])
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), v)
			return err
		},
	}

	set := &cobra.Command{
		Use:   "set <name> <value>",
		Short: "Store a variable",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime()
			if err != nil {
				return err
			}
			return rt.Store().Put(args[0], args[1])
		},
	}

	rm := &cobra.Command{
		Use:     "rm <name>...",
		Aliases: []string{"delete"},
		Short:   "Delete variables and their history",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime()
			if err != nil {
				return err
			}
			for _, name := range args {
				if err := rt.Store().Delete(name); err != nil {
					return err
				}
			}
			return nil
		},
	}

	var limit int
	history := &cobra.Command{
		Use:   "history <name>",
		Short: "Show a variable's previous values, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime()
			if err != nil {
				return err
			}
			vs, ok := rt.Store().(store.Versioned)
			if !ok {
				return errors.New("store keeps no history")
			}
			versions, err := vs.Versions(args[0], limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, v := range versions {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", v.Version, v.Ts, v.Value)
			}
			return tw.Flush()
		},
	}
	history.Flags().IntVarP(&limit, "limit", "n", 10, "Number of versions to show (0 = all)")

	cmd.AddCommand(list, get, set, rm, history)
	return cmd
}

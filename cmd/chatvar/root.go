// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nickandperla.net/chatvar/internal/config"
	"nickandperla.net/chatvar/internal/logging"
	"nickandperla.net/chatvar/internal/stdlib"
	"nickandperla.net/chatvar/pkg/chatvar"
)

// app carries the state shared by all subcommands.
type app struct {
	// Global flags
	configPath     string
	envFile        string
	debug          bool
	dbPath         string
	memory         bool
	noConditionals bool
	maxPasses      int
	logFormat      string

	cfg    *config.Config
	logger *zap.Logger
	rt     *chatvar.Runtime
}

// run executes the command line and always releases the runtime, including
// when the command fails.
func run(args []string, in io.Reader, out, errOut io.Writer) error {
	root, a := newRootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	err := root.Execute()
	return errors.Join(err, a.teardown())
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:   "chatvar",
		Short: "Chat variables and conditionals for SillyTavern",
		Long: `chatvar rewrites "@name = value" assignments, "@name" references and
@if/@elseif/@else/@end blocks in chat messages into {{setvar}}/{{getvar}}
macros, choosing conditional branches from the variables in scope.

Run "chatvar syntax" for the language reference.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	f := root.PersistentFlags()
	f.StringVarP(&a.configPath, "config", "c", "chatvar.yaml", "Config file")
	f.StringVar(&a.envFile, "env-file", ".env", "Environment file loaded before the config")
	f.BoolVarP(&a.debug, "debug", "d", false, "Log variable lookups and condition results")
	f.StringVar(&a.dbPath, "db", "", "SQLite database path (overrides config)")
	f.BoolVar(&a.memory, "memory", false, "Keep variables in memory only")
	f.BoolVar(&a.noConditionals, "no-conditionals", false, "Leave @if blocks untouched")
	f.IntVar(&a.maxPasses, "max-passes", 0, "Cap on nested block passes (0 = automatic)")
	f.StringVar(&a.logFormat, "log-format", "", "Log format: console or json")

	root.AddCommand(
		newProcessCmd(a),
		newEvalCmd(a),
		newRenderCmd(a),
		newVarsCmd(a),
		newServeCmd(a),
		newWatchCmd(a),
		newReplCmd(a),
		newCheckCmd(),
		newSyntaxCmd(),
	)
	return root, a
}

// setup loads configuration and builds the logger. The runtime is opened
// lazily by the commands that need it.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("debug") {
		cfg.Debug = a.debug
	}
	if a.dbPath != "" {
		cfg.Store = config.StoreConfig{Driver: "sqlite", Path: a.dbPath}
	}
	if a.memory {
		cfg.Store = config.StoreConfig{Driver: "memory"}
	}
	if a.noConditionals {
		cfg.Conditionals = false
	}
	if flags.Changed("max-passes") {
		cfg.MaxPasses = a.maxPasses
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(logging.Options{Format: cfg.Logging.Format, Debug: cfg.Debug})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) teardown() error {
	var err error
	if a.rt != nil {
		err = a.rt.Close()
		a.rt = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return err
}

// runtime opens the runtime on first use.
func (a *app) runtime() (*chatvar.Runtime, error) {
	if a.rt != nil {
		return a.rt, nil
	}
	opts := []chatvar.Option{
		chatvar.WithSettings(a.cfg.Settings()),
		chatvar.WithVariables(a.cfg.Variables),
		chatvar.WithLogger(a.logger),
	}
	switch a.cfg.Store.Driver {
	case "memory":
		opts = append(opts, chatvar.WithMemoryStore())
	default:
		opts = append(opts, chatvar.WithSQLiteStore(a.cfg.Store.Path))
	}
	rt, err := chatvar.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("open runtime: %w", err)
	}
	a.logger.Debug("runtime ready",
		zap.String("store", a.cfg.Store.Driver),
		zap.String("path", a.cfg.Store.Path))
	a.rt = rt
	return rt, nil
}

// input returns the text of args joined by spaces, or all of stdin when
// there are none.
func input(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func newSyntaxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "syntax",
		Short: "Print the language reference",
		Args:  cobra.NoArgs,
		// No configuration needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), stdlib.Syntax)
			return err
		},
	}
}

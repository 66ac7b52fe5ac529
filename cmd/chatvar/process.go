// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nickandperla.net/chatvar/internal/chat"
	"nickandperla.net/chatvar/internal/watch"
	"nickandperla.net/chatvar/pkg/chatvar"
)

func newProcessCmd(a *app) *cobra.Command {
	var (
		output  string
		inPlace bool
		render  bool
	)
	cmd := &cobra.Command{
		Use:   "process [chat-file]",
		Short: "Process a chat file (JSONL or JSON array)",
		Long: `Reads a chat, rewrites every message in order and writes the chat back.
With no file, or "-", the chat is read from stdin. Output goes to stdout
unless --output or --in-place is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime()
			if err != nil {
				return err
			}
			path := ""
			if len(args) == 1 && args[0] != "-" {
				path = args[0]
			}
			if inPlace && path == "" {
				return fmt.Errorf("--in-place needs a chat file")
			}

			var c *chat.Chat
			if path == "" {
				c, err = chat.ReadChat(cmd.InOrStdin())
			} else {
				c, err = chat.ReadChatFile(path)
			}
			if err != nil {
				return err
			}

			res, err := processChat(rt, c, render)
			if err != nil {
				return err
			}
			a.logger.Info("chat processed",
				zap.Int("messages", len(c.Entries)),
				zap.Int("changed", len(res.Changed)),
				zap.Int("variables", len(res.Variables)))

			switch {
			case inPlace:
				if len(res.Changed) == 0 {
					return nil
				}
				return chat.WriteChatFile(path, c)
			case output != "":
				return chat.WriteChatFile(output, c)
			default:
				return chat.WriteChat(cmd.OutOrStdout(), c)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the processed chat to this file")
	cmd.Flags().BoolVarP(&inPlace, "in-place", "i", false, "Rewrite the chat file in place")
	cmd.Flags().BoolVar(&render, "render", false, "Also apply the resulting macros to the store")
	return cmd
}

// processChat runs the chat through rt and, when render is set, applies the
// macros in every changed message to the store.
func processChat(rt *chatvar.Runtime, c *chat.Chat, render bool) (chatvar.Result, error) {
	msgs := c.Messages()
	res := rt.ProcessChat(msgs)
	if !render {
		return res, nil
	}
	for _, i := range res.Changed {
		out, _, err := rt.Render(msgs[i].Content())
		if err != nil {
			return res, err
		}
		msgs[i].SetContent(out)
	}
	return res, nil
}

func newEvalCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "eval [text...]",
		Short: "Process one message and print the result",
		Long:  `Processes the arguments (joined by spaces), or stdin, as a single message.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime()
			if err != nil {
				return err
			}
			text, err := input(cmd, args)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rt.ProcessText(text))
			return err
		},
	}
}

func newRenderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "render [text...]",
		Short: "Apply {{setvar}}/{{getvar}} macros against the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime()
			if err != nil {
				return err
			}
			text, err := input(cmd, args)
			if err != nil {
				return err
			}
			out, writes, err := rt.Render(text)
			if err != nil {
				return err
			}
			for _, w := range writes {
				a.logger.Debug("stored", zap.String("var", w.Name), zap.String("value", w.Value))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	var (
		render   bool
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch <chat-file>...",
		Short: "Reprocess chat files in place whenever they change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime()
			if err != nil {
				return err
			}
			handle := func(_ context.Context, path string) error {
				c, err := chat.ReadChatFile(path)
				if err != nil {
					return err
				}
				res, err := processChat(rt, c, render)
				if err != nil {
					return err
				}
				if len(res.Changed) == 0 {
					return nil
				}
				a.logger.Info("chat rewritten", zap.String("path", path), zap.Int("changed", len(res.Changed)))
				return chat.WriteChatFile(path, c)
			}

			w, err := watch.New(handle, watch.WithLogger(a.logger), watch.WithDebounce(debounce))
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			for _, p := range args {
				if err := w.Add(p); err != nil {
					return err
				}
				// Bring the file up to date before waiting for changes.
				if err := handle(ctx, p); err != nil {
					return err
				}
			}
			return w.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&render, "render", false, "Also apply the resulting macros to the store")
	cmd.Flags().DurationVar(&debounce, "debounce", 300*time.Millisecond, "Quiet period before a change is processed")
	return cmd
}

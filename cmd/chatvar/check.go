// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"nickandperla.net/chatvar/internal/chat"
	"nickandperla.net/chatvar/internal/lint"
)

// checkResult holds the outcome of checking a single file.
type checkResult struct {
	path   string
	errors []string
}

func newCheckCmd() *cobra.Command {
	var dirs []string
	cmd := &cobra.Command{
		Use:   "check [file...]",
		Short: "Report directives and conditions that will not work as written",
		Long: `Checks chat files (.json, .jsonl) message by message, and any other file
as one plain text. Exits non-zero if any file has issues.`,
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			files := append([]string(nil), args...)
			for _, d := range dirs {
				found, err := findChatFiles(d)
				if err != nil {
					return fmt.Errorf("scanning directory %s: %w", d, err)
				}
				files = append(files, found...)
			}
			if len(files) == 0 {
				return fmt.Errorf("no files to check")
			}

			failed := 0
			out := cmd.OutOrStdout()
			for _, f := range files {
				if r := checkFile(f); len(r.errors) > 0 {
					failed++
					fmt.Fprintf(out, "FAIL %s\n", f)
					for _, e := range r.errors {
						fmt.Fprintf(out, "     %s\n", e)
					}
				} else {
					fmt.Fprintf(out, "OK   %s\n", f)
				}
			}
			printSummary(out, len(files), failed)
			if failed > 0 {
				return fmt.Errorf("%d of %d files have issues", failed, len(files))
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&dirs, "dir", nil, "Check every chat file under this directory")
	return cmd
}

func printSummary(out io.Writer, total, failed int) {
	fmt.Fprintf(out, "\n--- Summary ---\n")
	fmt.Fprintf(out, "Passed: %d\n", total-failed)
	fmt.Fprintf(out, "Failed: %d\n", failed)
	fmt.Fprintf(out, "Total:  %d\n", total)
}

func isChatFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonl":
		return true
	}
	return false
}

// checkFile lints a chat file per message, or any other file as one text.
func checkFile(path string) checkResult {
	r := checkResult{path: path}
	if !isChatFile(path) {
		content, err := os.ReadFile(path)
		if err != nil {
			r.errors = append(r.errors, fmt.Sprintf("read error: %v", err))
			return r
		}
		for _, issue := range lint.Check(string(content)) {
			r.errors = append(r.errors, issue.String())
		}
		return r
	}

	c, err := chat.ReadChatFile(path)
	if err != nil {
		r.errors = append(r.errors, fmt.Sprintf("read error: %v", err))
		return r
	}
	for i, m := range c.Messages() {
		for _, issue := range lint.Check(m.Content()) {
			r.errors = append(r.errors, fmt.Sprintf("message %d: %s", i, issue))
		}
	}
	return r
}

// findChatFiles recursively finds all chat files under dir.
func findChatFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isChatFile(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

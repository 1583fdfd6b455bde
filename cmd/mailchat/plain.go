package main

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nhle/mailchat/internal/model"
	"github.com/nhle/mailchat/internal/repl"
)

func newPlainCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "plain",
		Short: "Chat in line mode without the full-screen UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlain(cmd.Context(), opts)
		},
	}
}

func runPlain(ctx context.Context, opts *options) error {
	s, err := openSession(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	rl, err := repl.NewReadline(filepath.Join(model.ConfigDir(), "history"))
	if err != nil {
		return err
	}
	defer rl.Close()

	return repl.New(s.exec, rl, rl.Stdout()).Run(ctx)
}

// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/gosuri/uilive"
	"github.com/spf13/cobra"

	"github.com/autobrr/animebrr/internal/page"
	"github.com/autobrr/animebrr/internal/poller"
	"github.com/autobrr/animebrr/internal/render"
	"github.com/autobrr/animebrr/internal/types"
)

// liveTable redraws the progress table in place on every poll
type liveTable struct {
	writer *uilive.Writer
}

func (l liveTable) StoreSnapshot(_ context.Context, rows []types.TorrentStatus) error {
	_, err := fmt.Fprintf(l.writer, "%s\n%s", time.Now().Format(time.TimeOnly), render.ProgressText(rows))
	return err
}

func WatchCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "watch",
		Short: "Follow the torrent progress table",
		Long: `Follow the torrent progress table like the download page does.

Polling stops at the first failed request, as it does on the page.`,
		Example:      exampleFor("run watch", "run watch --interval 5s"),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	var interval time.Duration
	command.Flags().DurationVar(&interval, "interval", 0, "poll interval (default from config)")

	command.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromFlags(cmd)
		if err != nil {
			return err
		}
		if interval <= 0 {
			interval = cfg.Poller.Interval.Duration
		}

		env, err := newActionEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		writer := uilive.New()
		writer.Out = cmd.OutOrStdout()
		writer.Start()
		defer writer.Stop()

		p := poller.New(env.client, page.Discard{}, interval, poller.WithSink(liveTable{writer: writer}))
		return p.Run(cmd.Context())
	}

	return command
}

// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/autobrr/animebrr/internal/types"
)

func AnimeCommand() *cobra.Command {
	command := groupCommand("anime", "Subscribe, refresh and download anime")
	command.Example = exampleFor(
		"run anime subscribe 3310",
		"run anime subscribe 3310 --from-episode 5",
		"run anime episode download 3310 7",
	)

	command.AddCommand(AnimeSubscribeCommand())
	command.AddCommand(AnimeUnsubscribeCommand())
	command.AddCommand(AnimeUpdateListCommand())
	command.AddCommand(AnimeUpdateSeedCommand())
	command.AddCommand(AnimeDownloadCommand())
	command.AddCommand(AnimeDeleteCommand())
	command.AddCommand(AnimeEpisodeCommand())
	command.AddCommand(AnimeSeedCommand())

	return command
}

func AnimeSubscribeCommand() *cobra.Command {
	command := &cobra.Command{
		Use:          "subscribe <mikan-id>",
		Short:        "Subscribe to an anime",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
	}

	var fromEpisode string
	command.Flags().StringVar(&fromEpisode, "from-episode", "", "only download episodes from this one onwards")

	command.RunE = runAction(func(ctx context.Context, cmd *cobra.Command, env *actionEnv, args []string) error {
		mikanID, err := parseIntArg("mikan id", args[0])
		if err != nil {
			return err
		}
		if fromEpisode == "" {
			return env.dispatcher.Subscribe(ctx, mikanID)
		}

		episode, err := parseIntArg("episode", fromEpisode)
		if err != nil {
			return err
		}
		return env.dispatcher.SubscribeFromEpisode(ctx, mikanID, episode)
	})

	return command
}

func AnimeUnsubscribeCommand() *cobra.Command {
	command := &cobra.Command{
		Use:          "unsubscribe <mikan-id>",
		Short:        "Cancel an anime subscription",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
	}

	command.RunE = runAction(func(ctx context.Context, cmd *cobra.Command, env *actionEnv, args []string) error {
		mikanID, err := parseIntArg("mikan id", args[0])
		if err != nil {
			return err
		}
		return env.dispatcher.Unsubscribe(ctx, mikanID)
	})

	return command
}

func AnimeUpdateListCommand() *cobra.Command {
	command := &cobra.Command{
		Use:          "update-list <year> <season>",
		Short:        "Refresh the anime list of a season",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
	}

	command.RunE = runAction(func(ctx context.Context, cmd *cobra.Command, env *actionEnv, args []string) error {
		year, err := parseIntArg("year", args[0])
		if err != nil {
			return err
		}
		season, err := parseIntArg("season", args[1])
		if err != nil {
			return err
		}
		return env.dispatcher.UpdateAnimeList(ctx, year, season)
	})

	return command
}

func AnimeUpdateSeedCommand() *cobra.Command {
	command := &cobra.Command{
		Use:          "update-seed <mikan-id>",
		Short:        "Refresh the seeds of an anime",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
	}

	var animeType string
	command.Flags().StringVar(&animeType, "type", "0", "anime type as shown on the anime page")

	command.RunE = runAction(func(ctx context.Context, cmd *cobra.Command, env *actionEnv, args []string) error {
		mikanID, err := parseIntArg("mikan id", args[0])
		if err != nil {
			return err
		}
		return env.dispatcher.UpdateAnimeSeed(ctx, mikanID, animeType)
	})

	return command
}

func AnimeDownloadCommand() *cobra.Command {
	command := &cobra.Command{
		Use:          "download <mikan-id>",
		Short:        "Download every episode of a subscribed anime",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
	}

	command.RunE = runAction(func(ctx context.Context, cmd *cobra.Command, env *actionEnv, args []string) error {
		mikanID, err := parseIntArg("mikan id", args[0])
		if err != nil {
			return err
		}
		return env.dispatcher.DownloadSubscribed(ctx, mikanID)
	})

	return command
}

func AnimeDeleteCommand() *cobra.Command {
	command := &cobra.Command{
		Use:          "delete <mikan-id>",
		Short:        "Delete the stored data of an anime",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
	}

	command.RunE = runAction(func(ctx context.Context, cmd *cobra.Command, env *actionEnv, args []string) error {
		mikanID, err := parseIntArg("mikan id", args[0])
		if err != nil {
			return err
		}
		return env.dispatcher.DeleteAnimeData(ctx, mikanID)
	})

	return command
}

func AnimeEpisodeCommand() *cobra.Command {
	command := groupCommand("episode", "Act on a single episode")

	actions := []struct {
		use   string
		short string
		run   func(ctx context.Context, env *actionEnv, mikanID, episode types.Int) error
	}{
		{"download", "Download one episode", func(ctx context.Context, env *actionEnv, mikanID, episode types.Int) error {
			return env.dispatcher.DownloadEpisode(ctx, mikanID, episode)
		}},
		{"recover", "Recover the seed of one episode", func(ctx context.Context, env *actionEnv, mikanID, episode types.Int) error {
			return env.dispatcher.RecoverEpisodeSeed(ctx, mikanID, episode)
		}},
		{"filter", "Skip the episodes before this one", func(ctx context.Context, env *actionEnv, mikanID, episode types.Int) error {
			return env.dispatcher.AddEpisodeOffsetFilter(ctx, mikanID, episode)
		}},
	}

	for _, action := range actions {
		action := action
		sub := &cobra.Command{
			Use:          action.use + " <mikan-id> <episode>",
			Short:        action.short,
			Args:         cobra.ExactArgs(2),
			SilenceUsage: true,
		}
		sub.RunE = runAction(func(ctx context.Context, cmd *cobra.Command, env *actionEnv, args []string) error {
			mikanID, err := parseIntArg("mikan id", args[0])
			if err != nil {
				return err
			}
			episode, err := parseIntArg("episode", args[1])
			if err != nil {
				return err
			}
			return action.run(ctx, env, mikanID, episode)
		})
		command.AddCommand(sub)
	}

	return command
}

func AnimeSeedCommand() *cobra.Command {
	command := groupCommand("seed", "Act on a seed url")

	download := &cobra.Command{
		Use:          "download <seed-url>",
		Short:        "Create a download task from a seed url",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
	}
	download.RunE = runAction(func(ctx context.Context, cmd *cobra.Command, env *actionEnv, args []string) error {
		return env.dispatcher.DownloadBySeedURL(ctx, args[0])
	})

	recoverSeed := &cobra.Command{
		Use:          "recover <seed-url>",
		Short:        "Recover a seed by its url",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
	}
	recoverSeed.RunE = runAction(func(ctx context.Context, cmd *cobra.Command, env *actionEnv, args []string) error {
		return env.dispatcher.RecoverSeedByURL(ctx, args[0])
	})

	command.AddCommand(download, recoverSeed)

	return command
}

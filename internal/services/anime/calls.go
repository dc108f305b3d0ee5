// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package anime

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/autobrr/animebrr/internal/services/core"
	"github.com/autobrr/animebrr/internal/types"
)

// Backend routes
const (
	PathSubscribeAnime         = "/anime/subscribe_anime"
	PathCancelSubscribeAnime   = "/anime/cancel_subscribe_anime"
	PathUpdateAnimeList        = "/anime/update_anime_list"
	PathDeleteAnimeData        = "/anime/delete_anime_data"
	PathUpdateAnimeSeed        = "/anime/update_anime_seed"
	PathDownloadSubscribeAnime = "/anime/download_subscribe_anime"
	PathCreateTaskByEpisode    = "/anime/create_task_by_episode"
	PathCreateTaskBySeedURL    = "/anime/create_task_by_seed_url"
	PathRecoverSeed            = "/anime/recover_seed"

	PathDownloadProgress        = "/download/qb_download_progress"
	PathQbExecute               = "/download/qb_execute"
	PathDeleteTaskByTorrentName = "/download/delete_task_by_torrent_name"
	PathStartTaskByTorrentName  = "/download/start_task_by_torrent_name"
	PathPauseTaskByTorrentName  = "/download/pause_task_by_torrent_name"
	PathResumeTaskByTorrentName = "/download/resume_task_by_torrent_name"
	PathModifyMaxActive         = "/download/modify_max_active_downloads"
	PathGetMaxActive            = "/download/get_max_active_downloads"

	PathEpisodeOffsetFilter = "/setting/add_episode_offset_filter_by_mikan_id"
	PathStart               = "/setting/start"
	PathExit                = "/setting/exit"
	PathChangeInterval      = "/setting/change_interval"
	PathDaemonPID           = "/setting/get_daemon_pid"
	PathLoadFinishedTasks   = "/setting/load_fin_task"
	PathReloadTask          = "/setting/reload_task"
	PathTaskStatus          = "/setting/get_task_status"
)

// Call is a single backend request. Query is sent in the URL, Body as JSON.
type Call struct {
	Action string
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// URL returns the request URL against baseURL
func (c Call) URL(baseURL string) string {
	u := core.JoinURL(baseURL, c.Path)
	if len(c.Query) > 0 {
		u += "?" + c.Query.Encode()
	}
	return u
}

// Payload renders the parameters for logs and the action history
func (c Call) Payload() string {
	if c.Body != nil {
		data, err := json.Marshal(c.Body)
		if err != nil {
			return ""
		}
		return string(data)
	}
	if len(c.Query) > 0 {
		return c.Query.Encode()
	}
	return ""
}

func postJSON(action, path string, body any) Call {
	return Call{Action: action, Method: http.MethodPost, Path: path, Body: body}
}

func postQuery(action, path string, query url.Values) Call {
	return Call{Action: action, Method: http.MethodPost, Path: path, Query: query}
}

func get(action, path string) Call {
	return Call{Action: action, Method: http.MethodGet, Path: path}
}

func Subscribe(mikanID types.Int) Call {
	return postJSON("subscribe", PathSubscribeAnime, types.MikanIDRequest{MikanID: mikanID})
}

func Unsubscribe(mikanID types.Int) Call {
	return postJSON("unsubscribe", PathCancelSubscribeAnime, types.MikanIDRequest{MikanID: mikanID})
}

func UpdateAnimeList(year, season types.Int) Call {
	return postJSON("update_anime_list", PathUpdateAnimeList, types.AnimeListRequest{Year: year, Season: season})
}

func UpdateAnimeSeed(mikanID types.Int, animeType string) Call {
	return postJSON("update_anime_seed", PathUpdateAnimeSeed, types.AnimeSeedRequest{MikanID: mikanID, Type: animeType})
}

func DownloadSubscribed(mikanID types.Int) Call {
	return postQuery("download_subscribed", PathDownloadSubscribeAnime, url.Values{
		"mikan_id": {mikanID.String()},
	})
}

func DeleteAnimeData(mikanID types.Int) Call {
	return postJSON("delete_anime_data", PathDeleteAnimeData, types.MikanIDRequest{MikanID: mikanID})
}

func CreateTaskByEpisode(mikanID, episode types.Int) Call {
	return postJSON("create_task_by_episode", PathCreateTaskByEpisode, types.EpisodeRequest{
		MikanID: mikanID,
		Episode: episode,
		SeedURL: "",
	})
}

func CreateTaskBySeedURL(seedURL string) Call {
	return postJSON("create_task_by_seed_url", PathCreateTaskBySeedURL, types.EpisodeRequest{
		MikanID: types.IntOf(0),
		Episode: types.IntOf(0),
		SeedURL: seedURL,
	})
}

func RecoverEpisodeSeed(mikanID, episode types.Int) Call {
	return postJSON("recover_episode_seed", PathRecoverSeed, types.EpisodeRequest{
		MikanID: mikanID,
		Episode: episode,
		SeedURL: "",
	})
}

func RecoverSeedByURL(seedURL string) Call {
	return postJSON("recover_seed_by_url", PathRecoverSeed, types.EpisodeRequest{
		MikanID: types.IntOf(0),
		Episode: types.IntOf(0),
		SeedURL: seedURL,
	})
}

func AddEpisodeOffsetFilter(mikanID, offset types.Int) Call {
	return postQuery("episode_offset_filter", PathEpisodeOffsetFilter, url.Values{
		"mikan_id":       {mikanID.String()},
		"episode_offset": {offset.String()},
	})
}

func ChangeInterval(interval types.Int) Call {
	return postJSON("change_interval", PathChangeInterval, types.IntervalRequest{Interval: interval})
}

func ModifyMaxActiveDownloads(nums types.Int) Call {
	return postQuery("modify_max_active_downloads", PathModifyMaxActive, url.Values{
		"nums": {nums.String()},
	})
}

func StartScheduler() Call {
	return Call{Action: "start_scheduler", Method: http.MethodPost, Path: PathStart}
}

func StopScheduler() Call {
	return Call{Action: "stop_scheduler", Method: http.MethodPost, Path: PathExit}
}

func DownloadProgress() Call {
	return get("download_progress", PathDownloadProgress)
}

func DaemonPID() Call {
	return get("daemon_pid", PathDaemonPID)
}

func MaxActiveDownloads() Call {
	return get("max_active_downloads", PathGetMaxActive)
}

func TaskStatus() Call {
	return get("task_status", PathTaskStatus)
}

// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package discovery

const (
	// labelPrefix is the common prefix for all animebrr backend labels
	labelPrefix = "com.animebrr.backend"

	labelURLKey     = "url"      // Backend URL, required
	labelIDKey      = "id"       // Optional instance id override
	labelNameKey    = "name"     // Optional display name
	labelTaskAPIKey = "task_api" // Optional task API variant
	labelEnabledKey = "enabled"  // Optional; "false" skips the backend
)

// GetLabelKey returns the full label key for a given suffix
func GetLabelKey(suffix string) string {
	return labelPrefix + "." + suffix
}

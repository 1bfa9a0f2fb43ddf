// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/post-connector/internal/post"
	"github.com/olegiv/post-connector/internal/version"
)

// StatusResponse contains connector status information.
type StatusResponse struct {
	PluginVersion string  `json:"plugin_version"`
	LatestVersion *string `json:"latest_version"`
	SiteVersion   string  `json:"site_version"`
	GoVersion     string  `json:"go_version"`
	GitCommit     string  `json:"git_commit"`
	BuildTime     string  `json:"build_time"`
}

// Status handles GET /status. The latest release is looked up best-effort
// and reported as null when unknown.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		PluginVersion: version.PluginVersion,
		SiteVersion:   h.build.Version,
		GoVersion:     version.GoVersion(),
		GitCommit:     h.build.GitCommit,
		BuildTime:     h.build.BuildTime,
	}
	if h.release != nil {
		if latest, ok := h.release.Latest(r.Context()); ok {
			resp.LatestVersion = &latest
		}
	}
	writeSuccess(w, post.CodeStatusRetrieved, resp)
}

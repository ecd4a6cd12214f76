// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version provides build-time version information.
//
// Values are injected via ldflags:
//
//	-X github.com/wvulibraries/engineAPI-Modules-sub000/internal/version.Version=v1.2.3
package version

import "fmt"

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = ""
)

// Info contains build-time version information.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time,omitempty"`
}

// Get returns the version information of the running binary.
func Get() Info {
	return Info{Version: Version, GitCommit: GitCommit, BuildTime: BuildTime}
}

// String formats the version for the -version flag.
func (i Info) String() string {
	if i.BuildTime == "" {
		return fmt.Sprintf("%s (commit: %s)", i.Version, i.GitCommit)
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", i.Version, i.GitCommit, i.BuildTime)
}

// ============================================================================
// Vaani - Scan, Translate, Speak
// ============================================================================
//
// Package:     version
// Description: Build version information
// Author:      Mike Stoffels
// Created:     2026-10-11
// License:     MIT
// ============================================================================

package version

import (
	"fmt"
	"runtime"
)

// Version is the application version
const Version = "0.3.0"

// Set at build time via -ldflags "-X github.com/msto63/vaani/pkg/core/version.Commit=..."
var (
	Commit    = "dev"
	BuildDate = "unknown"
)

// Info describes the running build
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build information
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String formats the info for `vaani version`
func (i Info) String() string {
	return fmt.Sprintf("vaani %s (commit %s, built %s, %s %s)",
		i.Version, i.Commit, i.BuildDate, i.GoVersion, i.Platform)
}

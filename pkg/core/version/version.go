// ============================================================================
// agones-sdk-go - Go client for the Agones game server sidecar
// ============================================================================
//
// Package:     version
// Description: Central version information for the SDK and its tools
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package version

import (
	"fmt"
	"runtime"
)

// Version constants
const (
	// SDK is the version of this client library
	SDK = "1.0.0"

	// AgonesAPI is the Agones release whose SDK protocol is targeted
	AgonesAPI = "1.44.0"
)

// Build metadata, set via -ldflags
var (
	GitCommit = "development"
	BuildDate = "unknown"
)

// Component returns the version for a given component name
func Component(name string) string {
	switch name {
	case "agones", "agones-api":
		return AgonesAPI
	default:
		return SDK
	}
}

// String returns a one-line summary for logs and the version command
func String() string {
	return fmt.Sprintf("agones-sdk-go v%s (agones %s, commit %s, built %s, %s %s/%s)",
		SDK, AgonesAPI, GitCommit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Package version provides build and version information for Scenario Engine.
package version

// Version is the current release version of the scenario player.
// Override at build time with:
//
//	go build -ldflags "-X github.com/AaronLay10/ScenarioEngine/internal/version.Version=x.y.z"
var Version = "0.3.0"

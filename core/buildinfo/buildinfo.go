// Package buildinfo carries release metadata injected with -ldflags:
//
//	-X 'github.com/m3rciful/eventbot/core/buildinfo.Version=v1.0.0'
//	-X 'github.com/m3rciful/eventbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/eventbot/core/buildinfo.Date=2026-10-14T12:00:00Z'
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "local"
	Date    = ""
)

// String renders the build for logs and the admin broadcast report.
func String() string {
	if Date == "" {
		return fmt.Sprintf("%s (%s)", Version, Commit)
	}
	return fmt.Sprintf("%s (%s, %s)", Version, Commit, Date)
}

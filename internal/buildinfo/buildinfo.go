// Package buildinfo holds values stamped at link time:
//
//	go build -ldflags "-X github.com/fundops/fundledger/internal/buildinfo.Version=v1.2.0 ..."
package buildinfo

var (
	// Version is the release tag, "dev" for local builds.
	Version = "dev"
	// Commit is the source revision.
	Commit = ""
	// BuildDate is the build timestamp in RFC 3339.
	BuildDate = ""
)

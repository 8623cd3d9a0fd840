// Package version exposes build metadata for the authclient binary.
//
// Values are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/authclient/version.Version=1.2.0"
//
// Missing values fall back to the VCS stamps in the Go build info.
package version

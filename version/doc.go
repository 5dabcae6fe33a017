// Package version exposes build metadata for the status API, the CLI and
// outbound User-Agent headers.
//
// Values are injected with -ldflags and fall back to the VCS stamp embedded
// by the Go toolchain:
//
//	go build -ldflags "-X github.com/kbukum/transcribot/version.Version=1.4.0"
package version

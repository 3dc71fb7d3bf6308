// Package buildinfo carries release metadata stamped in at link time:
//
//	go build -ldflags "-X github.com/aidanlsb/moodb/internal/buildinfo.Version=v0.3.0"
//
// Local builds leave every value empty.
package buildinfo

var (
	Version = ""
	Commit  = ""
	Date    = ""
)

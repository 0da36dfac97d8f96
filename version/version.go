package version

import (
	"runtime"
	"runtime/debug"
	"strconv"
)

// ServiceName is reported by /health and /version.
const ServiceName = "vision-gateway"

// Set with -ldflags "-X vision-gateway/version.BuildVersion=...". Empty
// values are filled from the embedded VCS build settings when available.
var (
	BuildVersion = "dev"
	GitSHA       = ""
	BuildTime    = ""
)

type Info struct {
	Service     string `json:"service"`
	Version     string `json:"version"`
	GitSHA      string `json:"git_sha,omitempty"`
	BuildTime   string `json:"build_time,omitempty"`
	VCSModified *bool  `json:"vcs_modified,omitempty"`
	GoVersion   string `json:"go_version"`
	Platform    string `json:"platform"`
}

// Get describes the running binary.
func Get() Info {
	info := Info{
		Service:   ServiceName,
		Version:   BuildVersion,
		GitSHA:    GitSHA,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && info.GitSHA == "":
			info.GitSHA = s.Value
		case s.Key == "vcs.time" && info.BuildTime == "":
			info.BuildTime = s.Value
		case s.Key == "vcs.modified" && info.VCSModified == nil:
			if b, err := strconv.ParseBool(s.Value); err == nil {
				info.VCSModified = &b
			}
		}
	}
	return info
}

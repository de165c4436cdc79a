// Package buildinfo holds the banner printed by the binaries.
package buildinfo

const (
	ProjectName = "drawberry"
	GithubURL   = "https://github.com/drawberry-games/drawberry"
)

// Version is set with -ldflags "-X github.com/drawberry-games/drawberry/internal/buildinfo.Version=..."
var Version = "dev"

const Graffiti = `
     _                     _
  __| |_ __ __ ___      __| |__   ___ _ __ _ __ _   _
 / _' | '__/ _' \ \ /\ / /| '_ \ / _ \ '__| '__| | | |
| (_| | | | (_| |\ V  V / | |_) |  __/ |  | |  | |_| |
 \__,_|_|  \__,_| \_/\_/  |_.__/ \___|_|  |_|   \__, |
                                                |___/
`

// GreetingCLI expects the project name, the version and the repository url
const GreetingCLI = "%s %s\nCompetitive drawing rooms, source: %s\n\n"

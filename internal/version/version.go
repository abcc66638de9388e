package version

// Version is the release string reported by --version and sent as the
// minification client's User-Agent. Set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/sitepub/internal/version.Version=v0.3.0".
var Version = "dev"

// Build metadata, also set through ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by the CLI.
func String() string {
	return "sitepub " + Version + " (commit " + GitCommit + ", built " + BuildTime + ")"
}

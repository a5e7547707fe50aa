package version

var (
	// GitCommit is the current HEAD set using ldflags.
	GitCommit string

	// Version is the built softwares version.
	Version = IBCSemVer
)

func init() {
	if GitCommit != "" {
		Version += "-" + GitCommit
	}
}

// IBCSemVer is the semantic version of the IBC handler.
const IBCSemVer = "0.1.0"

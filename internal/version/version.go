package version

// Version is overridden at build time with
// -ldflags "-X swaraj/internal/version.Version=...".
var (
	Version = "0.1.0"
	Commit  = "unknown"
)

// String returns the version with the commit appended when known.
func String() string {
	if Commit == "" || Commit == "unknown" {
		return Version
	}
	return Version + "+" + Commit
}

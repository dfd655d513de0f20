package version

var (
	// Injected through ldflags at release build time.
	semver   = "0.1.0"
	revision = "unknown"
)

func Get() string {
	return semver
}

func Commit() string {
	return revision
}

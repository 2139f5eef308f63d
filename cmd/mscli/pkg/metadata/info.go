package metadata

var (
	// Version is the CLI version, set by the build system
	Version = "dev"
	// BuildTime is the time the binary was built, set by the build system
	BuildTime = "unknown"
)

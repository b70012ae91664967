package version

// Version is the build version, overridable via -ldflags.
var Version = "0.3.0"

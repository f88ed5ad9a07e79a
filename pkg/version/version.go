// Package version carries the build version, stamped via -ldflags.
package version

var version = "dev"

// Get returns the build version.
func Get() string {
	return version
}

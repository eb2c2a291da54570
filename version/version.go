// Package version carries the distribution metadata of the module.
package version

// Version is overridden at build time with
// -ldflags "-X streamlit-analytics/version.Version=...".
var Version = "0.4.1"

const (
	Name        = "streamlit-analytics"
	Description = "Track & visualize user inputs to your streamlit app"
	License     = "MIT"
)

// String formats name and version for banners and health output.
func String() string {
	return Name + " " + Version
}

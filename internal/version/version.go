// ABOUTME: Version constants for the companion client
// ABOUTME: Reported in logs and the session user agent
package version

const (
	// Version is the client version, overridden at release time.
	Version = "0.1.0"

	// Product is the client product name.
	Product = "Watchbird"

	// Manufacturer identifies the project.
	Manufacturer = "Watchbird Live"
)

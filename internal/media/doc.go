// Package media defines the core value types shared across the scan, plan,
// and apply phases: scanned media files with their parsed segments, scan
// snapshots with filesystem fingerprints, and the media type enumeration.
package media

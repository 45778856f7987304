// Package scanner walks media roots and turns filenames into structured
// MediaFile records: parsed titles, years, episode intervals, and ordered
// title segments for anthology candidates. The resulting snapshot carries a
// deterministic fingerprint binding later plans to the observed filesystem
// state.
package scanner

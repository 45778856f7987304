// Package testsupport provides shared helpers for package tests: temp-backed
// configs and cache stores.
package testsupport

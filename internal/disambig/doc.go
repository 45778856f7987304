// Package disambig is the disambiguation ledger: it mints opaque tokens for
// pending entity choices, persists them alongside their candidate lists, and
// converts user resolutions into durable Decision rows consulted on every
// later planning pass.
package disambig

// Package pkguid generates identifiers.
//
// UUIDv7 strings name ingestion jobs, dead-letter events and correlation IDs.
// Snowflake numbers become warehouse insert IDs, so a re-sent row can be
// recognized as a duplicate.
package pkguid

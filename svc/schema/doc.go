// Package schema validates inbound notification envelopes and their type
// specific payloads.
//
// Validation is exhaustive: every violation is reported, not just the first.
// Undeclared fields are dropped, and numeric strings are accepted where a
// number is expected. Each reported message quotes the offending field path,
// for example `"data.merchant" is required`, which lets the dead-letter
// classifier recover field names from stored messages. The package has no
// side effects.
package schema

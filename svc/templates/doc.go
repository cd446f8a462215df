// Package templates resolves and renders the e-mail template bundle of each
// notification type.
//
// A bundle is three blobs stored under the type's template path: subject.txt,
// body.html and body.txt. Resolver keeps fetched bundles in memory for a
// freshness window (five minutes by default). On a miss or a stale entry the
// three blobs are fetched concurrently and the entry is replaced only when
// all three succeed, so a partial failure never overwrites a good bundle.
//
// Render substitutes {{name}} placeholders and evaluates {{#if name}}...{{/if}}
// blocks. Placeholders without a value are left untouched.
package templates

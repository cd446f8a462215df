// Package async runs functions in goroutines and exposes their results as
// typed futures.
//
// Settle and Map wait for every future and report each outcome, so one
// failing item never hides the others.
package async

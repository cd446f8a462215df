// Package mongo opens MongoDB v2 driver clients from environment config.
//
// It backs the document store variant of the delivery store, where the
// notifications and error collections live in cfg.Database.
package mongo

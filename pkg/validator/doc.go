// Package validator provides declarative validation rules.
//
// A Rule pairs a Check function with the ValidationError reported when the
// check fails. Apply evaluates every rule without stopping at the first
// failure and returns the collected ValidationErrors, which implements error.
//
//	err := validator.Apply(
//		validator.RequiredString("userEmail", env.UserEmail),
//		validator.ValidEmail("userEmail", env.UserEmail),
//		validator.MinLenString("data.fullname", name, 2),
//	)
//
// Rendered messages quote the field path (`"userEmail" must be a valid
// email`) so downstream consumers can recover field names from text alone.
package validator

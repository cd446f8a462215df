// Package deadletter diagnoses messages that exhausted their delivery
// retries.
//
// The classifier re-runs schema validation on the raw body without
// triggering delivery, records one ErrorRecord describing why the message
// most likely failed, and appends one ErrorStatistic for the hourly rollups:
//
//	body is not a JSON object        PARSE_ERROR
//	body fails schema validation     SCHEMA_VALIDATION_ERROR
//	body is valid                    PROCESSING_FAILED
//
// Handle never fails. When classification panics or the record cannot be
// written, a minimal CRITICAL_HANDLER_ERROR record attributed to the system
// user is attempted instead, and a failure of that write is only logged.
package deadletter

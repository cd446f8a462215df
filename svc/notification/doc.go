// Package notification holds the domain model shared by the delivery
// pipeline: the closed catalog of notification types, typed payloads, the
// inbound Envelope, the persisted Record with its status lifecycle, and the
// diagnostic ErrorRecord and ErrorStatistic written on failures.
package notification

// Package delivery orchestrates one notification from a validated envelope
// to a terminal delivery record.
//
// Process persists a PENDING record, resolves and renders the template for
// the envelope type, hands the message to the mail transport and finally
// moves the record to SENT or FAILED. The PENDING to terminal lifecycle is a
// statemachine.Machine whose transition actions perform the store write, so
// the in-memory state only advances once the store accepted it.
//
// Every failure is returned as a *notification.DeliveryError whose Kind tells
// the caller whether redelivery may help. Template, render and transport
// failures also leave an ErrorRecord behind; writing it is best effort.
//
// On top of Process the service offers SendBulk (throttled waves),
// SendTest and History.
package delivery

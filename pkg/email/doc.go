// Package email defines the EmailSender transport used to deliver rendered
// notifications, with a Postmark implementation for real delivery and a
// DevSender that writes messages to a local directory.
//
// SendEmail returns the transport message id, which callers persist next to
// the delivery record.
package email

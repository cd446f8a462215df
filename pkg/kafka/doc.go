// Package kafka wraps segmentio/kafka-go for the notification queues.
//
// A Consumer fetches messages in batches, hands them to a Handler and then
// settles every message according to the returned Disposition: Ack commits
// it, Retry republishes it to its own topic with an incremented
// RetryCountHeader until MaxAttempts is reached, and DeadLetter (or an
// exhausted Retry) republishes it to the dead-letter topic. Offsets are
// committed only after every republish of the batch succeeded, so a broker
// failure leads to redelivery rather than loss.
//
// A Publisher writes single messages, used by the HTTP re-enqueue path.
package kafka

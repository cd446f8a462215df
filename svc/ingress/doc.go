// Package ingress exposes the notification pipeline to callers.
//
// Adapter turns raw envelope bodies into delivery calls. Handle serves the
// synchronous path and HandleBatch the queue path, where every item in a
// batch is parsed, validated and delivered concurrently and the batch
// summary reports each outcome without short-circuiting.
//
// Router mounts the HTTP surface on chi:
//
//	POST /notifications               synchronous send
//	POST /notifications/queue         enqueue for the batch worker
//	POST /notifications/bulk          wave throttled bulk send
//	POST /notifications/test          WELCOME to a given address
//	GET  /users/{userID}/notifications
//	GET  /stats/errors?date=YYYY-MM-DD
//	GET  /healthz, /readyz, /metrics
//
// KafkaHandler adapts HandleBatch to a kafka.Consumer, mapping retryable
// failures to redelivery and terminal ones to the dead-letter topic.
package ingress

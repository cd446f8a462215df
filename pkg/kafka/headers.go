package kafka

import (
	"strconv"

	k "github.com/segmentio/kafka-go"
)

const (
	RetryCountHeader  = "x-retry-count"
	SourceTopicHeader = "x-source-topic"
	LastErrorHeader   = "x-last-error"
)

// Header returns the value of the last header named key.
func Header(msg k.Message, key string) (string, bool) {
	for i := len(msg.Headers) - 1; i >= 0; i-- {
		if msg.Headers[i].Key == key {
			return string(msg.Headers[i].Value), true
		}
	}
	return "", false
}

// Headers flattens msg headers into a map; later duplicates win.
func Headers(msg k.Message) map[string]string {
	out := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		out[h.Key] = string(h.Value)
	}
	return out
}

// RetryCount reads RetryCountHeader, zero when absent or malformed.
func RetryCount(msg k.Message) int {
	v, ok := Header(msg, RetryCountHeader)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// withHeader returns a copy of headers with key set to value.
func withHeader(headers []k.Header, key, value string) []k.Header {
	out := make([]k.Header, 0, len(headers)+1)
	for _, h := range headers {
		if h.Key != key {
			out = append(out, h)
		}
	}
	return append(out, k.Header{Key: key, Value: []byte(value)})
}

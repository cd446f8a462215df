package file

import "context"

// Reader fetches whole objects by slash separated key.
type Reader interface {
	Read(ctx context.Context, path string) ([]byte, error)
}

// MaxObjectSize caps how many bytes Read loads from any backend.
const MaxObjectSize = 1 << 20

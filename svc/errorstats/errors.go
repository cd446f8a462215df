package errorstats

import "errors"

var (
	ErrRollupFailed = errors.New("errorstats: rollup failed")
	ErrInvalidDate  = errors.New("errorstats: invalid date")
)

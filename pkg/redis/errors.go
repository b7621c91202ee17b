package redis

import "errors"

var (
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis did not become ready within the given time period")
	ErrHealthcheckFailed            = errors.New("redis healthcheck failed")
	ErrEmptyKey                     = errors.New("empty entity key")
	ErrReadState                    = errors.New("failed to read entity state")
	ErrWriteState                   = errors.New("failed to write entity state")
)

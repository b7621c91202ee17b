package mongo

import "errors"

var (
	ErrFailedToConnectToMongo = errors.New("failed to connect to mongo")
	ErrHealthcheckFailed      = errors.New("mongo healthcheck failed")
	ErrEmptyKey               = errors.New("empty entity key")
	ErrReadState              = errors.New("failed to read entity state")
	ErrWriteState             = errors.New("failed to write entity state")
)

package cipher

import "errors"

var (
	ErrUnknownCipher        = errors.New("unknown cipher")
	ErrUnknownHMACAlgorithm = errors.New("unknown hmac algorithm")
	ErrUnknownKDFAlgorithm  = errors.New("unknown kdf algorithm")
	ErrInvalidKdfIter       = errors.New("invalid kdf iteration count, must be greater than zero")
	ErrInvalidPageSize      = errors.New("invalid page size, must be a power of two between 512 and 65536")
	ErrInvalidLegacy        = errors.New("invalid legacy compatibility level, valid values are 1-4")
	ErrEmptyPassword        = errors.New("password must not be empty")
	ErrInvalidKey           = errors.New("invalid raw key, must be exactly 32 bytes")
)

package bsatn

import "errors"

// Decode/encode failure classes from the wire format spec. Callers that
// need to distinguish them can use errors.Is against these sentinels;
// wrapped messages carry the offending byte offsets for diagnostics.
var (
	ErrInvalidData      = errors.New("bsatn: invalid data")
	ErrInvalidEncoding  = errors.New("bsatn: invalid encoding")
	ErrInvalidEnumTag   = errors.New("bsatn: invalid enum tag")
	ErrUnexpectedEOD    = errors.New("bsatn: unexpected end of data")
	ErrOverflow         = errors.New("bsatn: length exceeds u32")
)

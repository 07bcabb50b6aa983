package token

import "errors"

var (
	// ErrUnknownProtocol indicates a protocol identifier or script that matches no template.
	ErrUnknownProtocol = errors.New("token: unknown protocol")

	// ErrMalformedScript indicates script bytes that cannot be decoded as a token script.
	ErrMalformedScript = errors.New("token: malformed script")

	// ErrInvalidHash indicates a public key hash that is not 20 bytes.
	ErrInvalidHash = errors.New("token: public key hash must be 20 bytes")

	// ErrInvalidSymbol indicates a symbol outside the allowed length or alphabet.
	ErrInvalidSymbol = errors.New("token: invalid symbol")

	// ErrInvalidSchema indicates a token schema missing a required field.
	ErrInvalidSchema = errors.New("token: invalid schema")
)

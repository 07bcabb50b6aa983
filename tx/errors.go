package tx

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("tx: required parameter is nil")

	// ErrInvalidParams indicates invalid parameters were provided.
	ErrInvalidParams = errors.New("tx: invalid parameters")

	// ErrInvalidUTXO indicates a UTXO descriptor is malformed.
	ErrInvalidUTXO = errors.New("tx: invalid utxo")

	// ErrInvalidAddress indicates a destination address cannot be decoded.
	ErrInvalidAddress = errors.New("tx: invalid address")

	// ErrInvalidPublicKey indicates a key reference carries no usable public key.
	ErrInvalidPublicKey = errors.New("tx: invalid value for public key")

	// ErrZeroFeeMismatch indicates only one of payment key and payment UTXO was supplied.
	ErrZeroFeeMismatch = errors.New("tx: payment key and payment utxo must be supplied together")

	// ErrTooManyDestinations indicates a destination list exceeds the protocol ceiling.
	ErrTooManyDestinations = errors.New("tx: too many destinations")

	// ErrAmountMismatch indicates token input and output amounts differ.
	ErrAmountMismatch = errors.New("tx: token input amount must match total output amounts")

	// ErrZeroChangeThreshold indicates a zero-change build would burn too much.
	ErrZeroChangeThreshold = errors.New("tx: change amount is greater than zero change threshold")

	// ErrIssuerDestination indicates a token output addressed to its own redeemer.
	ErrIssuerDestination = errors.New("tx: Token UTXO cannot be sent to issuer address")

	// ErrRedeemerMismatch indicates a STAS-20 redeem by someone other than the issuer.
	ErrRedeemerMismatch = errors.New("tx: STAS-20 Token UTXO can only be redeemed by issuer address")

	// ErrSwapAmountMismatch indicates the taker input does not cover the swap outputs exactly.
	ErrSwapAmountMismatch = errors.New("tx: atomic swap taker input amount must match output amounts")

	// ErrNotSplittable indicates a split of a token that forbids it.
	ErrNotSplittable = errors.New("tx: token script is not splittable")

	// ErrLineageMismatch indicates two token inputs that are not the same token.
	ErrLineageMismatch = errors.New("tx: token inputs do not share a lineage")

	// ErrNotToken indicates a script that is not a recognised token script.
	ErrNotToken = errors.New("tx: not a token script")

	// ErrInsufficientFunds indicates the payment UTXO cannot cover the fee.
	ErrInsufficientFunds = errors.New("tx: insufficient funds")

	// ErrInvalidTx indicates a raw transaction that cannot be parsed or lacks a referenced output.
	ErrInvalidTx = errors.New("tx: invalid raw transaction")

	// ErrSigningFailed indicates transaction signing failed.
	ErrSigningFailed = errors.New("tx: signing failed")

	// ErrScriptBuild indicates script construction failed.
	ErrScriptBuild = errors.New("tx: script build failed")

	// ErrUnsignedInputs indicates a result still carries signing obligations.
	ErrUnsignedInputs = errors.New("tx: transaction has unsigned inputs")
)

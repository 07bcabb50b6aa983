package token

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/script"
)

// Owner scaffold: OP_DUP OP_HASH160 <owner:20> OP_EQUALVERIFY OP_CHECKSIG.
const (
	ownerStart = 3
	ownerEnd   = ownerStart + PKHLen
	// BodyOffset is where the variant body starts, directly after the owner scaffold.
	BodyOffset = ownerEnd + 2

	prefixLen = 8
)

// Flag is the one-byte splittable flag carried by Legacy and STAS-50 scripts.
type Flag byte

const (
	FlagSplittable    Flag = 0x00
	FlagNotSplittable Flag = 0x01
)

type template struct {
	protocol Protocol
	body     []byte
}

// Variant bodies. Each starts with an 8-byte prefix that no other variant shares:
// OP_VERIFY OP_DUP OP_HASH160 OP_SWAP OP_CAT OP_SWAP <push 1 byte: variant id>.
var templates = []template{
	{Legacy, mustHex("6976a97c7e7c01a0" + coreBody + "7c7e75")},
	{STAS50, mustHex("6976a97c7e7c01a1" + coreBody + "7c7e7c7e75")},
	{STAS20, mustHex("6976a97c7e7c01a2" + coreBody + "7b7e75")},
	{STAS789, mustHex("6976a97c7e7c01a3" + coreBody + "7b7e7b7e75")},
}

// coreBody is the shared output-commitment check: it rebuilds the spent output
// from the unlocking data, hashes it and compares it against the preimage.
const coreBody = "00795c7f7c7e7e78827c7f75" +
	"7654797e7e7ea8a8877c82" +
	"7b7b7e7e7c7e7e7ea9887c" +
	"6e937c94a57c7e7e82777c" +
	"a8a887697c7e7c7e7ea987ad"

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

func templateFor(p Protocol) (template, bool) {
	for _, t := range templates {
		if t.protocol == p {
			return t, true
		}
	}
	return template{}, false
}

// Prefix returns the byte prefix that identifies scripts of protocol p.
func Prefix(p Protocol) []byte {
	t, ok := templateFor(p)
	if !ok {
		return nil
	}
	return append([]byte(nil), t.body[:prefixLen]...)
}

// BuildIssuanceScript assembles a fresh token script for protocol p.
//
// Layout:
//
//	OP_DUP OP_HASH160 <ownerPKH> OP_EQUALVERIFY OP_CHECKSIG
//	<variant body>
//	OP_RETURN <redeemPKH> [<flag> (Legacy/STAS-50)] <symbol> [metadata...]
//
// metadata is appended as-is and is normally the output of EncodeMetadata.
func BuildIssuanceScript(ownerPKH, redeemPKH, metadata []byte, splittable bool, symbol string, p Protocol) ([]byte, error) {
	if len(ownerPKH) != PKHLen {
		return nil, fmt.Errorf("%w: owner hash is %d bytes", ErrInvalidHash, len(ownerPKH))
	}
	if len(redeemPKH) != PKHLen {
		return nil, fmt.Errorf("%w: redeem hash is %d bytes", ErrInvalidHash, len(redeemPKH))
	}
	t, ok := templateFor(p)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProtocol, p)
	}

	b := NewBuilder().
		PushOp(script.OpDUP, script.OpHASH160).
		PushData(ownerPKH).
		PushOp(script.OpEQUALVERIFY, script.OpCHECKSIG).
		Append(t.body).
		PushOp(script.OpRETURN).
		PushData(redeemPKH)

	if p.HasFlags() {
		flag := FlagNotSplittable
		if splittable {
			flag = FlagSplittable
		}
		b.PushData([]byte{byte(flag)})
	}
	if symbol != "" {
		b.PushData([]byte(symbol))
	}
	b.Append(metadata)

	return b.Bytes()
}

// RewriteOwner returns a copy of s owned by newOwnerPKH. Only bytes [3, 23)
// change; everything from offset 25 onward is carried over untouched. The
// result is meaningless for scripts that Classify does not recognise.
func RewriteOwner(newOwnerPKH, s []byte) ([]byte, error) {
	if len(newOwnerPKH) != PKHLen {
		return nil, fmt.Errorf("%w: owner hash is %d bytes", ErrInvalidHash, len(newOwnerPKH))
	}
	if len(s) < BodyOffset {
		return nil, fmt.Errorf("%w: script is %d bytes", ErrMalformedScript, len(s))
	}
	out := make([]byte, 0, len(s))
	out = append(out, script.OpDUP, script.OpHASH160, PKHLen)
	out = append(out, newOwnerPKH...)
	out = append(out, script.OpEQUALVERIFY, script.OpCHECKSIG)
	out = append(out, s[BodyOffset:]...)
	return out, nil
}

// hasOwnerScaffold reports whether s starts with the P2PKH owner scaffold.
func hasOwnerScaffold(s []byte) bool {
	return len(s) >= BodyOffset &&
		s[0] == script.OpDUP && s[1] == script.OpHASH160 && s[2] == PKHLen &&
		s[ownerEnd] == script.OpEQUALVERIFY && s[ownerEnd+1] == script.OpCHECKSIG
}

// Classify returns the protocol of s, or Unknown if s is not a token script.
func Classify(s []byte) Protocol {
	if !hasOwnerScaffold(s) || len(s) < BodyOffset+prefixLen {
		return Unknown
	}
	for _, t := range templates {
		if bytes.HasPrefix(s[BodyOffset:], t.body[:prefixLen]) {
			return t.protocol
		}
	}
	return Unknown
}

// IsToken reports whether s is a recognised token script.
func IsToken(s []byte) bool {
	return Classify(s) != Unknown
}

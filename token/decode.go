package token

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/script"
)

// Script is a decoded token locking script.
type Script struct {
	Protocol  Protocol
	OwnerPKH  []byte
	RedeemPKH []byte
	Flag      Flag // only meaningful when Protocol.HasFlags()
	Symbol    []byte
	Metadata  [][]byte // trailing pushes after the symbol

	tailOffset int // offset of OP_RETURN
}

// Splittable reports whether the token may be split.
func (s *Script) Splittable() bool {
	switch s.Protocol {
	case Legacy, STAS50:
		return s.Flag == FlagSplittable
	case STAS20:
		return true
	}
	return false
}

// Decode classifies b and extracts its fields. Field positions after the
// OP_RETURN marker are:
//
//	Legacy, STAS-50:  redeemPKH, flag, symbol, metadata...
//	STAS-20, STAS-789: redeemPKH, symbol, metadata...
func Decode(b []byte) (*Script, error) {
	p := Classify(b)
	if p == Unknown {
		return nil, fmt.Errorf("%w: not a token script", ErrUnknownProtocol)
	}

	ins, err := Instructions(b[BodyOffset:])
	if err != nil {
		return nil, err
	}

	marker := -1
	for i, in := range ins {
		if in.Op == script.OpRETURN {
			marker = i
			break
		}
	}
	if marker < 0 {
		return nil, fmt.Errorf("%w: no OP_RETURN marker", ErrMalformedScript)
	}

	fields := ins[marker+1:]
	for _, f := range fields {
		if !f.IsPush() {
			return nil, fmt.Errorf("%w: opcode 0x%02x after OP_RETURN", ErrMalformedScript, f.Op)
		}
	}
	if len(fields) == 0 || len(fields[0].Data) != PKHLen {
		return nil, fmt.Errorf("%w: missing redeem hash", ErrMalformedScript)
	}

	out := &Script{
		Protocol:   p,
		OwnerPKH:   append([]byte(nil), b[ownerStart:ownerEnd]...),
		RedeemPKH:  append([]byte(nil), fields[0].Data...),
		tailOffset: BodyOffset + ins[marker].Offset,
	}
	fields = fields[1:]

	if p.HasFlags() {
		if len(fields) == 0 || len(fields[0].Data) != 1 {
			return nil, fmt.Errorf("%w: missing splittable flag", ErrMalformedScript)
		}
		out.Flag = Flag(fields[0].Data[0])
		fields = fields[1:]
	}

	if len(fields) > 0 {
		out.Symbol = append([]byte(nil), fields[0].Data...)
		fields = fields[1:]
	}
	for _, f := range fields {
		out.Metadata = append(out.Metadata, append([]byte(nil), f.Data...))
	}
	return out, nil
}

// ExtractOwnerPKH returns the owner hash of a token script.
func ExtractOwnerPKH(b []byte) ([]byte, error) {
	s, err := Decode(b)
	if err != nil {
		return nil, err
	}
	return s.OwnerPKH, nil
}

// ExtractRedeemPKH returns the redeem hash embedded after OP_RETURN.
func ExtractRedeemPKH(b []byte) ([]byte, error) {
	s, err := Decode(b)
	if err != nil {
		return nil, err
	}
	return s.RedeemPKH, nil
}

// ExtractSymbol returns the token symbol.
func ExtractSymbol(b []byte) (string, error) {
	s, err := Decode(b)
	if err != nil {
		return "", err
	}
	return string(s.Symbol), nil
}

// ExtractFlags returns the splittable flag. ok is false for protocols that
// carry no flag and for scripts that do not decode.
func ExtractFlags(b []byte) (flag Flag, ok bool) {
	s, err := Decode(b)
	if err != nil || !s.Protocol.HasFlags() {
		return 0, false
	}
	return s.Flag, true
}

// ExtractMetadata returns the pushes following the symbol.
func ExtractMetadata(b []byte) ([][]byte, error) {
	s, err := Decode(b)
	if err != nil {
		return nil, err
	}
	return s.Metadata, nil
}

// IsSplittable reports whether b is a token script that may be split.
func IsSplittable(b []byte) bool {
	s, err := Decode(b)
	if err != nil {
		return false
	}
	return s.Splittable()
}

// LineageTail returns the bytes from the OP_RETURN marker to the end of b.
// Two scripts belong to the same token lineage when their tails are equal.
func LineageTail(b []byte) ([]byte, error) {
	s, err := Decode(b)
	if err != nil {
		return nil, err
	}
	return b[s.tailOffset:], nil
}

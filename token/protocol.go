package token

import (
	"fmt"
	"strings"
)

// Protocol identifies one of the token script templates.
type Protocol string

const (
	// Unknown is returned by Classify for scripts that are not token scripts.
	Unknown Protocol = ""

	// Legacy is the first-generation template. Accepted as "STAS" or "STAS-0".
	Legacy Protocol = "STAS"

	// STAS50 carries a splittable flag and allows wide fan-out.
	STAS50 Protocol = "STAS-50"

	// STAS20 is always splittable and only redeemable by its issuer.
	STAS20 Protocol = "STAS-20"

	// STAS789 is never splittable and carries inline data in its unlocking script.
	STAS789 Protocol = "STAS-789"
)

// Protocols lists the recognised templates in a stable order.
var Protocols = []Protocol{Legacy, STAS50, STAS20, STAS789}

// ParseProtocol maps a protocol identifier to its Protocol, ignoring case.
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "STAS", "STAS-0":
		return Legacy, nil
	case "STAS-50":
		return STAS50, nil
	case "STAS-20":
		return STAS20, nil
	case "STAS-789":
		return STAS789, nil
	}
	return Unknown, fmt.Errorf("%w: protocol type %q is not supported", ErrUnknownProtocol, s)
}

func (p Protocol) String() string {
	if p == Unknown {
		return "unknown"
	}
	return string(p)
}

// HasFlags reports whether scripts of this protocol embed a splittable flag.
func (p Protocol) HasFlags() bool {
	return p == Legacy || p == STAS50
}

// DestinationKind selects the destination ceiling applied by MaxDestinations.
type DestinationKind int

const (
	KindSplit DestinationKind = iota
	KindMergeSplit
	KindRedeemSplit
	KindSwap
)

func (k DestinationKind) String() string {
	switch k {
	case KindSplit:
		return "split"
	case KindMergeSplit:
		return "mergeSplit"
	case KindRedeemSplit:
		return "redeemSplit"
	case KindSwap:
		return "swap"
	}
	return fmt.Sprintf("DestinationKind(%d)", int(k))
}

// MaxDestinations returns the most destinations an operation of the given
// kind may create for a token of protocol p.
func MaxDestinations(kind DestinationKind, p Protocol) int {
	wide := p == STAS50
	switch kind {
	case KindSplit, KindMergeSplit:
		if wide {
			return 50
		}
		return 4
	case KindRedeemSplit:
		if wide {
			return 49
		}
		return 3
	case KindSwap:
		if wide {
			return 48
		}
		return 2
	}
	return 0
}

package token

import (
	"encoding/binary"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/script"
)

const (
	opPushData1 = 0x4c
	opPushData2 = 0x4d
	opPushData4 = 0x4e

	// PKHLen is the length of a public key hash.
	PKHLen = 20
)

// Builder assembles script bytes one instruction at a time. The first error
// sticks and is reported by Script or Bytes.
type Builder struct {
	s   script.Script
	err error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// PushData appends a minimal data push of d. An empty slice pushes OP_0.
func (b *Builder) PushData(d []byte) *Builder {
	if b.err != nil {
		return b
	}
	if len(d) == 0 {
		b.s = append(b.s, script.Op0)
		return b
	}
	if err := b.s.AppendPushData(d); err != nil {
		b.err = fmt.Errorf("%w: push %d bytes: %w", ErrMalformedScript, len(d), err)
	}
	return b
}

// PushOp appends raw opcodes.
func (b *Builder) PushOp(ops ...byte) *Builder {
	if b.err != nil {
		return b
	}
	b.s = append(b.s, ops...)
	return b
}

// PushNumber appends n as a script number: OP_0..OP_16 for values below 17,
// otherwise a data push of its sign-magnitude encoding.
func (b *Builder) PushNumber(n uint64) *Builder {
	switch {
	case n == 0:
		return b.PushOp(script.Op0)
	case n <= 16:
		return b.PushOp(script.Op1 + byte(n-1))
	}
	return b.PushData(EncodeNumber(n))
}

// Append copies already-encoded script bytes onto the end of the builder.
func (b *Builder) Append(raw []byte) *Builder {
	if b.err != nil {
		return b
	}
	b.s = append(b.s, raw...)
	return b
}

// Len returns the number of bytes assembled so far.
func (b *Builder) Len() int {
	return len(b.s)
}

// Script returns the assembled script.
func (b *Builder) Script() (*script.Script, error) {
	if b.err != nil {
		return nil, b.err
	}
	s := make(script.Script, len(b.s))
	copy(s, b.s)
	return &s, nil
}

// Bytes returns the assembled script bytes.
func (b *Builder) Bytes() ([]byte, error) {
	s, err := b.Script()
	if err != nil {
		return nil, err
	}
	return []byte(*s), nil
}

// Instruction is one decoded script element. Data is set for push opcodes
// (OP_0 through OP_PUSHDATA4) and nil otherwise.
type Instruction struct {
	Op     byte
	Data   []byte
	Offset int // byte offset of Op within the script
}

// IsPush reports whether the instruction is a data push.
func (i Instruction) IsPush() bool {
	return i.Op <= opPushData4
}

// Instructions walks b and returns its instructions. Unlike a full script
// parser it keeps decoding past OP_RETURN, since token scripts carry their
// fields as pushes after that marker.
func Instructions(b []byte) ([]Instruction, error) {
	var out []Instruction
	for i := 0; i < len(b); {
		start := i
		op := b[i]
		i++

		var n int
		switch {
		case op == script.Op0:
			out = append(out, Instruction{Op: op, Data: []byte{}, Offset: start})
			continue
		case op < opPushData1:
			n = int(op)
		case op == opPushData1:
			if i+1 > len(b) {
				return nil, fmt.Errorf("%w: truncated OP_PUSHDATA1 at offset %d", ErrMalformedScript, start)
			}
			n = int(b[i])
			i++
		case op == opPushData2:
			if i+2 > len(b) {
				return nil, fmt.Errorf("%w: truncated OP_PUSHDATA2 at offset %d", ErrMalformedScript, start)
			}
			n = int(binary.LittleEndian.Uint16(b[i:]))
			i += 2
		case op == opPushData4:
			if i+4 > len(b) {
				return nil, fmt.Errorf("%w: truncated OP_PUSHDATA4 at offset %d", ErrMalformedScript, start)
			}
			n = int(binary.LittleEndian.Uint32(b[i:]))
			i += 4
		default:
			out = append(out, Instruction{Op: op, Offset: start})
			continue
		}

		if n < 0 || i+n > len(b) {
			return nil, fmt.Errorf("%w: push of %d bytes at offset %d overruns script", ErrMalformedScript, n, start)
		}
		out = append(out, Instruction{Op: op, Data: b[i : i+n], Offset: start})
		i += n
	}
	return out, nil
}

package abi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// packer builds binary payloads for decoder tests, mirroring the ledger's
// serialization rules
type packer struct {
	buf []byte
}

func (p *packer) byte(b byte) *packer {
	p.buf = append(p.buf, b)

	return p
}

func (p *packer) uint(value uint64, width int) *packer {
	for i := 0; i < width; i++ {
		p.buf = append(p.buf, byte(value))
		value >>= 8
	}

	return p
}

func (p *packer) varuint32(value uint32) *packer {
	for {
		b := byte(value & 0x7f)
		value >>= 7

		if value != 0 {
			b |= 0x80
		}

		p.buf = append(p.buf, b)

		if value == 0 {
			return p
		}
	}
}

func (p *packer) bytes(data []byte) *packer {
	p.varuint32(uint32(len(data)))
	p.buf = append(p.buf, data...)

	return p
}

func (p *packer) str(s string) *packer {
	return p.bytes([]byte(s))
}

func (p *packer) name(t *testing.T, s string) *packer {
	t.Helper()

	value, err := StringToName(s)
	require.NoError(t, err)

	return p.uint(value, 8)
}

func symbolValue(precision byte, code string) uint64 {
	value := uint64(precision)
	for i := 0; i < len(code); i++ {
		value |= uint64(code[i]) << uint(8*(i+1))
	}

	return value
}

// packMinimalDef serializes a schema with one struct and one action in the
// abi_def binary layout
func packMinimalDef(t *testing.T, structName, fieldName, fieldType, actionName string) []byte {
	t.Helper()

	p := &packer{}
	p.str("eosio::abi/1.1")
	p.varuint32(0) // types

	p.varuint32(1) // structs
	p.str(structName)
	p.str("") // base
	p.varuint32(1)
	p.str(fieldName)
	p.str(fieldType)

	p.varuint32(1) // actions
	p.name(t, actionName)
	p.str(structName)
	p.str("") // ricardian_contract

	p.varuint32(0) // tables
	p.varuint32(0) // ricardian_clauses
	p.varuint32(0) // error_messages
	p.varuint32(0) // abi_extensions

	return p.buf
}

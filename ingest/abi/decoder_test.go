package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transferDef() *Def {
	return &Def{
		Version: "eosio::abi/1.1",
		Structs: []Struct{
			{Name: "transfer", Fields: []Field{
				{Name: "from", Type: "name"},
				{Name: "to", Type: "name"},
				{Name: "quantity", Type: "asset"},
				{Name: "memo", Type: "string"},
			}},
		},
		Actions: []Action{
			{Name: "transfer", Type: "transfer"},
		},
	}
}

func TestDecodeAction(t *testing.T) {
	t.Parallel()

	payload := (&packer{}).
		name(t, "alice").
		name(t, "bob").
		uint(10000, 8).
		uint(symbolValue(4, "EOS"), 8).
		str("rent").buf

	fields, err := NewDecoder(transferDef()).DecodeAction("transfer", payload)
	require.NoError(t, err)

	assert.Equal(t, "alice", fields["from"])
	assert.Equal(t, "bob", fields["to"])
	assert.Equal(t, "1.0000 EOS", fields["quantity"])
	assert.Equal(t, "rent", fields["memo"])
}

func TestDecodeActionUnknown(t *testing.T) {
	t.Parallel()

	_, err := NewDecoder(transferDef()).DecodeAction("issue", nil)
	require.ErrorIs(t, err, ErrUnknownAction)
}

func TestDecodeActionTruncated(t *testing.T) {
	t.Parallel()

	payload := (&packer{}).name(t, "alice").buf
	payload = payload[:4]

	_, err := NewDecoder(transferDef()).DecodeAction("transfer", payload)
	require.Error(t, err)
}

func TestDecodeActionEmptyPayload(t *testing.T) {
	t.Parallel()

	_, err := NewDecoder(transferDef()).DecodeAction("transfer", nil)
	require.Error(t, err)
}

func TestDecodeActionMissingTrailingFields(t *testing.T) {
	t.Parallel()

	// a complete first field followed by nothing must not decode to a
	// partial result
	payload := (&packer{}).name(t, "alice").buf

	_, err := NewDecoder(transferDef()).DecodeAction("transfer", payload)
	require.Error(t, err)
}

func TestDecodeStructBase(t *testing.T) {
	t.Parallel()

	def := &Def{
		Structs: []Struct{
			{Name: "header", Fields: []Field{
				{Name: "id", Type: "uint64"},
			}},
			{Name: "entry", Base: "header", Fields: []Field{
				{Name: "note", Type: "string"},
			}},
		},
	}

	payload := (&packer{}).uint(42, 8).str("hello").buf

	fields, err := NewDecoder(def).DecodeStruct("entry", payload)
	require.NoError(t, err)

	assert.Equal(t, uint64(42), fields["id"])
	assert.Equal(t, "hello", fields["note"])
}

func TestDecodeTypedef(t *testing.T) {
	t.Parallel()

	def := &Def{
		Types: []Type{
			{NewTypeName: "account", Type: "name"},
		},
		Structs: []Struct{
			{Name: "grant", Fields: []Field{
				{Name: "who", Type: "account"},
			}},
		},
	}

	payload := (&packer{}).name(t, "carol").buf

	fields, err := NewDecoder(def).DecodeStruct("grant", payload)
	require.NoError(t, err)
	assert.Equal(t, "carol", fields["who"])
}

func TestDecodeArray(t *testing.T) {
	t.Parallel()

	def := &Def{
		Structs: []Struct{
			{Name: "batch", Fields: []Field{
				{Name: "ids", Type: "uint64[]"},
			}},
		},
	}

	payload := (&packer{}).varuint32(3).uint(1, 8).uint(2, 8).uint(3, 8).buf

	fields, err := NewDecoder(def).DecodeStruct("batch", payload)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{uint64(1), uint64(2), uint64(3)}, fields["ids"])
}

func TestDecodeOptional(t *testing.T) {
	t.Parallel()

	def := &Def{
		Structs: []Struct{
			{Name: "maybe", Fields: []Field{
				{Name: "note", Type: "string?"},
			}},
		},
	}

	decoder := NewDecoder(def)

	fields, err := decoder.DecodeStruct("maybe", (&packer{}).byte(1).str("here").buf)
	require.NoError(t, err)
	assert.Equal(t, "here", fields["note"])

	fields, err = decoder.DecodeStruct("maybe", (&packer{}).byte(0).buf)
	require.NoError(t, err)
	assert.Nil(t, fields["note"])
}

func TestDecodeBinaryExtension(t *testing.T) {
	t.Parallel()

	def := &Def{
		Structs: []Struct{
			{Name: "versioned", Fields: []Field{
				{Name: "id", Type: "uint32"},
				{Name: "extra", Type: "uint16$"},
			}},
		},
	}

	decoder := NewDecoder(def)

	// old payload without the extension field
	fields, err := decoder.DecodeStruct("versioned", (&packer{}).uint(7, 4).buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), fields["id"])
	assert.NotContains(t, fields, "extra")

	fields, err = decoder.DecodeStruct("versioned", (&packer{}).uint(7, 4).uint(9, 2).buf)
	require.NoError(t, err)
	assert.Equal(t, uint16(9), fields["extra"])
}

func TestDecodeBuiltins(t *testing.T) {
	t.Parallel()

	def := &Def{
		Structs: []Struct{
			{Name: "sample", Fields: []Field{
				{Name: "flag", Type: "bool"},
				{Name: "tiny", Type: "int8"},
				{Name: "small", Type: "int16"},
				{Name: "spin", Type: "varint32"},
				{Name: "blob", Type: "bytes"},
				{Name: "when", Type: "time_point_sec"},
				{Name: "slot", Type: "block_timestamp_type"},
			}},
		},
	}

	payload := (&packer{}).
		byte(1).
		byte(0xff).       // int8(-1)
		uint(0xfffe, 2).  // int16(-2)
		varuint32(9).     // zigzag encoding of -5
		bytes([]byte{0xde, 0xad}).
		uint(0, 4).
		uint(0, 4).buf

	fields, err := NewDecoder(def).DecodeStruct("sample", payload)
	require.NoError(t, err)

	assert.Equal(t, true, fields["flag"])
	assert.Equal(t, int8(-1), fields["tiny"])
	assert.Equal(t, int16(-2), fields["small"])
	assert.Equal(t, int32(-5), fields["spin"])
	assert.Equal(t, "dead", fields["blob"])
	assert.Equal(t, "1970-01-01T00:00:00.000", fields["when"])
	assert.Equal(t, "2000-01-01T00:00:00.000", fields["slot"])
}

func TestDecodeAssetPrecision(t *testing.T) {
	t.Parallel()

	def := &Def{
		Structs: []Struct{
			{Name: "pay", Fields: []Field{
				{Name: "amount", Type: "asset"},
			}},
		},
	}

	decoder := NewDecoder(def)

	fields, err := decoder.DecodeStruct("pay",
		(&packer{}).uint(105, 8).uint(symbolValue(2, "USD"), 8).buf)
	require.NoError(t, err)
	assert.Equal(t, "1.05 USD", fields["amount"])

	fields, err = decoder.DecodeStruct("pay",
		(&packer{}).uint(3, 8).uint(symbolValue(0, "BLOCK"), 8).buf)
	require.NoError(t, err)
	assert.Equal(t, "3 BLOCK", fields["amount"])
}

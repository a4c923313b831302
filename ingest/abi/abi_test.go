package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnpackDef(t *testing.T) {
	t.Parallel()

	blob := packMinimalDef(t, "hi", "nm", "string", "hi")

	def, err := UnpackDef(blob)
	require.NoError(t, err)

	assert.Equal(t, "eosio::abi/1.1", def.Version)
	require.Len(t, def.Structs, 1)
	assert.Equal(t, "hi", def.Structs[0].Name)
	require.Len(t, def.Structs[0].Fields, 1)
	assert.Equal(t, "nm", def.Structs[0].Fields[0].Name)
	assert.Equal(t, "string", def.Structs[0].Fields[0].Type)
	require.Len(t, def.Actions, 1)
	assert.Equal(t, "hi", def.Actions[0].Name)
	assert.Equal(t, "hi", def.Actions[0].Type)

	// the unpacked schema must itself be usable for decoding
	fields, err := NewDecoder(def).DecodeAction("hi", (&packer{}).str("world").buf)
	require.NoError(t, err)
	assert.Equal(t, "world", fields["nm"])
}

func TestUnpackDefTruncated(t *testing.T) {
	t.Parallel()

	blob := packMinimalDef(t, "hi", "nm", "string", "hi")

	_, err := UnpackDef(blob[:3])
	require.Error(t, err)
}

func TestRedefineSetABI(t *testing.T) {
	t.Parallel()

	def := &Def{
		Structs: []Struct{
			{Name: "setabi", Fields: []Field{
				{Name: "account", Type: "name"},
				{Name: "abi", Type: "bytes"},
			}},
		},
		Actions: []Action{
			{Name: "setabi", Type: "setabi"},
		},
	}

	require.True(t, RedefineSetABI(def))
	assert.Equal(t, "abi_def", def.Structs[0].Fields[1].Type)

	// already rewritten, nothing left to do
	require.False(t, RedefineSetABI(def))

	require.False(t, RedefineSetABI(&Def{
		Structs: []Struct{
			{Name: "transfer", Fields: []Field{{Name: "from", Type: "name"}}},
		},
	}))
}

func TestSpecializedSetABIDecode(t *testing.T) {
	t.Parallel()

	def := &Def{
		Structs: []Struct{
			{Name: "setabi", Fields: []Field{
				{Name: "account", Type: "name"},
				{Name: "abi", Type: "bytes"},
			}},
		},
		Actions: []Action{
			{Name: "setabi", Type: "setabi"},
		},
	}

	require.True(t, RedefineSetABI(def))

	decoder := NewDecoder(def)
	decoder.SpecializeABIDef()

	embedded := packMinimalDef(t, "hi", "nm", "string", "hi")
	payload := (&packer{}).name(t, "alice").bytes(embedded).buf

	fields, err := decoder.DecodeAction("setabi", payload)
	require.NoError(t, err)

	assert.Equal(t, "alice", fields["account"])

	abiField, ok := fields["abi"].(*Def)
	require.True(t, ok)
	assert.Equal(t, "eosio::abi/1.1", abiField.Version)
	require.Len(t, abiField.Structs, 1)
	assert.Equal(t, "hi", abiField.Structs[0].Name)
}

func TestUnpackSetABI(t *testing.T) {
	t.Parallel()

	embedded := packMinimalDef(t, "hi", "nm", "string", "hi")
	payload := (&packer{}).name(t, "alice").bytes(embedded).buf

	account, def, err := UnpackSetABI(payload)
	require.NoError(t, err)
	assert.Equal(t, "alice", account)
	require.NotNil(t, def)
	assert.Equal(t, "eosio::abi/1.1", def.Version)
}

func TestUnpackSetABICleared(t *testing.T) {
	t.Parallel()

	payload := (&packer{}).name(t, "alice").bytes(nil).buf

	account, def, err := UnpackSetABI(payload)
	require.NoError(t, err)
	assert.Equal(t, "alice", account)
	assert.Nil(t, def)
}

func TestUnpackNewAccount(t *testing.T) {
	t.Parallel()

	payload := (&packer{}).name(t, "eosio").name(t, "alice").buf
	// authority data after the names is ignored
	payload = append(payload, 0x01, 0x02, 0x03)

	creator, name, err := UnpackNewAccount(payload)
	require.NoError(t, err)
	assert.Equal(t, "eosio", creator)
	assert.Equal(t, "alice", name)

	_, _, err = UnpackNewAccount(payload[:7])
	require.Error(t, err)
}

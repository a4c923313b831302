package abi

import (
	"encoding/json"
	"fmt"
)

// Def is the per-account schema describing how binary action payloads decode
// into structured fields. It is stored as json inside the account document.
type Def struct {
	Version string   `json:"version"`
	Types   []Type   `json:"types,omitempty"`
	Structs []Struct `json:"structs,omitempty"`
	Actions []Action `json:"actions,omitempty"`
	Tables  []Table  `json:"tables,omitempty"`
}

type Type struct {
	NewTypeName string `json:"new_type_name"`
	Type        string `json:"type"`
}

type Struct struct {
	Name   string  `json:"name"`
	Base   string  `json:"base,omitempty"`
	Fields []Field `json:"fields"`
}

type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Action struct {
	Name              string `json:"name"`
	Type              string `json:"type"`
	RicardianContract string `json:"ricardian_contract,omitempty"`
}

type Table struct {
	Name      string   `json:"name"`
	IndexType string   `json:"index_type,omitempty"`
	KeyNames  []string `json:"key_names,omitempty"`
	KeyTypes  []string `json:"key_types,omitempty"`
	Type      string   `json:"type"`
}

// ParseDef decodes a schema from its json representation
func ParseDef(data []byte) (*Def, error) {
	def := &Def{}
	if err := json.Unmarshal(data, def); err != nil {
		return nil, fmt.Errorf("could not parse schema: %w", err)
	}

	return def, nil
}

// RedefineSetABI rewrites the schema-update action's own embedded schema
// field from an opaque byte blob to a structured schema object. Applied once,
// at decoder construction, for the system account only. Returns true if the
// field was rewritten, in which case the decoder must have the abi_def
// unpacker registered (see Decoder.SpecializeABIDef).
func RedefineSetABI(def *Def) bool {
	for i := range def.Structs {
		if def.Structs[i].Name != "setabi" {
			continue
		}

		for j := range def.Structs[i].Fields {
			f := &def.Structs[i].Fields[j]
			if f.Name == "abi" && f.Type == "bytes" {
				f.Type = "abi_def"

				return true
			}
		}
	}

	return false
}

// defDef describes the binary layout of Def itself, so a binary-packed schema
// (the payload of a schema-update action) can be unpacked with the same
// decoder machinery as any other struct
func defDef() *Def {
	return &Def{
		Version: "chainindex::abi/1.0",
		Structs: []Struct{
			{Name: "type_def", Fields: []Field{
				{Name: "new_type_name", Type: "string"},
				{Name: "type", Type: "string"},
			}},
			{Name: "field_def", Fields: []Field{
				{Name: "name", Type: "string"},
				{Name: "type", Type: "string"},
			}},
			{Name: "struct_def", Fields: []Field{
				{Name: "name", Type: "string"},
				{Name: "base", Type: "string"},
				{Name: "fields", Type: "field_def[]"},
			}},
			{Name: "action_def", Fields: []Field{
				{Name: "name", Type: "name"},
				{Name: "type", Type: "string"},
				{Name: "ricardian_contract", Type: "string"},
			}},
			{Name: "table_def", Fields: []Field{
				{Name: "name", Type: "name"},
				{Name: "index_type", Type: "string"},
				{Name: "key_names", Type: "string[]"},
				{Name: "key_types", Type: "string[]"},
				{Name: "type", Type: "string"},
			}},
			{Name: "clause_pair", Fields: []Field{
				{Name: "id", Type: "string"},
				{Name: "body", Type: "string"},
			}},
			{Name: "error_message", Fields: []Field{
				{Name: "error_code", Type: "uint64"},
				{Name: "error_msg", Type: "string"},
			}},
			{Name: "extension", Fields: []Field{
				{Name: "type", Type: "uint16"},
				{Name: "data", Type: "bytes"},
			}},
			{Name: "abi_def", Fields: []Field{
				{Name: "version", Type: "string"},
				{Name: "types", Type: "type_def[]"},
				{Name: "structs", Type: "struct_def[]"},
				{Name: "actions", Type: "action_def[]"},
				{Name: "tables", Type: "table_def[]"},
				{Name: "ricardian_clauses", Type: "clause_pair[]"},
				{Name: "error_messages", Type: "error_message[]"},
				{Name: "abi_extensions", Type: "extension[]"},
			}},
		},
	}
}

// UnpackDef decodes a binary-packed schema into a Def
func UnpackDef(data []byte) (*Def, error) {
	decoder := NewDecoder(defDef())

	fields, err := decoder.DecodeStruct("abi_def", data)
	if err != nil {
		return nil, fmt.Errorf("could not unpack schema: %w", err)
	}

	// remap the generic field map into the typed Def through json
	bytes, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}

	return ParseDef(bytes)
}

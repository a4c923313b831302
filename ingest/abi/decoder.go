package abi

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	ErrUnknownAction = errors.New("action not present in schema")
	ErrUnknownType   = errors.New("type not present in schema")
)

// SpecialDecodeFunc decodes one field of the named type straight off the
// reader, bypassing the generic type resolution
type SpecialDecodeFunc func(r *reader) (interface{}, error)

// Decoder turns binary action payloads into json-able field maps according
// to a schema Def. A Decoder is immutable after construction and safe for
// reuse across payloads.
type Decoder struct {
	typedefs    map[string]string
	structs     map[string]Struct
	actions     map[string]string
	specialized map[string]SpecialDecodeFunc
}

func NewDecoder(def *Def) *Decoder {
	d := &Decoder{
		typedefs:    make(map[string]string, len(def.Types)),
		structs:     make(map[string]Struct, len(def.Structs)),
		actions:     make(map[string]string, len(def.Actions)),
		specialized: map[string]SpecialDecodeFunc{},
	}

	for _, t := range def.Types {
		d.typedefs[t.NewTypeName] = t.Type
	}

	for _, s := range def.Structs {
		d.structs[s.Name] = s
	}

	for _, a := range def.Actions {
		d.actions[a.Name] = a.Type
	}

	return d
}

// SpecializeABIDef registers the self-describing schema unpacker for the
// abi_def type. The embedded schema travels as a length-prefixed byte blob
// which is itself a binary-packed Def.
func (d *Decoder) SpecializeABIDef() {
	d.specialized["abi_def"] = func(r *reader) (interface{}, error) {
		blob, err := r.readBytes()
		if err != nil {
			return nil, err
		}

		def, err := UnpackDef(blob)
		if err != nil {
			return nil, err
		}

		return def, nil
	}
}

// DecodeAction decodes the binary payload of the named action
func (d *Decoder) DecodeAction(action string, data []byte) (map[string]interface{}, error) {
	structName, exists := d.actions[action]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}

	return d.DecodeStruct(structName, data)
}

// DecodeStruct decodes the binary payload of the named struct
func (d *Decoder) DecodeStruct(name string, data []byte) (map[string]interface{}, error) {
	r := &reader{data: data}

	result, err := d.decodeStruct(r, name)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (d *Decoder) decodeStruct(r *reader, name string) (map[string]interface{}, error) {
	s, exists := d.structs[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}

	result := map[string]interface{}{}

	if s.Base != "" {
		base, err := d.decodeStruct(r, s.Base)
		if err != nil {
			return nil, err
		}

		for k, v := range base {
			result[k] = v
		}
	}

	for _, field := range s.Fields {
		// only binary-extension fields may be absent from older payloads,
		// anything else missing means the payload is truncated
		if r.remaining() == 0 && strings.HasSuffix(d.resolveType(field.Type), "$") {
			break
		}

		value, err := d.decodeType(r, field.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", name, field.Name, err)
		}

		result[field.Name] = value
	}

	return result, nil
}

func (d *Decoder) decodeType(r *reader, typeName string) (interface{}, error) {
	typeName = d.resolveType(typeName)

	switch {
	case strings.HasSuffix(typeName, "[]"):
		return d.decodeArray(r, strings.TrimSuffix(typeName, "[]"))
	case strings.HasSuffix(typeName, "?"):
		present, err := r.readByte()
		if err != nil {
			return nil, err
		}

		if present == 0 {
			return nil, nil
		}

		return d.decodeType(r, strings.TrimSuffix(typeName, "?"))
	case strings.HasSuffix(typeName, "$"):
		// binary extension, only present if any payload remains
		if r.remaining() == 0 {
			return nil, nil
		}

		return d.decodeType(r, strings.TrimSuffix(typeName, "$"))
	}

	if fn, exists := d.specialized[typeName]; exists {
		return fn(r)
	}

	if value, handled, err := decodeBuiltin(r, typeName); handled {
		return value, err
	}

	return d.decodeStruct(r, typeName)
}

func (d *Decoder) decodeArray(r *reader, elemType string) (interface{}, error) {
	count, err := r.readVaruint32()
	if err != nil {
		return nil, err
	}

	result := make([]interface{}, 0, count)

	for i := uint32(0); i < count; i++ {
		value, err := d.decodeType(r, elemType)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}

		result = append(result, value)
	}

	return result, nil
}

func (d *Decoder) resolveType(typeName string) string {
	// typedef chains are short, guard against cycles anyway
	for i := 0; i < 16; i++ {
		next, exists := d.typedefs[typeName]
		if !exists {
			return typeName
		}

		typeName = next
	}

	return typeName
}

//nolint:gocyclo
func decodeBuiltin(r *reader, typeName string) (interface{}, bool, error) {
	switch typeName {
	case "bool":
		b, err := r.readByte()

		return b != 0, true, err
	case "int8":
		b, err := r.readByte()

		return int8(b), true, err
	case "uint8":
		b, err := r.readByte()

		return b, true, err
	case "int16":
		v, err := r.readUint(2)

		return int16(v), true, err
	case "uint16":
		v, err := r.readUint(2)

		return uint16(v), true, err
	case "int32":
		v, err := r.readUint(4)

		return int32(v), true, err
	case "uint32":
		v, err := r.readUint(4)

		return uint32(v), true, err
	case "int64":
		v, err := r.readUint(8)

		return int64(v), true, err
	case "uint64":
		v, err := r.readUint(8)

		return v, true, err
	case "varuint32":
		v, err := r.readVaruint32()

		return v, true, err
	case "varint32":
		v, err := r.readVarint32()

		return v, true, err
	case "float32":
		v, err := r.readUint(4)

		return math.Float32frombits(uint32(v)), true, err
	case "float64":
		v, err := r.readUint(8)

		return math.Float64frombits(v), true, err
	case "string":
		s, err := r.readString()

		return s, true, err
	case "bytes":
		b, err := r.readBytes()

		return hex.EncodeToString(b), true, err
	case "name", "account_name", "action_name", "permission_name", "table_name", "scope_name":
		v, err := r.readUint(8)

		return NameToString(v), true, err
	case "checksum160":
		b, err := r.read(20)

		return hex.EncodeToString(b), true, err
	case "checksum256", "transaction_id_type", "block_id_type":
		b, err := r.read(32)

		return hex.EncodeToString(b), true, err
	case "checksum512":
		b, err := r.read(64)

		return hex.EncodeToString(b), true, err
	case "public_key":
		b, err := r.read(34)

		return hex.EncodeToString(b), true, err
	case "signature":
		b, err := r.read(66)

		return hex.EncodeToString(b), true, err
	case "symbol":
		v, err := r.readUint(8)
		if err != nil {
			return nil, true, err
		}

		return symbolToString(v), true, nil
	case "symbol_code":
		v, err := r.readUint(8)
		if err != nil {
			return nil, true, err
		}

		return symbolCodeToString(v), true, nil
	case "asset":
		return decodeAsset(r)
	case "time_point":
		v, err := r.readUint(8)
		if err != nil {
			return nil, true, err
		}

		return time.UnixMicro(int64(v)).UTC().Format(timeFormat), true, nil
	case "time_point_sec":
		v, err := r.readUint(4)
		if err != nil {
			return nil, true, err
		}

		return time.Unix(int64(uint32(v)), 0).UTC().Format(timeFormat), true, nil
	case "block_timestamp_type":
		v, err := r.readUint(4)
		if err != nil {
			return nil, true, err
		}

		ms := blockTimestampEpochMs + int64(uint32(v))*blockIntervalMs

		return time.UnixMilli(ms).UTC().Format(timeFormat), true, nil
	}

	return nil, false, nil
}

const (
	timeFormat = "2006-01-02T15:04:05.000"

	// block timestamps count half-second slots since 2000-01-01T00:00:00Z
	blockTimestampEpochMs = int64(946684800000)
	blockIntervalMs       = int64(500)
)

func symbolCodeToString(value uint64) string {
	var sb strings.Builder

	for value != 0 {
		c := byte(value & 0xff)
		if c == 0 {
			break
		}

		sb.WriteByte(c)
		value >>= 8
	}

	return sb.String()
}

func symbolToString(value uint64) string {
	precision := value & 0xff

	return fmt.Sprintf("%d,%s", precision, symbolCodeToString(value>>8))
}

func decodeAsset(r *reader) (interface{}, bool, error) {
	amount, err := r.readUint(8)
	if err != nil {
		return nil, true, err
	}

	symbol, err := r.readUint(8)
	if err != nil {
		return nil, true, err
	}

	precision := int(symbol & 0xff)
	code := symbolCodeToString(symbol >> 8)

	whole := int64(amount)
	negative := whole < 0

	if negative {
		whole = -whole
	}

	divisor := int64(1)
	for i := 0; i < precision; i++ {
		divisor *= 10
	}

	var sb strings.Builder

	if negative {
		sb.WriteByte('-')
	}

	if precision > 0 {
		sb.WriteString(fmt.Sprintf("%d.%0*d", whole/divisor, precision, whole%divisor))
	} else {
		sb.WriteString(fmt.Sprintf("%d", whole))
	}

	sb.WriteByte(' ')
	sb.WriteString(code)

	return sb.String(), true, nil
}

type reader struct {
	data []byte
	pos  int
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) read(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, fmt.Errorf("payload truncated: need %d bytes, have %d", n, r.remaining())
	}

	result := r.data[r.pos : r.pos+n]
	r.pos += n

	return result, nil
}

func (r *reader) readByte() (byte, error) {
	b, err := r.read(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

func (r *reader) readUint(n int) (uint64, error) {
	b, err := r.read(n)
	if err != nil {
		return 0, err
	}

	var result uint64
	for i := n - 1; i >= 0; i-- {
		result = result<<8 | uint64(b[i])
	}

	return result, nil
}

func (r *reader) readVaruint32() (uint32, error) {
	var (
		result uint64
		shift  uint
	)

	for {
		b, err := r.readByte()
		if err != nil {
			return 0, err
		}

		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}

		shift += 7
		if shift >= 35 {
			return 0, errors.New("varuint32 overflow")
		}
	}

	if result > math.MaxUint32 {
		return 0, errors.New("varuint32 overflow")
	}

	return uint32(result), nil
}

func (r *reader) readVarint32() (int32, error) {
	v, err := r.readVaruint32()
	if err != nil {
		return 0, err
	}

	// zigzag
	return int32(v>>1) ^ -int32(v&1), nil
}

func (r *reader) readBytes() ([]byte, error) {
	n, err := r.readVaruint32()
	if err != nil {
		return nil, err
	}

	return r.read(int(n))
}

func (r *reader) readString() (string, error) {
	b, err := r.readBytes()
	if err != nil {
		return "", err
	}

	return string(b), nil
}

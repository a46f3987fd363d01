package gpb

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ValueKind identifies which oneof value TelemetryField carries. Cisco's
// schema defines more value types (sint32/sint64/double/float) than the
// VRRP extraction path uses; only the kinds actually produced for VRRP
// records are represented here, and unrecognised value fields on the wire
// are skipped rather than rejected.
type ValueKind uint8

const (
	ValueNone ValueKind = iota
	ValueBytes
	ValueString
	ValueBool
	ValueUint32
	ValueUint64
)

// TelemetryField is one node of the self-describing-gpb key/value tree:
// either a leaf carrying a scalar value, or a branch carrying nested Fields
// (as used for the "keys" and "content" wrapper fields of a VRRP record).
type TelemetryField struct {
	Timestamp uint64
	Name      string

	ValueKind   ValueKind
	BytesValue  []byte
	StringValue string
	BoolValue   bool
	Uint32Value uint32
	Uint64Value uint64

	Fields []TelemetryField
}

const (
	fieldNumTimestamp   = 1
	fieldNumName        = 3
	fieldNumBytesValue  = 4
	fieldNumStringValue = 5
	fieldNumBoolValue   = 6
	fieldNumUint32Value = 7
	fieldNumUint64Value = 8
	fieldNumNestedField = 13
)

// Marshal encodes f to its wire representation.
func (f *TelemetryField) Marshal() ([]byte, error) {
	var b []byte
	if f.Timestamp != 0 {
		b = protowire.AppendTag(b, fieldNumTimestamp, protowire.VarintType)
		b = protowire.AppendVarint(b, f.Timestamp)
	}
	if f.Name != "" {
		b = protowire.AppendTag(b, fieldNumName, protowire.BytesType)
		b = protowire.AppendString(b, f.Name)
	}
	switch f.ValueKind {
	case ValueBytes:
		b = protowire.AppendTag(b, fieldNumBytesValue, protowire.BytesType)
		b = protowire.AppendBytes(b, f.BytesValue)
	case ValueString:
		b = protowire.AppendTag(b, fieldNumStringValue, protowire.BytesType)
		b = protowire.AppendString(b, f.StringValue)
	case ValueBool:
		b = protowire.AppendTag(b, fieldNumBoolValue, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(f.BoolValue))
	case ValueUint32:
		b = protowire.AppendTag(b, fieldNumUint32Value, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(f.Uint32Value))
	case ValueUint64:
		b = protowire.AppendTag(b, fieldNumUint64Value, protowire.VarintType)
		b = protowire.AppendVarint(b, f.Uint64Value)
	}
	for i := range f.Fields {
		nb, err := f.Fields[i].Marshal()
		if err != nil {
			return nil, fmt.Errorf("marshaling fields[%d] (%s): %w", i, f.Fields[i].Name, err)
		}
		b = protowire.AppendTag(b, fieldNumNestedField, protowire.BytesType)
		b = protowire.AppendBytes(b, nb)
	}
	return b, nil
}

// Unmarshal decodes a TelemetryField from b.
func (f *TelemetryField) Unmarshal(b []byte) error {
	*f = TelemetryField{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("telemetry_field: invalid tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch num {
		case fieldNumTimestamp:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("telemetry_field: invalid timestamp: %w", protowire.ParseError(n))
			}
			f.Timestamp = v
			b = b[n:]
		case fieldNumName:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("telemetry_field: invalid name: %w", protowire.ParseError(n))
			}
			f.Name = string(v)
			b = b[n:]
		case fieldNumBytesValue:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("telemetry_field: invalid bytes_value: %w", protowire.ParseError(n))
			}
			f.ValueKind = ValueBytes
			f.BytesValue = append([]byte(nil), v...)
			b = b[n:]
		case fieldNumStringValue:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("telemetry_field: invalid string_value: %w", protowire.ParseError(n))
			}
			f.ValueKind = ValueString
			f.StringValue = string(v)
			b = b[n:]
		case fieldNumBoolValue:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("telemetry_field: invalid bool_value: %w", protowire.ParseError(n))
			}
			f.ValueKind = ValueBool
			f.BoolValue = protowire.DecodeBool(v)
			b = b[n:]
		case fieldNumUint32Value:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("telemetry_field: invalid uint32_value: %w", protowire.ParseError(n))
			}
			f.ValueKind = ValueUint32
			f.Uint32Value = uint32(v)
			b = b[n:]
		case fieldNumUint64Value:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("telemetry_field: invalid uint64_value: %w", protowire.ParseError(n))
			}
			f.ValueKind = ValueUint64
			f.Uint64Value = v
			b = b[n:]
		case fieldNumNestedField:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("telemetry_field: invalid nested field: %w", protowire.ParseError(n))
			}
			var nested TelemetryField
			if err := nested.Unmarshal(v); err != nil {
				return fmt.Errorf("telemetry_field: nested field: %w", err)
			}
			f.Fields = append(f.Fields, nested)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("telemetry_field: skipping unknown field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}

// Get returns the first immediate child field named name, mirroring the
// original implementation's gpbkv field lookup helper.
func Get(fields []TelemetryField, name string) (TelemetryField, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return TelemetryField{}, false
}

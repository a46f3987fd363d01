// Package gpb implements the self-describing-GPB telemetry wire messages
// used by Cisco's model-driven telemetry dialout protocol: Telemetry and its
// recursive TelemetryField key/value tree. Only the fields the VRRP
// extraction path in internal/telemetry needs are decoded; everything else
// on the wire is skipped without error so unrelated telemetry subscriptions
// never break the stream.
package gpb

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Telemetry is the top-level self-describing-gpb message, per the
// encoding_path/data_gpbkv shape of Cisco's telemetry.proto.
type Telemetry struct {
	EncodingPath        string
	CollectionID        uint64
	CollectionStartTime uint64
	MsgTimestamp        uint64
	CollectionEndTime   uint64
	DataGPBKV           []TelemetryField
}

const (
	telemetryFieldEncodingPath        = 3
	telemetryFieldCollectionID        = 4
	telemetryFieldCollectionStartTime = 5
	telemetryFieldMsgTimestamp        = 6
	telemetryFieldCollectionEndTime   = 8
	telemetryFieldDataGPBKV           = 11
)

// Marshal encodes t to its self-describing-gpb wire representation.
func (t *Telemetry) Marshal() ([]byte, error) {
	var b []byte
	if t.EncodingPath != "" {
		b = protowire.AppendTag(b, telemetryFieldEncodingPath, protowire.BytesType)
		b = protowire.AppendString(b, t.EncodingPath)
	}
	if t.CollectionID != 0 {
		b = protowire.AppendTag(b, telemetryFieldCollectionID, protowire.VarintType)
		b = protowire.AppendVarint(b, t.CollectionID)
	}
	if t.CollectionStartTime != 0 {
		b = protowire.AppendTag(b, telemetryFieldCollectionStartTime, protowire.VarintType)
		b = protowire.AppendVarint(b, t.CollectionStartTime)
	}
	if t.MsgTimestamp != 0 {
		b = protowire.AppendTag(b, telemetryFieldMsgTimestamp, protowire.VarintType)
		b = protowire.AppendVarint(b, t.MsgTimestamp)
	}
	if t.CollectionEndTime != 0 {
		b = protowire.AppendTag(b, telemetryFieldCollectionEndTime, protowire.VarintType)
		b = protowire.AppendVarint(b, t.CollectionEndTime)
	}
	for i := range t.DataGPBKV {
		fb, err := t.DataGPBKV[i].Marshal()
		if err != nil {
			return nil, fmt.Errorf("marshaling data_gpbkv[%d]: %w", i, err)
		}
		b = protowire.AppendTag(b, telemetryFieldDataGPBKV, protowire.BytesType)
		b = protowire.AppendBytes(b, fb)
	}
	return b, nil
}

// Unmarshal decodes a self-describing-gpb Telemetry message from b. Unknown
// fields (any encoding_path this process has no handler for will still
// carry plenty of fields it doesn't recognize) are skipped, not rejected.
func (t *Telemetry) Unmarshal(b []byte) error {
	*t = Telemetry{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("telemetry: invalid tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch num {
		case telemetryFieldEncodingPath:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("telemetry: invalid encoding_path: %w", protowire.ParseError(n))
			}
			t.EncodingPath = string(v)
			b = b[n:]
		case telemetryFieldCollectionID:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("telemetry: invalid collection_id: %w", protowire.ParseError(n))
			}
			t.CollectionID = v
			b = b[n:]
		case telemetryFieldCollectionStartTime:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("telemetry: invalid collection_start_time: %w", protowire.ParseError(n))
			}
			t.CollectionStartTime = v
			b = b[n:]
		case telemetryFieldMsgTimestamp:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("telemetry: invalid msg_timestamp: %w", protowire.ParseError(n))
			}
			t.MsgTimestamp = v
			b = b[n:]
		case telemetryFieldCollectionEndTime:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("telemetry: invalid collection_end_time: %w", protowire.ParseError(n))
			}
			t.CollectionEndTime = v
			b = b[n:]
		case telemetryFieldDataGPBKV:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("telemetry: invalid data_gpbkv entry: %w", protowire.ParseError(n))
			}
			var f TelemetryField
			if err := f.Unmarshal(v); err != nil {
				return fmt.Errorf("telemetry: data_gpbkv entry: %w", err)
			}
			t.DataGPBKV = append(t.DataGPBKV, f)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("telemetry: skipping unknown field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}

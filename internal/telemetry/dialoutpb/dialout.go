// Package dialoutpb is a hand-maintained, generated-style package for the
// gRPCMdtDialout bidi-streaming service defined by Cisco's
// cisco_grpc_dialout.proto. It avoids full protoc-descriptor-based
// reflection: MdtDialoutArgs is a flat message with no nested structure, so
// it is represented as a plain Go struct with its own wire codec rather
// than a generated protoreflect.ProtoMessage.
package dialoutpb

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// MdtDialoutArgs is the single message type exchanged on the MdtDialout
// stream in both directions (the router sends ReqId+Data; a reply of
// ReqId+Errors is defined by the protocol but never produced by this
// receiver, matching the original implementation's always-empty replies).
type MdtDialoutArgs struct {
	ReqId  int64
	Data   []byte
	Errors string
}

const (
	argsFieldReqId  = 1
	argsFieldData   = 2
	argsFieldErrors = 3
)

// Marshal encodes m to its wire representation.
func (m *MdtDialoutArgs) Marshal() ([]byte, error) {
	var b []byte
	if m.ReqId != 0 {
		b = protowire.AppendTag(b, argsFieldReqId, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.ReqId))
	}
	if len(m.Data) > 0 {
		b = protowire.AppendTag(b, argsFieldData, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Data)
	}
	if m.Errors != "" {
		b = protowire.AppendTag(b, argsFieldErrors, protowire.BytesType)
		b = protowire.AppendString(b, m.Errors)
	}
	return b, nil
}

// Unmarshal decodes m from its wire representation.
func (m *MdtDialoutArgs) Unmarshal(b []byte) error {
	*m = MdtDialoutArgs{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("mdt_dialout_args: invalid tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch num {
		case argsFieldReqId:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("mdt_dialout_args: invalid req_id: %w", protowire.ParseError(n))
			}
			m.ReqId = int64(v)
			b = b[n:]
		case argsFieldData:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("mdt_dialout_args: invalid data: %w", protowire.ParseError(n))
			}
			m.Data = append([]byte(nil), v...)
			b = b[n:]
		case argsFieldErrors:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("mdt_dialout_args: invalid errors: %w", protowire.ParseError(n))
			}
			m.Errors = string(v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("mdt_dialout_args: skipping unknown field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}

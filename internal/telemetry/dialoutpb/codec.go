package dialoutpb

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// wireMessage is implemented by any message this codec can (de)serialise.
// MdtDialoutArgs is the only one the dialout protocol needs.
type wireMessage interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

// codec replaces grpc-go's default "proto" codec with one driven by
// protowire directly, since this package has no generated
// protoreflect.ProtoMessage implementations to hand to the real one. A real
// MDT dialout peer speaks plain gRPC with no content-subtype, so it expects
// exactly the codec registered under the "proto" name.
type codec struct{}

func (codec) Name() string { return "proto" }

func (codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(wireMessage)
	if !ok {
		return nil, fmt.Errorf("dialoutpb: cannot marshal %T, want a wireMessage", v)
	}
	return m.Marshal()
}

func (codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(wireMessage)
	if !ok {
		return fmt.Errorf("dialoutpb: cannot unmarshal into %T, want a wireMessage", v)
	}
	return m.Unmarshal(data)
}

func init() {
	encoding.RegisterCodec(codec{})
}

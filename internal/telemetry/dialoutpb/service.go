package dialoutpb

import "google.golang.org/grpc"

// GRPCMdtDialoutServer is the server API for the gRPCMdtDialout service, as
// defined by cisco_grpc_dialout.proto.
type GRPCMdtDialoutServer interface {
	MdtDialout(GRPCMdtDialout_MdtDialoutServer) error
}

// GRPCMdtDialout_MdtDialoutServer is the bidi-streaming handle a
// GRPCMdtDialoutServer implementation uses to receive telemetry frames and
// (unusedly, per the protocol) send replies.
type GRPCMdtDialout_MdtDialoutServer interface {
	Send(*MdtDialoutArgs) error
	Recv() (*MdtDialoutArgs, error)
	grpc.ServerStream
}

type mdtDialoutServerStream struct {
	grpc.ServerStream
}

func (x *mdtDialoutServerStream) Send(m *MdtDialoutArgs) error {
	return x.ServerStream.SendMsg(m)
}

func (x *mdtDialoutServerStream) Recv() (*MdtDialoutArgs, error) {
	m := new(MdtDialoutArgs)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func _GRPCMdtDialout_MdtDialout_Handler(srv any, stream grpc.ServerStream) error {
	return srv.(GRPCMdtDialoutServer).MdtDialout(&mdtDialoutServerStream{stream})
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: "cisco_grpc_dialout.gRPCMdtDialout",
	HandlerType: (*GRPCMdtDialoutServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "MdtDialout",
			Handler:       _GRPCMdtDialout_MdtDialout_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "cisco_grpc_dialout.proto",
}

// RegisterGRPCMdtDialoutServer registers srv with s under the gRPCMdtDialout
// service descriptor.
func RegisterGRPCMdtDialoutServer(s grpc.ServiceRegistrar, srv GRPCMdtDialoutServer) {
	s.RegisterService(&serviceDesc, srv)
}

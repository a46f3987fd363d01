package telemetry

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc/peer"
)

func peerAddr(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}
	return p.Addr.String()
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}

// Package capture provides the frame sources a worker pool consumes:
// a live pcap device or an offline pcap/pcapng file. Both share the same
// Source contract, so the worker pool never needs to know which one it
// was handed.
package capture

import (
	"context"

	"github.com/google/gopacket/layers"

	"centrifuge/internal/centrifuge"
)

// Source produces frames one at a time. NextPacket returns ok=false (with
// a nil error) once the source is exhausted, e.g. at end of file; it
// never blocks past ctx's cancellation. Source implementations are not
// required to be safe for concurrent use — the worker pool guards every
// call with its own mutex (see internal/worker).
type Source interface {
	NextPacket(ctx context.Context) (frame centrifuge.Frame, ok bool, err error)
	LinkType() layers.LinkType
	Close() error
}

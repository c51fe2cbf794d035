package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"centrifuge/internal/centrifuge"
	"centrifuge/internal/errs"
)

const snaplen = 65536

// Live is a Source backed by a live pcap device handle.
type Live struct {
	handle *pcap.Handle
}

// NewLive opens device for live capture. promisc requests promiscuous
// mode; device link types other than Ethernet, raw IP, or loopback are
// rejected, since the classifier only knows how to dispatch those.
func NewLive(device string, promisc bool) (*Live, error) {
	handle, err := pcap.OpenLive(device, snaplen, promisc, pcap.BlockForever)
	if err != nil {
		return nil, errs.New(err, errs.ErrCodeCapture, "capture", "OpenLive").WithContext(device)
	}

	switch handle.LinkType() {
	case layers.LinkTypeEthernet, layers.LinkTypeRaw, layers.LinkTypeLoop, layers.LinkTypeNull:
	default:
		handle.Close()
		return nil, errs.New(
			fmt.Errorf("unsupported link type %v", handle.LinkType()),
			errs.ErrCodeConfiguration, "capture", "OpenLive",
		).WithContext(device)
	}

	return &Live{handle: handle}, nil
}

// NextPacket blocks (subject to ctx) until a packet is captured.
func (l *Live) NextPacket(ctx context.Context) (centrifuge.Frame, bool, error) {
	type result struct {
		data []byte
		ci   gopacket.CaptureInfo
		err  error
	}

	done := make(chan result, 1)
	go func() {
		data, ci, err := l.handle.ReadPacketData()
		done <- result{data: data, ci: ci, err: err}
	}()

	select {
	case <-ctx.Done():
		return centrifuge.Frame{}, false, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return centrifuge.Frame{}, false, errs.New(r.err, errs.ErrCodeCapture, "capture", "ReadPacketData")
		}
		ts := r.ci.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		return centrifuge.Frame{Timestamp: ts, Data: r.data}, true, nil
	}
}

// LinkType reports the device's link-layer type.
func (l *Live) LinkType() layers.LinkType {
	return l.handle.LinkType()
}

// Close releases the pcap handle.
func (l *Live) Close() error {
	l.handle.Close()
	return nil
}

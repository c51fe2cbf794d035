package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"centrifuge/internal/centrifuge"
	"centrifuge/internal/errs"
)

// File is a Source backed by an offline pcap or pcapng file. Reads from a
// File are not expected to be parallelized the way a live capture's
// worker pool can be: the --read flag forces the pool down to a single
// worker (see internal/cmd), so ordering in the file is preserved.
type File struct {
	f      *os.File
	reader pcapReader
}

type pcapReader interface {
	ReadPacketData() (data []byte, timestamp time.Time, err error)
	LinkType() layers.LinkType
}

// NewFile opens path, auto-detecting classic pcap vs pcapng framing.
func NewFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.New(err, errs.ErrCodeIO, "capture", "NewFile").WithContext(path)
	}

	ngReader, err := pcapgo.NewNgReader(f, pcapgo.DefaultNgReaderOptions)
	if err == nil {
		switch ngReader.LinkType() {
		case layers.LinkTypeEthernet, layers.LinkTypeRaw, layers.LinkTypeLoop, layers.LinkTypeNull:
			return &File{f: f, reader: ngAdapter{ngReader}}, nil
		}
		f.Close()
		return nil, errs.New(
			fmt.Errorf("unsupported link type %v", ngReader.LinkType()),
			errs.ErrCodeConfiguration, "capture", "NewFile",
		).WithContext(path)
	}

	if _, seekErr := f.Seek(0, io.SeekStart); seekErr != nil {
		f.Close()
		return nil, errs.New(seekErr, errs.ErrCodeIO, "capture", "NewFile").WithContext(path)
	}

	classicReader, err := pcapgo.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errs.New(err, errs.ErrCodeIO, "capture", "NewFile").WithContext(path)
	}

	switch classicReader.LinkType() {
	case layers.LinkTypeEthernet, layers.LinkTypeRaw, layers.LinkTypeLoop, layers.LinkTypeNull:
	default:
		f.Close()
		return nil, errs.New(
			fmt.Errorf("unsupported link type %v", classicReader.LinkType()),
			errs.ErrCodeConfiguration, "capture", "NewFile",
		).WithContext(path)
	}

	return &File{f: f, reader: classicAdapter{classicReader}}, nil
}

// NextPacket returns the next frame in the file. ok is false with a nil
// error at end of file.
func (fl *File) NextPacket(ctx context.Context) (centrifuge.Frame, bool, error) {
	if err := ctx.Err(); err != nil {
		return centrifuge.Frame{}, false, err
	}
	data, ts, err := fl.reader.ReadPacketData()
	if errors.Is(err, io.EOF) {
		return centrifuge.Frame{}, false, nil
	}
	if err != nil {
		return centrifuge.Frame{}, false, errs.New(err, errs.ErrCodeCapture, "capture", "ReadPacketData")
	}
	return centrifuge.Frame{Timestamp: ts, Data: data}, true, nil
}

// LinkType reports the file's declared link-layer type.
func (fl *File) LinkType() layers.LinkType {
	return fl.reader.LinkType()
}

// Close closes the underlying file.
func (fl *File) Close() error {
	return fl.f.Close()
}

type classicAdapter struct{ r *pcapgo.Reader }

func (c classicAdapter) ReadPacketData() ([]byte, time.Time, error) {
	data, ci, err := c.r.ReadPacketData()
	return data, ci.Timestamp, err
}
func (c classicAdapter) LinkType() layers.LinkType { return c.r.LinkType() }

type ngAdapter struct{ r *pcapgo.NgReader }

func (n ngAdapter) ReadPacketData() ([]byte, time.Time, error) {
	data, ci, err := n.r.ReadPacketData()
	return data, ci.Timestamp, err
}
func (n ngAdapter) LinkType() layers.LinkType { return n.r.LinkType() }

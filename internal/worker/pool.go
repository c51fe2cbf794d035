// Package worker runs the capture-to-classification pipeline: N worker
// goroutines share a mutex-guarded capture source, classify each frame
// they pull, and push the result into a bounded channel a single
// formatter goroutine drains.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"centrifuge/internal/capture"
	"centrifuge/internal/centrifuge"
	"centrifuge/internal/metrics"
)

// QueueCapacity is the bounded channel's capacity between the worker pool
// and its single formatter consumer.
const QueueCapacity = 256

// ClassifiedFrame pairs a capture timestamp with its classified tree, the
// unit of work handed from a worker to the formatter.
type ClassifiedFrame struct {
	Timestamp time.Time
	Tree      *centrifuge.PacketTree
}

// Pool runs Workers goroutines pulling from Source under sourceMu and
// classifying with Classifier.
type Pool struct {
	Source     capture.Source
	Classifier *centrifuge.Classifier
	Workers    int

	sourceMu sync.Mutex
}

// Run starts the worker pool and returns the channel the formatter should
// read from. The channel is closed once every worker has observed the
// source's end (or an unrecoverable read error) and exited. Run does not
// block; cancel ctx to stop the pool early.
func (p *Pool) Run(ctx context.Context) <-chan ClassifiedFrame {
	out := make(chan ClassifiedFrame, QueueCapacity)

	workers := p.Workers
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.loop(ctx, id, out)
		}(i)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

func (p *Pool) loop(ctx context.Context, id int, out chan<- ClassifiedFrame) {
	for {
		frame, ok, err := p.next(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Error().Int("worker", id).Err(err).Msg("capture read failed")
			}
			return
		}
		if !ok {
			return
		}

		tree := p.Classifier.Classify(p.Source.LinkType(), frame.Data)
		metrics.FramesClassified.WithLabelValues(kindLabel(tree)).Inc()
		if b := tree.Body; b != nil && b.IPBody != nil && b.IPBody.UDP != nil {
			switch b.IPBody.UDP.Payload.Kind {
			case centrifuge.UDPPayloadRTP:
				metrics.MediaPacketsTotal.WithLabelValues("rtp").Inc()
			case centrifuge.UDPPayloadRTCP:
				metrics.MediaPacketsTotal.WithLabelValues("rtcp").Inc()
			}
		}

		// Block when the formatter lags rather than dropping: a full
		// channel here means the consumer is behind, not that the frame
		// is disposable. ctx.Done() is the only escape, so a cancelled
		// run doesn't hang a worker forever on a stalled consumer.
		select {
		case out <- ClassifiedFrame{Timestamp: frame.Timestamp, Tree: tree}:
			metrics.QueueDepth.Set(float64(len(out)))
		case <-ctx.Done():
			return
		}
	}
}

// next serializes access to the shared capture source: only one worker
// may be mid-read at a time, matching the capture library's own
// single-reader expectations.
func (p *Pool) next(ctx context.Context) (centrifuge.Frame, bool, error) {
	p.sourceMu.Lock()
	defer p.sourceMu.Unlock()
	return p.Source.NextPacket(ctx)
}

func kindLabel(tree *centrifuge.PacketTree) string {
	switch tree.Kind {
	case centrifuge.KindEther:
		return "ether"
	case centrifuge.KindTun:
		return "tun"
	default:
		return "unknown"
	}
}

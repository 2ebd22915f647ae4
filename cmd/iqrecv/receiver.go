package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"time"

	"github.com/radio-control/sdrfe/internal/stream"
)

const maxDatagram = 65535

// receiver accumulates counters for sequenced IQ datagrams.
type receiver struct {
	order   binary.ByteOrder
	tracker *stream.Tracker

	samples   uint64
	malformed uint64

	lastPackets uint64
	lastSamples uint64
	lastReport  time.Time
}

func newReceiver(order binary.ByteOrder, wrap int) *receiver {
	return &receiver{order: order, tracker: stream.NewTracker(wrap), lastReport: time.Now()}
}

// handle records one datagram and returns the number of packets lost
// immediately before it.
func (r *receiver) handle(b []byte) (int, error) {
	p, err := stream.ParsePacket(b, r.order)
	if err != nil {
		r.malformed++
		return 0, err
	}
	r.samples += uint64(len(p.Samples))
	return r.tracker.Observe(p.Sequence), nil
}

// report writes the rates since the previous report and the running totals.
func (r *receiver) report(w io.Writer, now time.Time) {
	elapsed := now.Sub(r.lastReport).Seconds()
	packets := r.tracker.Received - r.lastPackets
	samples := r.samples - r.lastSamples
	var pps, sps float64
	if elapsed > 0 {
		pps = float64(packets) / elapsed
		sps = float64(samples) / elapsed
	}
	fmt.Fprintf(w, "%.0f packets/s %.0f samples/s | received %d lost %d reordered %d malformed %d\n",
		pps, sps, r.tracker.Received, r.tracker.Lost, r.tracker.Reordered, r.malformed)

	r.lastPackets = r.tracker.Received
	r.lastSamples = r.samples
	r.lastReport = now
}

// listen receives on addr until ctx is done, reporting every interval.
func (r *receiver) listen(ctx context.Context, addr string, interval time.Duration, w io.Writer) error {
	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("Listening on %s", conn.LocalAddr())

	return r.serve(ctx, conn, interval, w)
}

func (r *receiver) serve(ctx context.Context, conn *net.UDPConn, interval time.Duration, w io.Writer) error {
	go func() {
		<-ctx.Done()
		conn.SetReadDeadline(time.Now())
	}()

	buf := make([]byte, maxDatagram)
	next := time.Now().Add(interval)
	for {
		if err := conn.SetReadDeadline(next); err != nil {
			return err
		}
		n, _, err := conn.ReadFromUDP(buf)
		if ctx.Err() != nil {
			r.report(w, time.Now())
			return nil
		}
		if err != nil {
			var ne net.Error
			if !errors.As(err, &ne) || !ne.Timeout() {
				return err
			}
		} else if _, err := r.handle(buf[:n]); err != nil {
			log.Printf("Dropping datagram: %v", err)
		}

		if now := time.Now(); !now.Before(next) {
			r.report(w, now)
			next = now.Add(interval)
		}
	}
}

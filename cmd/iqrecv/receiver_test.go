package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/radio-control/sdrfe/internal/stream"
)

func packet(order binary.ByteOrder, seq uint16, samples ...uint32) []byte {
	b := make([]byte, 2+4*len(samples))
	order.PutUint16(b, seq)
	for i, s := range samples {
		order.PutUint32(b[2+4*i:], s)
	}
	return b
}

func TestReceiverHandle(t *testing.T) {
	r := newReceiver(binary.BigEndian, stream.CompatWrap)

	steps := []struct {
		seq  uint16
		lost int
	}{
		{65533, 0},
		{65534, 0},
		{0, 0}, // compatibility wrap never sends 65535
		{3, 2},
		{2, 0}, // late
	}
	for _, s := range steps {
		lost, err := r.handle(packet(binary.BigEndian, s.seq, 1, 2))
		if err != nil {
			t.Fatalf("handle(%d): %v", s.seq, err)
		}
		if lost != s.lost {
			t.Errorf("handle(%d) lost = %d, want %d", s.seq, lost, s.lost)
		}
	}
	if _, err := r.handle([]byte{1, 2, 3}); err == nil {
		t.Error("expected malformed packet error")
	}

	if r.tracker.Received != 5 || r.tracker.Lost != 2 || r.tracker.Reordered != 1 {
		t.Errorf("tracker = %+v", r.tracker)
	}
	if r.samples != 10 || r.malformed != 1 {
		t.Errorf("samples = %d malformed = %d", r.samples, r.malformed)
	}
}

func TestReceiverReport(t *testing.T) {
	r := newReceiver(binary.LittleEndian, stream.NaturalWrap)
	start := r.lastReport
	for seq := uint16(0); seq < 4; seq++ {
		if _, err := r.handle(packet(binary.LittleEndian, seq, 7, 8, 9)); err != nil {
			t.Fatal(err)
		}
	}

	var out bytes.Buffer
	r.report(&out, start.Add(2*time.Second))
	want := "2 packets/s 6 samples/s | received 4 lost 0 reordered 0 malformed 0\n"
	if out.String() != want {
		t.Errorf("report = %q, want %q", out.String(), want)
	}

	out.Reset()
	r.report(&out, start.Add(3*time.Second))
	if !strings.HasPrefix(out.String(), "0 packets/s 0 samples/s | received 4") {
		t.Errorf("second report = %q", out.String())
	}
}

func TestReceiverServe(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	sink, err := stream.DialUDP(conn.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()

	r := newReceiver(binary.LittleEndian, stream.CompatWrap)
	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer
	done := make(chan error, 1)
	go func() { done <- r.serve(ctx, conn, 20*time.Millisecond, &out) }()

	for _, seq := range []uint16{0, 1, 4} {
		if err := sink.WritePacket(packet(binary.LittleEndian, seq, 0xAABBCCDD)); err != nil {
			t.Fatal(err)
		}
	}
	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return after cancel")
	}

	if r.tracker.Received != 3 || r.tracker.Lost != 2 {
		t.Errorf("tracker = %+v", r.tracker)
	}
	if !strings.Contains(out.String(), "received 3 lost 2") {
		t.Errorf("output = %q", out.String())
	}
}

// Command streamiq drains the IQ FIFO into a UDP destination or a capture
// file until interrupted or until the requested number of samples is sent.
//
// Flags override the stream and devices sections of the config file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/radio-control/sdrfe/internal/board"
	"github.com/radio-control/sdrfe/internal/config"
	"github.com/radio-control/sdrfe/internal/stream"
)

func main() {
	var (
		configPath = flag.String("config", "", "config file; defaults to $"+config.EnvConfigPath)
		dest       = flag.String("dest", stream.DefaultDestination, "udp://host:port, file://path or a file path")
		samples    = flag.Int("s", stream.DefaultSamplesPerPacket, "samples per packet")
		endian     = flag.String("e", "little", "byte order of the payload: little or big")
		length     = flag.Int64("l", 0, "stop after this many samples; 0 streams until interrupted")
		wrap       = flag.Int("wrap", stream.CompatWrap, fmt.Sprintf("sequence modulus: %d or %d", stream.CompatWrap, stream.NaturalWrap))
		mem        = flag.String("mem", "", "memory device; overrides the config")
		base       = flag.Uint64("base", 0, "FIFO base address; overrides the config")
		stats      = flag.Bool("stats", false, "print throughput every stats interval")
		appendTo   = flag.Bool("append", false, "extend an existing capture file instead of truncating it")
	)
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("streamiq: %v", err)
	}

	// Only flags given on the command line override the config.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dest":
			cfg.Stream.Destination = *dest
		case "s":
			cfg.Stream.SamplesPerPacket = *samples
		case "e":
			cfg.Stream.ByteOrder = *endian
		case "l":
			cfg.Stream.Length = *length
		case "wrap":
			cfg.Stream.Wrap = *wrap
		case "mem":
			cfg.Devices.MemPath = *mem
		case "base":
			cfg.Devices.FIFOBase = *base
		}
	})
	if *appendTo {
		if cfg.Stream.Destination, err = stream.AppendDestination(cfg.Stream.Destination); err != nil {
			log.Fatalf("streamiq: %v", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("streamiq: %v", err)
	}

	if err := run(cfg, *stats); err != nil {
		log.Fatalf("streamiq: %v", err)
	}
}

func run(cfg *config.Config, stats bool) error {
	settings, err := cfg.StreamSettings()
	if err != nil {
		return err
	}

	hw, err := board.Open(cfg, board.FIFO)
	if err != nil {
		return err
	}
	defer hw.Close()

	var opts []stream.Option
	if stats {
		opts = append(opts, stream.WithObserver(func(s stream.Stats, overflow uint32) {
			if overflow != 0 {
				return
			}
			log.Printf("%d packets, %d samples, %.0f samples/s, %d overflows",
				s.Packets, s.Samples, s.SampleRate(), s.Overflows)
		}))
	}
	p, err := stream.New(hw.FIFO, settings, opts...)
	if err != nil {
		return err
	}

	sink, err := stream.OpenSink(cfg.Stream.Destination)
	if err != nil {
		return err
	}
	defer sink.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Sending %s endian IQ stream to %s (%d samples per packet, wrap %d)\n",
		stream.ByteOrderName(settings.ByteOrder), sink, settings.SamplesPerPacket, settings.Wrap)

	s, err := p.Run(ctx, sink)
	fmt.Fprintf(os.Stderr, "Sent %d packets, %d samples in %v (%.0f samples/s), %d overflows\n",
		s.Packets, s.Samples, s.Elapsed.Round(time.Millisecond), s.SampleRate(), s.Overflows)
	return err
}

// Command iqrecv listens for sequenced IQ datagrams and reports packet rate,
// lost packets and late arrivals.
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

	"github.com/radio-control/sdrfe/internal/stream"
)

func main() {
	var (
		listen   = flag.String("listen", ":25344", "UDP address to listen on")
		endian   = flag.String("e", "little", "byte order of the payload: little or big")
		wrap     = flag.Int("wrap", stream.CompatWrap, fmt.Sprintf("sequence modulus: %d or %d", stream.CompatWrap, stream.NaturalWrap))
		interval = flag.Duration("interval", time.Second, "report interval")
	)
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	order, err := stream.ParseByteOrder(*endian)
	if err != nil {
		log.Fatalf("iqrecv: %v", err)
	}
	if *wrap != stream.CompatWrap && *wrap != stream.NaturalWrap {
		log.Fatalf("iqrecv: wrap must be %d or %d", stream.CompatWrap, stream.NaturalWrap)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := newReceiver(order, *wrap)
	if err := r.listen(ctx, *listen, *interval, os.Stdout); err != nil {
		log.Fatalf("iqrecv: %v", err)
	}
}

// Command codecctl configures the audio codec and reads or writes its
// registers over the AXI IIC master.
//
//	codecctl [-init] [-volume N] [-dump] [read|write <reg> <data>]
//
// For a write, data is the 9-bit register value. For a read, it is the
// number of bytes to fetch. Numbers are hexadecimal with or without a 0x
// prefix. Registers may also be given by name, such as "active".
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/radio-control/sdrfe/internal/board"
	"github.com/radio-control/sdrfe/internal/codec"
	"github.com/radio-control/sdrfe/internal/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "config file; defaults to $"+config.EnvConfigPath)
		initCodec  = flag.Bool("init", false, "run the configuration recipe")
		ensure     = flag.Bool("ensure", false, "run the recipe only if the codec is not active")
		volume     = flag.Int("volume", -1, "set the DAC volume level (0-9)")
		dump       = flag.Bool("dump", false, "dump all codec registers")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [read|write <reg> <data>]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	access, err := parseAccess(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}
	if *volume != -1 && (*volume < codec.MinVolume || *volume > codec.MaxVolume) {
		fmt.Fprintf(os.Stderr, "invalid volume %d, must be in [%d, %d]\n", *volume, codec.MinVolume, codec.MaxVolume)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("codecctl: %v", err)
	}
	hw, err := board.Open(cfg, board.Codec)
	if err != nil {
		log.Fatalf("codecctl: %v", err)
	}
	defer hw.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, hw.Codec, *initCodec, *ensure, *volume, access, *dump); err != nil {
		hw.Close()
		log.Fatalf("codecctl: %v", err)
	}
}

func run(ctx context.Context, c *codec.Codec, initCodec, ensure bool, volume int, access *access, dump bool) error {
	switch {
	case initCodec:
		fmt.Println("Configuring codec")
		if err := c.Configure(ctx); err != nil {
			return err
		}
	case ensure:
		ran, err := c.EnsureConfigured(ctx)
		if err != nil {
			return err
		}
		if ran {
			fmt.Println("Codec configured")
		} else {
			fmt.Println("Codec already active")
		}
	}

	if volume != -1 {
		fmt.Printf("Setting volume to level %d/%d\n", volume, codec.MaxVolume)
		if err := c.SetVolume(volume); err != nil {
			return err
		}
	}

	if access != nil {
		if err := access.do(c); err != nil {
			return err
		}
	}

	if dump {
		regs, err := c.Dump()
		if err != nil {
			return err
		}
		for _, r := range regs {
			fmt.Println(formatRegister(r))
		}
	}
	return nil
}

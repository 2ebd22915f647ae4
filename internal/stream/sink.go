package stream

import (
	"bufio"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Sink receives complete packets.
type Sink interface {
	// WritePacket emits one packet. The buffer is reused after return.
	WritePacket(p []byte) error
	// Sequenced reports whether packets carry the 2-byte sequence prefix.
	Sequenced() bool
	Close() error
}

// UDPSink sends one datagram per packet to a fixed receiver.
type UDPSink struct {
	conn *net.UDPConn
	dst  *net.UDPAddr
}

// DialUDP resolves addr ("host:port") and opens an unbound socket.
func DialUDP(addr string) (*UDPSink, error) {
	dst, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, fmt.Errorf("open UDP socket: %w", err)
	}
	return &UDPSink{conn: conn, dst: dst}, nil
}

// Addr returns the receiver address.
func (s *UDPSink) Addr() *net.UDPAddr { return s.dst }

// WritePacket implements Sink.
func (s *UDPSink) WritePacket(p []byte) error {
	_, err := s.conn.WriteToUDP(p, s.dst)
	return err
}

// Sequenced implements Sink.
func (s *UDPSink) Sequenced() bool { return true }

// Close implements Sink.
func (s *UDPSink) Close() error { return s.conn.Close() }

func (s *UDPSink) String() string { return "udp://" + s.dst.String() }

// FileSink writes raw sample words to a file.
type FileSink struct {
	f *os.File
	w *bufio.Writer
}

// CreateFile opens path for writing. With appendTo set an existing capture
// is extended, otherwise it is truncated.
func CreateFile(path string, appendTo bool) (*FileSink, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if appendTo {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileSink{f: f, w: bufio.NewWriterSize(f, 1<<16)}, nil
}

// WritePacket implements Sink.
func (s *FileSink) WritePacket(p []byte) error {
	_, err := s.w.Write(p)
	return err
}

// Sequenced implements Sink.
func (s *FileSink) Sequenced() bool { return false }

// Close flushes buffered samples and closes the file.
func (s *FileSink) Close() error {
	ferr := s.w.Flush()
	cerr := s.f.Close()
	if ferr != nil {
		return ferr
	}
	return cerr
}

func (s *FileSink) String() string { return "file://" + s.f.Name() }

// OpenSink opens the sink named by dest: "udp://host:port", "file://path"
// or a bare file path. Files are truncated unless a file URL carries
// "?append=true".
func OpenSink(dest string) (Sink, error) {
	if !strings.Contains(dest, "://") {
		return CreateFile(dest, false)
	}
	u, err := url.Parse(dest)
	if err != nil {
		return nil, fmt.Errorf("parse destination %q: %w", dest, err)
	}
	switch u.Scheme {
	case "udp":
		if u.Host == "" {
			return nil, fmt.Errorf("destination %q has no host:port", dest)
		}
		return DialUDP(u.Host)
	case "file":
		path := u.Host + u.Path
		if path == "" {
			return nil, fmt.Errorf("destination %q has no path", dest)
		}
		appendTo := false
		if v := u.Query().Get("append"); v != "" {
			if appendTo, err = strconv.ParseBool(v); err != nil {
				return nil, fmt.Errorf("destination %q: bad append value %q", dest, v)
			}
		}
		return CreateFile(path, appendTo)
	default:
		return nil, fmt.Errorf("unsupported destination scheme %q", u.Scheme)
	}
}

// AppendDestination rewrites a file destination so that OpenSink extends an
// existing capture. UDP destinations are rejected.
func AppendDestination(dest string) (string, error) {
	if !strings.Contains(dest, "://") {
		path, err := filepath.Abs(dest)
		if err != nil {
			return "", err
		}
		u := url.URL{Scheme: "file", Path: path, RawQuery: "append=true"}
		return u.String(), nil
	}
	u, err := url.Parse(dest)
	if err != nil {
		return "", fmt.Errorf("parse destination %q: %w", dest, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("append needs a file destination, got %q", dest)
	}
	q := u.Query()
	q.Set("append", "true")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

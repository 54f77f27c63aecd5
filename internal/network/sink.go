// Package network implements the optional TCP mirror sink: each
// non-colorized update is serialized as StreamHeader + PathsHeader +
// version byte + frame record and sent to a remote process over a single
// persistent connection, reconnecting in the background on failure.
package network

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/pinlab/dmdengine/internal/frame"
	"github.com/pinlab/dmdengine/internal/wire"
)

// ErrNotConnected is returned by Send when no connection is currently
// established; the sink retries in the background and the caller is not
// blocked on it.
var ErrNotConnected = errors.New("network: not connected")

// ProtocolVersion is the leading version byte sent before every frame
// record, so a future layout change does not silently desync a reader.
const ProtocolVersion = 1

// StreamHeader precedes every update on the wire.
type StreamHeader struct {
	Buffered         uint8
	DisconnectOthers uint8
}

// PathsHeader carries the producer's current context strings, fixed-width
// and null-padded.
type PathsHeader struct {
	ROMName          [256]byte
	AltColorPath     [512]byte
	PatternVideoPath [512]byte
}

// Sink is the network mirror sink. One Sink instance owns one outbound
// TCP connection, reconnected automatically.
type Sink struct {
	addr string

	mu                sync.Mutex
	conn              net.Conn
	disconnectOthers  bool

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a Sink targeting addr (host:port) and starts its background
// connect loop.
func New(addr string) *Sink {
	s := &Sink{addr: addr, stopCh: make(chan struct{})}
	s.wg.Add(1)
	go s.connectLoop()
	return s
}

// NotifyROMChange arms the disconnect-others flag for the next Send:
// on a ROM-name change, exactly one subsequent send carries
// DisconnectOthers=1, then it clears.
func (s *Sink) NotifyROMChange() {
	s.mu.Lock()
	s.disconnectOthers = true
	s.mu.Unlock()
}

// Send serializes and writes one update. It is synchronous on the
// producer's call path. A disconnected sink returns
// ErrNotConnected without blocking; the caller treats the sink as simply
// unavailable for this frame.
func (s *Sink) Send(f *frame.Frame, romName, altColorPath, patternVideoPath string, buffered bool) error {
	s.mu.Lock()
	conn := s.conn
	disconnectOthers := s.disconnectOthers
	s.disconnectOthers = false
	s.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}

	var sh StreamHeader
	if buffered {
		sh.Buffered = 1
	}
	if disconnectOthers {
		sh.DisconnectOthers = 1
	}

	var ph PathsHeader
	copyTruncated(ph.ROMName[:], romName)
	copyTruncated(ph.AltColorPath[:], altColorPath)
	copyTruncated(ph.PatternVideoPath[:], patternVideoPath)

	if err := binary.Write(conn, binary.LittleEndian, sh); err != nil {
		s.dropConn()
		return fmt.Errorf("network: write stream header: %w", err)
	}
	if err := binary.Write(conn, binary.LittleEndian, ph); err != nil {
		s.dropConn()
		return fmt.Errorf("network: write paths header: %w", err)
	}
	if err := binary.Write(conn, binary.LittleEndian, uint8(ProtocolVersion)); err != nil {
		s.dropConn()
		return fmt.Errorf("network: write version byte: %w", err)
	}
	if _, err := conn.Write(wire.Encode(f)); err != nil {
		s.dropConn()
		return fmt.Errorf("network: write frame record: %w", err)
	}
	return nil
}

func copyTruncated(dst []byte, s string) {
	n := copy(dst, s)
	if n < len(dst) {
		dst[n] = 0
	}
}

func (s *Sink) dropConn() {
	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.mu.Unlock()
}

// connectLoop dials addr, retrying with backoff, until Close is called.
func (s *Sink) connectLoop() {
	defer s.wg.Done()
	backoff := time.Second
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		s.mu.Lock()
		connected := s.conn != nil
		s.mu.Unlock()
		if connected {
			select {
			case <-s.stopCh:
				return
			case <-time.After(200 * time.Millisecond):
				continue
			}
		}

		conn, err := net.DialTimeout("tcp", s.addr, 5*time.Second)
		if err != nil {
			log.Printf("network: connect %s: %v", s.addr, err)
			select {
			case <-s.stopCh:
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()
	}
}

// Close stops the connect loop and closes any active connection.
func (s *Sink) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.dropConn()
	s.wg.Wait()
}

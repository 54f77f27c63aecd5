package network

import (
	"bufio"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/pinlab/dmdengine/internal/frame"
	"github.com/pinlab/dmdengine/internal/wire"
)

func TestSend_ReturnsErrNotConnectedBeforeDial(t *testing.T) {
	// A Sink built without New has no connect loop and no connection:
	// Send must return ErrNotConnected without blocking.
	s := &Sink{addr: "127.0.0.1:0", stopCh: make(chan struct{})}
	var f frame.Frame
	if err := s.Send(&f, "mm", "", "", false); err != ErrNotConnected {
		t.Fatalf("Send() = %v, want ErrNotConnected", err)
	}
}

func TestSend_WritesExpectedWireFormat(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	acceptedCh := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			acceptedCh <- conn
		}
	}()

	s := New(ln.Addr().String())
	defer s.Close()

	serverConn := <-acceptedCh
	defer serverConn.Close()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		connected := s.conn != nil
		s.mu.Unlock()
		if connected {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	s.NotifyROMChange()

	var f frame.Frame
	f.Mode = frame.Data
	f.Width, f.Height = 1, 1
	f.HasPixels = true
	f.Pixels[0] = 7

	if err := s.Send(&f, "mm", "/alt", "/pat", true); err != nil {
		t.Fatalf("Send: %v", err)
	}

	r := bufio.NewReader(serverConn)
	serverConn.SetReadDeadline(time.Now().Add(time.Second))

	var sh StreamHeader
	if err := binary.Read(r, binary.LittleEndian, &sh); err != nil {
		t.Fatalf("read StreamHeader: %v", err)
	}
	if sh.Buffered != 1 {
		t.Errorf("StreamHeader.Buffered = %d, want 1", sh.Buffered)
	}
	if sh.DisconnectOthers != 1 {
		t.Errorf("StreamHeader.DisconnectOthers = %d, want 1 after NotifyROMChange", sh.DisconnectOthers)
	}

	var ph PathsHeader
	if err := binary.Read(r, binary.LittleEndian, &ph); err != nil {
		t.Fatalf("read PathsHeader: %v", err)
	}
	if got := string(ph.ROMName[:2]); got != "mm" {
		t.Errorf("PathsHeader.ROMName = %q, want %q", got, "mm")
	}

	var version uint8
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		t.Fatalf("read version byte: %v", err)
	}
	if version != ProtocolVersion {
		t.Errorf("version = %d, want %d", version, ProtocolVersion)
	}

	decoded, err := wire.Decode(readRecord(t, r, &f))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Width != 1 || decoded.Height != 1 || decoded.Pixels[0] != 7 {
		t.Fatalf("decoded frame = %+v, want width=1 height=1 pixel=7", decoded)
	}
}

func TestSend_DisconnectOthersClearsAfterOneSend(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()
	acceptedCh := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			acceptedCh <- conn
		}
	}()

	s := New(ln.Addr().String())
	defer s.Close()
	serverConn := <-acceptedCh
	defer serverConn.Close()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		connected := s.conn != nil
		s.mu.Unlock()
		if connected {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	s.NotifyROMChange()
	var f frame.Frame
	serverConn.SetReadDeadline(time.Now().Add(time.Second))
	r := bufio.NewReader(serverConn)

	s.Send(&f, "mm", "", "", false)
	var first StreamHeader
	binary.Read(r, binary.LittleEndian, &first)
	skipRestOfUpdate(t, r, &f)
	if first.DisconnectOthers != 1 {
		t.Fatalf("first send DisconnectOthers = %d, want 1", first.DisconnectOthers)
	}

	s.Send(&f, "mm", "", "", false)
	var second StreamHeader
	binary.Read(r, binary.LittleEndian, &second)
	if second.DisconnectOthers != 0 {
		t.Fatalf("second send DisconnectOthers = %d, want 0", second.DisconnectOthers)
	}
}

func skipRestOfUpdate(t *testing.T, r *bufio.Reader, f *frame.Frame) {
	t.Helper()
	var ph PathsHeader
	if err := binary.Read(r, binary.LittleEndian, &ph); err != nil {
		t.Fatalf("read PathsHeader: %v", err)
	}
	var version uint8
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		t.Fatalf("read version byte: %v", err)
	}
	readRecord(t, r, f)
}

func readRecord(t *testing.T, r *bufio.Reader, f *frame.Frame) []byte {
	t.Helper()
	n := len(wire.Encode(f))
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("read frame record: %v", err)
	}
	return buf
}

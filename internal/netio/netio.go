// Package netio implements the datagram transport FFTP runs over:
// binding a UDP endpoint, sending and receiving whole frames, and
// optionally acquiring a UPnP/IGD port mapping for NAT traversal.
package netio

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/kstaniek/go-fftp/internal/wire"
)

// ErrV6NotSupported is returned by Bind when the resolved local
// address is IPv6 — this transport is IPv4-only.
var ErrV6NotSupported = errors.New("netio: IPv6 is not supported")

// recvBufferSize is sized so any single legal frame fits in one read.
const recvBufferSize = wire.MaximumSize

// Endpoint wraps a bound UDP socket with a small send/recv/connect
// surface, a thin layer over *net.UDPConn rather than reimplementing
// socket plumbing.
type Endpoint struct {
	conn   *net.UDPConn
	peer   *net.UDPAddr
	unmap  func()
	mapped bool
}

// BindOptions configures Bind.
type BindOptions struct {
	// Forward requests a UPnP/IGD port mapping for the bound port.
	// Failure to acquire the mapping is returned as an error.
	Forward bool
}

// Bind binds 0.0.0.0:port (IPv4 only) and returns an Endpoint ready to
// send and receive frames.
func Bind(port int, opts BindOptions) (*Endpoint, error) {
	laddr := &net.UDPAddr{IP: net.IPv4zero, Port: port}
	if laddr.IP.To4() == nil {
		return nil, ErrV6NotSupported
	}
	conn, err := net.ListenUDP("udp4", laddr)
	if err != nil {
		return nil, fmt.Errorf("netio: listen: %w", err)
	}
	ep := &Endpoint{conn: conn}
	if opts.Forward {
		boundPort := conn.LocalAddr().(*net.UDPAddr).Port
		unmap, err := mapPort(boundPort)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("netio: upnp port mapping: %w", err)
		}
		ep.unmap = unmap
		ep.mapped = true
	}
	return ep, nil
}

// Connect fixes the peer address so Send/Recv can be used without
// repeating it on every call — used by clients.
func (e *Endpoint) Connect(addr string) error {
	raddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return fmt.Errorf("netio: resolve: %w", err)
	}
	e.peer = raddr
	return nil
}

// LocalAddr returns the bound local address.
func (e *Endpoint) LocalAddr() net.Addr { return e.conn.LocalAddr() }

// SendTo writes buf as a single datagram to addr.
func (e *Endpoint) SendTo(addr *net.UDPAddr, buf []byte) error {
	_, err := e.conn.WriteToUDP(buf, addr)
	return err
}

// Send writes buf to the connected peer (set via Connect).
func (e *Endpoint) Send(buf []byte) error {
	if e.peer == nil {
		return errors.New("netio: Send called without Connect")
	}
	return e.SendTo(e.peer, buf)
}

// RecvFrom blocks until a datagram arrives, returning its bytes and
// sender address. The returned slice is only valid until the next call.
func (e *Endpoint) RecvFrom() ([]byte, *net.UDPAddr, error) {
	buf := make([]byte, recvBufferSize)
	n, addr, err := e.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, nil, err
	}
	return buf[:n], addr, nil
}

// Recv blocks until a datagram arrives from the connected peer.
func (e *Endpoint) Recv() ([]byte, error) {
	buf, addr, err := e.RecvFrom()
	if err != nil {
		return nil, err
	}
	if e.peer != nil && !addr.IP.Equal(e.peer.IP) {
		// Ignore datagrams from unexpected senders; keep waiting.
		return e.Recv()
	}
	return buf, nil
}

// SetReadDeadline bounds the next RecvFrom/Recv call.
func (e *Endpoint) SetReadDeadline(d time.Duration) error {
	if d <= 0 {
		return e.conn.SetReadDeadline(time.Time{})
	}
	return e.conn.SetReadDeadline(time.Now().Add(d))
}

// Close releases the socket and, if a UPnP mapping was acquired, tears it down.
func (e *Endpoint) Close() error {
	if e.mapped && e.unmap != nil {
		e.unmap()
	}
	return e.conn.Close()
}

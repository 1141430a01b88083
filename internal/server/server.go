// Package server implements the FFTP request dispatcher: it receives
// datagrams on a bound UDP endpoint, decodes them as Frame-wrapped
// Requests, enforces path confinement against a served root
// directory, and streams back Directory/Part/NotAllowed responses.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kstaniek/go-fftp/internal/logging"
	"github.com/kstaniek/go-fftp/internal/metrics"
	"github.com/kstaniek/go-fftp/internal/netio"
	"github.com/kstaniek/go-fftp/internal/wire"
)

const (
	defaultChunkSize        = 4096
	defaultCacheIdleTimeout = 0 // disabled unless WithCacheIdleTimeout is set
	cacheSweepInterval      = 30 * time.Second
)

// Server owns the bound UDP endpoint, the served root directory, and
// the file-handle cache, and dispatches every received Request on a
// single cooperative receive/dispatch/reply loop — no per-client
// goroutines.
type Server struct {
	mu       sync.RWMutex
	addr     string
	root     string
	chunk    int
	forward  bool
	idleTO   time.Duration
	logger   *slog.Logger
	endpoint *netio.Endpoint
	cache    *handleCache

	readyOnce sync.Once
	readyCh   chan struct{}
	errCh     chan error
	lastErrMu sync.Mutex
	lastErr   error

	totalRequests  atomic.Uint64
	totalDenied    atomic.Uint64
	totalBytesSent atomic.Uint64
}

type Option func(*Server)

func NewServer(opts ...Option) *Server {
	s := &Server{
		chunk:   defaultChunkSize,
		idleTO:  defaultCacheIdleTimeout,
		logger:  logging.L(),
		readyCh: make(chan struct{}),
		errCh:   make(chan error, 1),
	}
	for _, o := range opts {
		o(s)
	}
	if s.addr == "" {
		s.addr = ":0"
	}
	s.cache = newHandleCache(s.idleTO)
	return s
}

func WithListenAddr(a string) Option { return func(s *Server) { s.addr = a } }
func WithRoot(root string) Option    { return func(s *Server) { s.root = root } }
func WithChunkSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.chunk = n
		}
	}
}
func WithForward(forward bool) Option             { return func(s *Server) { s.forward = forward } }
func WithCacheIdleTimeout(d time.Duration) Option { return func(s *Server) { s.idleTO = d } }
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func (s *Server) Addr() string           { s.mu.RLock(); defer s.mu.RUnlock(); return s.addr }
func (s *Server) Ready() <-chan struct{} { return s.readyCh }
func (s *Server) Errors() <-chan error   { return s.errCh }

func (s *Server) setError(err error) {
	if err == nil {
		return
	}
	s.lastErrMu.Lock()
	s.lastErr = err
	s.lastErrMu.Unlock()
	select {
	case s.errCh <- err:
	default:
	}
}

func (s *Server) LastError() error {
	s.lastErrMu.Lock()
	defer s.lastErrMu.Unlock()
	return s.lastErr
}

// Serve binds the UDP endpoint and runs the single cooperative
// receive/dispatch/reply loop until ctx is cancelled. There is no
// concurrent multi-client fair scheduling: a full-download stream is
// sent to completion before the next datagram is received. The server
// does not wait for acknowledgements, but does not interleave either.
func (s *Server) Serve(ctx context.Context) error {
	if s.root == "" {
		return fmt.Errorf("%w: root directory required", ErrConfig)
	}
	root, err := filepath.Abs(s.root)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	root, err = filepath.EvalSymlinks(root)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	s.root = root

	_, portStr, err := net.SplitHostPort(s.addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		return fmt.Errorf("%w: invalid port %q", ErrConfig, portStr)
	}

	ep, err := netio.Bind(port, netio.BindOptions{Forward: s.forward})
	if err != nil {
		wrap := fmt.Errorf("%w: %v", ErrListen, err)
		metrics.IncError(mapErrToMetric(wrap))
		s.setError(wrap)
		return wrap
	}
	s.endpoint = ep
	defer ep.Close()
	defer s.cache.closeAll()

	s.mu.Lock()
	s.addr = ep.LocalAddr().String()
	s.mu.Unlock()

	s.readyOnce.Do(func() { close(s.readyCh) })
	s.logger.Info("udp_listen", "addr", s.Addr(), "root", s.root)

	go func() { <-ctx.Done(); _ = ep.Close() }()

	for {
		if err := ep.SetReadDeadline(cacheSweepInterval); err != nil {
			return fmt.Errorf("%w: %v", ErrIO, err)
		}
		buf, peer, err := ep.RecvFrom()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				s.cache.sweep()
				metrics.SetCacheSize(len(s.cache.entries))
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			wrap := fmt.Errorf("%w: %v", ErrIO, err)
			metrics.IncError(mapErrToMetric(wrap))
			s.setError(wrap)
			continue
		}
		s.handleDatagram(ep, peer, buf)
		metrics.SetCacheSize(len(s.cache.entries))
	}
}

// handleDatagram decodes and dispatches exactly one Request frame.
// Framing errors are logged and the datagram is dropped — the server
// never replies to unparseable input.
func (s *Server) handleDatagram(ep *netio.Endpoint, peer *net.UDPAddr, buf []byte) {
	req, err := wire.DecodeRequest(buf)
	if err != nil {
		s.logger.Warn("frame_decode_error", "peer", peer.String(), "error", err)
		metrics.IncMalformed()
		return
	}
	s.totalRequests.Add(1)
	s.dispatch(ep, peer, req)
}

// Shutdown closes the endpoint if still open; Serve's deferred Close
// otherwise tears it down when ctx is cancelled.
func (s *Server) Shutdown() {
	s.mu.RLock()
	ep := s.endpoint
	s.mu.RUnlock()
	if ep != nil {
		_ = ep.Close()
	}
}

package server

import (
	"errors"
	"io"
	"net"

	"github.com/kstaniek/go-fftp/internal/metrics"
	"github.com/kstaniek/go-fftp/internal/netio"
	"github.com/kstaniek/go-fftp/internal/wire"
)

// handleDownload streams the whole file at path as a sequence of Part
// responses. The server does not wait for acknowledgements between
// parts: it reads and sends s.chunk bytes at a time until a short read
// marks the final, possibly empty, part. There is no multi-client fair
// scheduling, so this runs to completion before the Serve loop
// receives its next datagram.
func (s *Server) handleDownload(ep *netio.Endpoint, peer *net.UDPAddr, path string) {
	f, err := s.cache.get(path)
	if err != nil {
		s.logger.Info("download_not_found", "peer", peer.String(), "path", path, "error", err)
		metrics.IncError(metrics.ErrNotFound)
		s.deny(ep, peer, path, "not found")
		return
	}

	buf := make([]byte, s.chunk)
	var pos uint32
	for {
		n, err := f.ReadAt(buf, int64(pos))
		if err != nil && !errors.Is(err, io.EOF) {
			s.logger.Warn("download_read_error", "peer", peer.String(), "path", path, "error", err)
			metrics.IncError(metrics.ErrIO)
			s.deny(ep, peer, path, "read failed")
			return
		}
		last := n < len(buf)
		data := append([]byte(nil), buf[:n]...)
		s.reply(ep, peer, wire.RespPart(pos, data, last))
		pos += uint32(n)
		if last {
			return
		}
	}
}

// handleDownloadPart answers a single positional byte-range request.
// It is idempotent and side-effect free, used both for the client's
// first pass at a range and for gap-filling retries.
func (s *Server) handleDownloadPart(ep *netio.Endpoint, peer *net.UDPAddr, path string, start, length uint32) {
	f, err := s.cache.get(path)
	if err != nil {
		s.logger.Info("download_part_not_found", "peer", peer.String(), "path", path, "error", err)
		metrics.IncError(metrics.ErrNotFound)
		s.deny(ep, peer, path, "not found")
		return
	}

	buf := make([]byte, length)
	n, err := f.ReadAt(buf, int64(start))
	if err != nil && !errors.Is(err, io.EOF) {
		s.logger.Warn("download_part_read_error", "peer", peer.String(), "path", path, "error", err)
		metrics.IncError(metrics.ErrIO)
		s.deny(ep, peer, path, "read failed")
		return
	}
	s.reply(ep, peer, wire.RespPart(start, buf[:n], false))
}

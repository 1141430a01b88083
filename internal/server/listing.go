package server

import (
	"net"
	"os"
	"path/filepath"

	"github.com/kstaniek/go-fftp/internal/fsmeta"
	"github.com/kstaniek/go-fftp/internal/metrics"
	"github.com/kstaniek/go-fftp/internal/netio"
	"github.com/kstaniek/go-fftp/internal/wire"
)

// handleList enumerates the immediate, non-recursive children of dir
// and replies with a single Directory response. If the listing would
// not fit in one frame, the server returns NotAllowed rather than
// truncating it.
func (s *Server) handleList(ep *netio.Endpoint, peer *net.UDPAddr, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger.Warn("list_error", "peer", peer.String(), "dir", dir, "error", err)
		s.deny(ep, peer, dir, "list failed")
		return
	}

	files := make([]wire.FileData, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		full := filepath.Join(dir, e.Name())
		files = append(files, wire.FileData{
			Path:    e.Name(),
			Created: fsmeta.Created(full),
			Size:    uint64(info.Size()),
		})
	}

	resp := wire.RespDirectory(files)
	frame, err := wire.EncodeResponse(resp)
	if err != nil || len(frame) > wire.MaximumSize {
		s.logger.Warn("list_too_large", "peer", peer.String(), "dir", dir, "entries", len(files))
		s.deny(ep, peer, dir, "listing exceeds maximum frame size")
		return
	}
	metrics.IncListRequests()
	s.reply(ep, peer, resp)
}

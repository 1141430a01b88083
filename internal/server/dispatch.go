package server

import (
	"net"

	"github.com/kstaniek/go-fftp/internal/metrics"
	"github.com/kstaniek/go-fftp/internal/netio"
	"github.com/kstaniek/go-fftp/internal/wire"
)

// dispatch resolves the target path, enforces confinement, and routes
// the request to the listing or streaming handler.
func (s *Server) dispatch(ep *netio.Endpoint, peer *net.UDPAddr, req wire.Request) {
	metrics.IncRequest(requestKindLabel(req.Kind))

	resolved, ok := resolve(s.root, req.Path)
	if !ok {
		metrics.IncError(metrics.ErrPathEscape)
		s.deny(ep, peer, req.Path, "path escapes root")
		return
	}

	switch req.Kind {
	case wire.RequestList:
		s.handleList(ep, peer, resolved)
	case wire.RequestDownload:
		s.handleDownload(ep, peer, resolved)
	case wire.RequestDownloadPart:
		s.handleDownloadPart(ep, peer, resolved, req.StartByte, req.Len)
	}
}

func requestKindLabel(k wire.RequestKind) string {
	switch k {
	case wire.RequestList:
		return "list"
	case wire.RequestDownload:
		return "download"
	case wire.RequestDownloadPart:
		return "download_part"
	default:
		return "unknown"
	}
}

func (s *Server) deny(ep *netio.Endpoint, peer *net.UDPAddr, path, reason string) {
	s.totalDenied.Add(1)
	metrics.IncDenied()
	s.logger.Info("request_denied", "peer", peer.String(), "path", path, "reason", reason)
	s.reply(ep, peer, wire.RespNotAllowed())
}

// reply encodes and sends resp to peer, logging (not surfacing to the
// peer) any I/O failure: the server does not retry or notify on a
// failed reply send.
func (s *Server) reply(ep *netio.Endpoint, peer *net.UDPAddr, resp wire.Response) {
	frame, err := wire.EncodeResponse(resp)
	if err != nil {
		s.logger.Error("response_encode_error", "peer", peer.String(), "error", err)
		return
	}
	if err := ep.SendTo(peer, frame); err != nil {
		s.logger.Warn("response_send_error", "peer", peer.String(), "error", err)
		return
	}
	s.totalBytesSent.Add(uint64(len(frame)))
	metrics.AddBytesSent(len(frame))
	if resp.Kind == wire.ResponsePart {
		metrics.IncPartsSent()
	}
}

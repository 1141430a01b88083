// Package client implements the FFTP client engine: a single
// cooperative send/receive loop that retransmits requests until a
// decodable reply arrives or a retransmit ceiling is reached, and
// reassembles full-file downloads from
// a stream of Part (or Summary-terminated) responses.
package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/kstaniek/go-fftp/internal/logging"
	"github.com/kstaniek/go-fftp/internal/netio"
	"github.com/kstaniek/go-fftp/internal/wire"
)

// Default timing: a generous first-contact timeout for List, and a
// much shorter one for the fine-grained re-requests the gap-filler
// issues.
const (
	DefaultListTimeout    = 3 * time.Second
	DefaultPartTimeout    = 200 * time.Millisecond
	defaultRetransmitCeil = 50 // bail out of the retransmit loop rather than loop forever
)

var (
	// ErrNoReply is returned once the retransmit ceiling is reached
	// without a matching response.
	ErrNoReply = errors.New("client: no response after retransmit limit")
	// ErrUnexpectedResponse is returned when a decoded Response doesn't
	// match the variant a caller was waiting for.
	ErrUnexpectedResponse = errors.New("client: unexpected response variant")
)

// Client owns a connected UDP endpoint and runs a single send/receive
// loop — no locks, since only one goroutine ever touches the endpoint.
type Client struct {
	ep     *netio.Endpoint
	logger *slog.Logger
}

// Dial binds an ephemeral local port and connects it to addr.
func Dial(addr string) (*Client, error) {
	ep, err := netio.Bind(0, netio.BindOptions{})
	if err != nil {
		return nil, fmt.Errorf("client: bind: %w", err)
	}
	if err := ep.Connect(addr); err != nil {
		_ = ep.Close()
		return nil, fmt.Errorf("client: connect: %w", err)
	}
	return &Client{ep: ep, logger: logging.L()}, nil
}

// Close releases the underlying socket.
func (c *Client) Close() error { return c.ep.Close() }

// sendRecvAdNauseum sends req repeatedly, waiting up to timeout for a
// decodable Response each time, until one arrives or the retransmit
// ceiling is hit.
func (c *Client) sendRecvAdNauseum(req wire.Request, timeout time.Duration) (wire.Response, error) {
	frame, err := wire.EncodeRequest(req)
	if err != nil {
		return wire.Response{}, fmt.Errorf("client: encode request: %w", err)
	}

	for attempt := 0; attempt < defaultRetransmitCeil; attempt++ {
		if err := c.ep.Send(frame); err != nil {
			return wire.Response{}, fmt.Errorf("client: send: %w", err)
		}
		if err := c.ep.SetReadDeadline(timeout); err != nil {
			return wire.Response{}, fmt.Errorf("client: set deadline: %w", err)
		}
		buf, err := c.ep.Recv()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				c.logger.Warn("request_timeout", "attempt", attempt+1, "path", req.Path)
				continue
			}
			return wire.Response{}, fmt.Errorf("client: recv: %w", err)
		}
		resp, err := wire.DecodeResponse(buf)
		if err != nil {
			c.logger.Warn("response_decode_error", "error", err)
			continue
		}
		return resp, nil
	}
	return wire.Response{}, ErrNoReply
}

// List fetches the directory entries at path.
func (c *Client) List(path string) ([]wire.FileData, error) {
	resp, err := c.sendRecvAdNauseum(wire.ReqList(path), DefaultListTimeout)
	if err != nil {
		return nil, err
	}
	switch resp.Kind {
	case wire.ResponseDirectory:
		return resp.Entries, nil
	case wire.ResponseNotAllowed:
		return nil, ErrNotAllowed
	default:
		return nil, ErrUnexpectedResponse
	}
}

// DownloadPart fetches exactly one byte range, used both for the
// gap-filler and directly by callers that want a single range.
func (c *Client) DownloadPart(path string, start, length uint32) ([]byte, error) {
	resp, err := c.sendRecvAdNauseum(wire.ReqDownloadPart(path, start, length), DefaultPartTimeout)
	if err != nil {
		return nil, err
	}
	switch resp.Kind {
	case wire.ResponsePart:
		return resp.Data, nil
	case wire.ResponseNotAllowed:
		return nil, ErrNotAllowed
	default:
		return nil, ErrUnexpectedResponse
	}
}

// ErrNotAllowed mirrors the server's NotAllowed response as a client-side error.
var ErrNotAllowed = errors.New("client: not allowed")

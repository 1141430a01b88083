package client

import (
	"errors"
	"fmt"
	"net"

	"github.com/kstaniek/go-fftp/internal/wire"
)

// ErrDownloadFailed marks an unrecoverable failure of the full-download loop.
var ErrDownloadFailed = errors.New("client: download failed")

// received tracks which byte ranges of a download have actually
// arrived, so gaps left by dropped Parts can be found and re-requested.
type received struct {
	ranges [][2]uint32 // each [start, end) of bytes actually written
}

func (r *received) mark(start, end uint32) {
	if end > start {
		r.ranges = append(r.ranges, [2]uint32{start, end})
	}
}

// gaps returns the [start, end) ranges within [0, total) not covered
// by any marked range, merging and sorting first.
func (r *received) gaps(total uint32) [][2]uint32 {
	if len(r.ranges) == 0 {
		if total == 0 {
			return nil
		}
		return [][2]uint32{{0, total}}
	}
	sorted := append([][2]uint32(nil), r.ranges...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1][0] > sorted[j][0]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	merged := [][2]uint32{sorted[0]}
	for _, rg := range sorted[1:] {
		last := &merged[len(merged)-1]
		if rg[0] <= last[1] {
			if rg[1] > last[1] {
				last[1] = rg[1]
			}
			continue
		}
		merged = append(merged, rg)
	}

	var gaps [][2]uint32
	cursor := uint32(0)
	for _, rg := range merged {
		if rg[0] > cursor {
			gaps = append(gaps, [2]uint32{cursor, rg[0]})
		}
		if rg[1] > cursor {
			cursor = rg[1]
		}
	}
	if cursor < total {
		gaps = append(gaps, [2]uint32{cursor, total})
	}
	return gaps
}

// Download sends a Download request, accumulates Part (or terminal
// Summary) responses into buf, then issues DownloadPart re-requests
// for any byte range a dropped datagram left unfilled.
func (c *Client) Download(path string) ([]byte, error) {
	req := wire.ReqDownload(path)
	frame, err := wire.EncodeRequest(req)
	if err != nil {
		return nil, fmt.Errorf("client: encode request: %w", err)
	}

	var buf []byte
	var total uint32
	haveTotal := false
	var rcv received
	anyReceived := false

	ensureCap := func(end uint32) {
		if uint32(len(buf)) < end {
			grown := make([]byte, end)
			copy(grown, buf)
			buf = grown
		}
	}

	if err := c.ep.Send(frame); err != nil {
		return nil, fmt.Errorf("client: send: %w", err)
	}

	attempt := 0
	for {
		if err := c.ep.SetReadDeadline(DefaultListTimeout); err != nil {
			return nil, fmt.Errorf("client: set deadline: %w", err)
		}
		raw, err := c.ep.Recv()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				if anyReceived {
					// The stream has gone quiet; treat whatever arrived so
					// far as final and fall through to gap-fill.
					break
				}
				// Nothing at all has arrived yet — the initial Download
				// request itself may have been dropped. Retransmit it,
				// mirroring sendRecvAdNauseum's retry discipline.
				attempt++
				if attempt >= defaultRetransmitCeil {
					return nil, ErrNoReply
				}
				c.logger.Warn("download_timeout", "attempt", attempt, "path", path)
				if err := c.ep.Send(frame); err != nil {
					return nil, fmt.Errorf("client: send: %w", err)
				}
				continue
			}
			return nil, fmt.Errorf("client: recv: %w", err)
		}
		resp, err := wire.DecodeResponse(raw)
		if err != nil {
			c.logger.Warn("response_decode_error", "error", err)
			continue
		}
		anyReceived = true

		switch resp.Kind {
		case wire.ResponsePart:
			end := resp.StartByte + uint32(len(resp.Data))
			ensureCap(end)
			copy(buf[resp.StartByte:end], resp.Data)
			rcv.mark(resp.StartByte, end)
			if resp.Last {
				if !haveTotal || end > total {
					total = end
					haveTotal = true
				}
				goto gapfill
			}
		case wire.ResponseSummary:
			total = resp.TotalLen
			haveTotal = true
			ensureCap(total)
			written := uint32(0)
			for _, rg := range rcv.ranges {
				written += rg[1] - rg[0]
			}
			if written >= total {
				goto gapfill
			}
		case wire.ResponseNotAllowed:
			return nil, ErrNotAllowed
		default:
			return nil, fmt.Errorf("%w: got kind %d", ErrUnexpectedResponse, resp.Kind)
		}
	}

gapfill:
	if !haveTotal {
		total = uint32(len(buf))
	}
	for _, gap := range rcv.gaps(total) {
		length := gap[1] - gap[0]
		data, err := c.DownloadPart(path, gap[0], length)
		if err != nil {
			return nil, fmt.Errorf("%w: gap [%d,%d): %v", ErrDownloadFailed, gap[0], gap[1], err)
		}
		ensureCap(gap[0] + uint32(len(data)))
		copy(buf[gap[0]:gap[0]+uint32(len(data))], data)
		rcv.mark(gap[0], gap[0]+uint32(len(data)))
	}

	return buf[:total], nil
}

package server

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kstaniek/go-fftp/internal/client"
)

// dropOnceRelay forwards UDP datagrams between a single client and the
// server, dropping the Nth server-to-client datagram exactly once —
// simulating the network loss the client's gap-filler must recover from.
func dropOnceRelay(t *testing.T, serverAddr string, dropNth int) string {
	t.Helper()
	front, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	back, err := net.DialUDP("udp4", nil, mustResolve(t, serverAddr))
	if err != nil {
		t.Fatal(err)
	}

	var clientAddr atomic.Pointer[net.UDPAddr]
	dropped := false
	count := 0

	go func() {
		buf := make([]byte, 65535)
		for {
			n, addr, err := front.ReadFromUDP(buf)
			if err != nil {
				return
			}
			clientAddr.Store(addr)
			_, _ = back.Write(buf[:n])
		}
	}()
	go func() {
		buf := make([]byte, 65535)
		for {
			n, err := back.Read(buf)
			if err != nil {
				return
			}
			count++
			if count == dropNth && !dropped {
				dropped = true
				continue
			}
			if addr := clientAddr.Load(); addr != nil {
				_, _ = front.WriteToUDP(buf[:n], addr)
			}
		}
	}()

	t.Cleanup(func() { front.Close(); back.Close() })
	return front.LocalAddr().String()
}

func mustResolve(t *testing.T, addr string) *net.UDPAddr {
	t.Helper()
	a, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestIntegration_LossyDownloadGapFill(t *testing.T) {
	root := t.TempDir()
	content := make([]byte, 200)
	for i := range content {
		content[i] = byte(i)
	}
	if err := os.WriteFile(filepath.Join(root, "f.bin"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	srv := NewServer(
		WithListenAddr("127.0.0.1:0"),
		WithRoot(root),
		WithChunkSize(32),
	)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = srv.Serve(ctx) }()
	select {
	case <-srv.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("server not ready")
	}
	defer cancel()

	relayAddr := dropOnceRelay(t, srv.Addr(), 2)

	c, err := client.Dial(relayAddr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	got, err := c.Download("f.bin")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("gap-filled download mismatch: got %d bytes, want %d", len(got), len(content))
	}
}

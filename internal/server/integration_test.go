package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kstaniek/go-fftp/internal/client"
)

func startTestServer(t *testing.T, root string) (addr string, shutdown func()) {
	t.Helper()
	srv := NewServer(
		WithListenAddr("127.0.0.1:0"),
		WithRoot(root),
		WithChunkSize(16),
	)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx) }()

	select {
	case <-srv.Ready():
	case err := <-errCh:
		t.Fatalf("server exited before ready: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not become ready")
	}
	return srv.Addr(), cancel
}

func TestIntegration_ListAndDownload(t *testing.T) {
	root := t.TempDir()
	content := []byte("the quick brown fox jumps over the lazy dog")
	if err := os.WriteFile(filepath.Join(root, "hello.txt"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	addr, shutdown := startTestServer(t, root)
	defer shutdown()

	c, err := client.Dial(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	entries, err := c.List(".")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "hello.txt" {
		t.Fatalf("unexpected listing: %+v", entries)
	}
	if entries[0].Size != uint64(len(content)) {
		t.Fatalf("size = %d, want %d", entries[0].Size, len(content))
	}

	got, err := c.Download("hello.txt")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("downloaded %q, want %q", got, content)
	}
}

func TestIntegration_MissingFileNotAllowed(t *testing.T) {
	root := t.TempDir()
	addr, shutdown := startTestServer(t, root)
	defer shutdown()

	c, err := client.Dial(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.Download("nope.txt"); err != client.ErrNotAllowed {
		t.Fatalf("Download(missing) err = %v, want ErrNotAllowed", err)
	}
}

func TestIntegration_SymlinkEscapeDenied(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.txt")
	if err := os.WriteFile(secret, []byte("top secret"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root, "escape")
	if err := os.Symlink(secret, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	addr, shutdown := startTestServer(t, root)
	defer shutdown()

	c, err := client.Dial(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.Download("escape"); err != client.ErrNotAllowed {
		t.Fatalf("Download(escape) err = %v, want ErrNotAllowed", err)
	}
}

func TestIntegration_PartialRange(t *testing.T) {
	root := t.TempDir()
	content := make([]byte, 10000)
	for i := range content {
		content[i] = byte(i % 251)
	}
	if err := os.WriteFile(filepath.Join(root, "blob.bin"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	addr, shutdown := startTestServer(t, root)
	defer shutdown()

	c, err := client.Dial(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	data, err := c.DownloadPart("blob.bin", 1234, 500)
	if err != nil {
		t.Fatalf("DownloadPart: %v", err)
	}
	want := content[1234:1734]
	if string(data) != string(want) {
		t.Fatalf("partial range mismatch")
	}

	// Idempotent: re-requesting the same range returns the same bytes.
	again, err := c.DownloadPart("blob.bin", 1234, 500)
	if err != nil {
		t.Fatalf("DownloadPart (retry): %v", err)
	}
	if string(again) != string(want) {
		t.Fatalf("idempotent re-request mismatch")
	}
}

func TestIntegration_ListingShapeEmptyDir(t *testing.T) {
	root := t.TempDir()
	addr, shutdown := startTestServer(t, root)
	defer shutdown()

	c, err := client.Dial(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	entries, err := c.List(".")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty directory listing, got %d entries", len(entries))
	}
}

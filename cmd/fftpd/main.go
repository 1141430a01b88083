// Command fftpd is the FFTP server daemon: it binds a UDP socket and
// serves a directory tree to any client speaking the frame protocol
// in internal/wire.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/kstaniek/go-fftp/internal/metrics"
	"github.com/kstaniek/go-fftp/internal/server"
)

func main() {
	cfg, showVersion, err := parseFlags(os.Args[1:])
	if showVersion {
		fmt.Printf("fftpd %s (commit %s, built %s)\n", version, commit, date)
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if cfg.daemon {
		if err := daemonize(); err != nil {
			fmt.Fprintf(os.Stderr, "daemonize: %v\n", err)
			os.Exit(1)
		}
	}

	l := setupLogger(cfg.logFormat, cfg.logLevel)

	srv := server.NewServer(
		server.WithListenAddr(cfg.addr),
		server.WithRoot(cfg.root),
		server.WithChunkSize(cfg.chunkSize),
		server.WithForward(cfg.forward),
		server.WithCacheIdleTimeout(cfg.cacheIdleTO),
		server.WithLogger(l),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	startMetricsLogger(ctx, cfg.logMetricsEvery, l, &wg)

	go func() {
		if err := srv.Serve(ctx); err != nil {
			l.Error("server_error", "error", err)
			cancel()
		}
	}()

	go func() {
		if !cfg.mdnsEnable {
			return
		}
		select {
		case <-srv.Ready():
		case <-ctx.Done():
			return
		}
		addr := srv.Addr()
		var portNum int
		if _, p, err := net.SplitHostPort(addr); err == nil {
			if pn, perr := strconv.Atoi(p); perr == nil {
				portNum = pn
			}
		}
		if portNum == 0 {
			if i := strings.LastIndex(addr, ":"); i >= 0 {
				if pn, perr := strconv.Atoi(addr[i+1:]); perr == nil {
					portNum = pn
				}
			}
		}
		cleanupMDNS, err := startMDNS(ctx, cfg, portNum)
		if err != nil {
			l.Warn("mdns_start_failed", "error", err)
			return
		}
		l.Info("mdns_started", "service", mdnsServiceType, "name", cfg.mdnsName, "port", portNum)
		go func() { <-ctx.Done(); cleanupMDNS() }()
	}()

	metrics.SetReadinessFunc(func() bool {
		select {
		case <-srv.Ready():
		default:
			return false
		}
		return ctx.Err() == nil
	})
	if cfg.metricsAddr != "" {
		metrics.InitBuildInfo(version, commit, date)
		srvHTTP := metrics.StartHTTP(cfg.metricsAddr)
		defer func() { _ = srvHTTP.Shutdown(context.Background()) }()
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigCh
	l.Info("shutdown_signal", "signal", s.String())
	cancel()
	srv.Shutdown()
	wg.Wait()
}

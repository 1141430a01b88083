package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/kstaniek/go-fftp/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus counters
var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fftp_requests_total",
		Help: "Total requests received, by kind.",
	}, []string{"kind"})
	ListRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fftp_list_requests_total",
		Help: "Total directory listing requests served.",
	})
	DeniedRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fftp_denied_requests_total",
		Help: "Total requests rejected as NotAllowed (confinement or missing file).",
	})
	BytesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fftp_bytes_sent_total",
		Help: "Total response bytes written to the UDP socket.",
	})
	PartsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fftp_parts_sent_total",
		Help: "Total Part frames sent across all downloads.",
	})
	CacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fftp_handle_cache_size",
		Help: "Current number of open file handles held by the cache.",
	})
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build metadata (value is always 1).",
	}, []string{"version", "commit", "date"})
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fftp_errors_total",
		Help: "Error counters by subsystem.",
	}, []string{"where"})
	MalformedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fftp_malformed_frames_total",
		Help: "Total datagrams dropped for failing frame decode (bad length or checksum).",
	})
	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Error label constants (stable label values to bound cardinality)
const (
	ErrIO         = "io"
	ErrListen     = "listen"
	ErrPathEscape = "path_escape"
	ErrNotFound   = "not_found"
	ErrContext    = "context"
	ErrOther      = "other"
)

// StartHTTP serves Prometheus metrics at /metrics on a fresh mux,
// along with a /ready endpoint driven by the registered readiness func.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}

// Local mirrored counters, cheap to read without hitting Prometheus.
var (
	localRequests  uint64
	localList      uint64
	localDenied    uint64
	localBytesSent uint64
	localParts     uint64
	localErrors    uint64
	localMalformed uint64
)

// Snapshot is a cheap copy of local counters, suitable for periodic logging.
type Snapshot struct {
	Requests  uint64
	List      uint64
	Denied    uint64
	BytesSent uint64
	Parts     uint64
	Errors    uint64
	Malformed uint64
}

func Snap() Snapshot {
	return Snapshot{
		Requests:  atomic.LoadUint64(&localRequests),
		List:      atomic.LoadUint64(&localList),
		Denied:    atomic.LoadUint64(&localDenied),
		BytesSent: atomic.LoadUint64(&localBytesSent),
		Parts:     atomic.LoadUint64(&localParts),
		Errors:    atomic.LoadUint64(&localErrors),
		Malformed: atomic.LoadUint64(&localMalformed),
	}
}

// IncRequest records one received request of the given wire kind.
func IncRequest(kind string) {
	RequestsTotal.WithLabelValues(kind).Inc()
	atomic.AddUint64(&localRequests, 1)
}

func IncListRequests() {
	ListRequests.Inc()
	atomic.AddUint64(&localList, 1)
}

func IncDenied() {
	DeniedRequests.Inc()
	atomic.AddUint64(&localDenied, 1)
}

func AddBytesSent(n int) {
	BytesSent.Add(float64(n))
	atomic.AddUint64(&localBytesSent, uint64(n))
}

func IncPartsSent() {
	PartsSent.Inc()
	atomic.AddUint64(&localParts, 1)
}

func SetCacheSize(n int) {
	CacheSize.Set(float64(n))
}

func IncError(label string) {
	Errors.WithLabelValues(label).Inc()
	atomic.AddUint64(&localErrors, 1)
}

func IncMalformed() {
	MalformedFrames.Inc()
	atomic.AddUint64(&localMalformed, 1)
}

// InitBuildInfo sets the build info gauge (should be called once at startup).
func InitBuildInfo(version, commit, date string) {
	BuildInfo.WithLabelValues(version, commit, date).Set(1)
	for _, lbl := range []string{ErrIO, ErrListen, ErrPathEscape, ErrNotFound, ErrContext, ErrOther} {
		Errors.WithLabelValues(lbl).Add(0)
	}
}

// SetReadinessFunc registers a function used by /ready and IsReady.
func SetReadinessFunc(fn func() bool) { readinessMu.Lock(); readinessFn = fn; readinessMu.Unlock() }

// IsReady invokes the registered readiness function if present.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil {
		return true
	}
	return fn()
}

// Ready is a concise alias used at call sites.
func Ready() bool { return IsReady() }

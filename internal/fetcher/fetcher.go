package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"

	"github.com/eqzhou81/CPEN-321-sub000/internal/config"
	"go.uber.org/zap"
)

// LookupCache stores decoded upstream results between requests.
type LookupCache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
}

// Fetcher performs the outbound lookups: LeetCode problem search and job
// posting pages.
type Fetcher struct {
	http        *http.Client
	pages       *http.Client // user supplied URLs; public addresses only
	userAgent   string
	leetcodeURL string
	cache       LookupCache
	logger      *zap.Logger
}

func NewFetcher(cfg config.FetcherConfig, cache LookupCache, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		http:        &http.Client{Timeout: cfg.Timeout},
		pages:       pageClient(cfg),
		userAgent:   cfg.UserAgent,
		leetcodeURL: cfg.LeetcodeURL,
		cache:       cache,
		logger:      logger,
	}
}

var ErrPrivateAddress = errors.New("address is not public")

var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// publicOnly is a net.Dialer Control func refusing loopback, private,
// link-local and other non-routable destinations. It sees the resolved
// address, so redirects and DNS names pointing inside are refused too.
func publicOnly(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return err
	}
	ip = ip.Unmap()
	if !ip.IsGlobalUnicast() || ip.IsPrivate() || sharedAddressSpace.Contains(ip) {
		return fmt.Errorf("%w: %s", ErrPrivateAddress, ip)
	}
	return nil
}

func pageClient(cfg config.FetcherConfig) *http.Client {
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	if !cfg.AllowPrivateHosts {
		dialer.Control = publicOnly
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	if !cfg.AllowPrivateHosts {
		// a proxy would dial on our behalf and skip the address check
		transport.Proxy = nil
	}
	return &http.Client{Timeout: cfg.Timeout, Transport: transport}
}

func (f *Fetcher) cached(ctx context.Context, key string, dst any) bool {
	if f.cache == nil {
		return false
	}
	hit, err := f.cache.GetJSON(ctx, key, dst)
	if err != nil {
		f.logger.Warn("fetcher: cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (f *Fetcher) store(ctx context.Context, key string, v any) {
	if f.cache == nil {
		return
	}
	if err := f.cache.SetJSON(ctx, key, v); err != nil {
		f.logger.Warn("fetcher: cache write failed", zap.String("key", key), zap.Error(err))
	}
}

package crawl

import (
	"context"
	"strings"
	"sync"

	"github.com/fwojciec/axtree"
	"golang.org/x/time/rate"
)

var _ axtree.HostLimiter = (*HostLimiter)(nil)

// HostLimiter spaces out page loads with one token bucket per host. Hosts
// are keyed by HostKey, so "Example.com:443" and "example.com" share a
// bucket. Buckets hold a single token: a host never gets a burst of loads.
type HostLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*rate.Limiter
	perSecond rate.Limit
	overrides map[string]rate.Limit
}

// NewHostLimiter returns a HostLimiter allowing perSecond page loads per
// host. Hosts in overrides get their own rate instead. A rate of zero or
// less leaves the host unlimited.
func NewHostLimiter(perSecond float64, overrides map[string]float64) *HostLimiter {
	l := &HostLimiter{
		buckets:   make(map[string]*rate.Limiter),
		perSecond: limitOf(perSecond),
		overrides: make(map[string]rate.Limit, len(overrides)),
	}
	for host, r := range overrides {
		l.overrides[HostKey(host)] = limitOf(r)
	}
	return l
}

// Wait blocks until a page load from host is allowed or ctx is done.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	return l.bucket(HostKey(host)).Wait(ctx)
}

func (l *HostLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		r, ok := l.overrides[key]
		if !ok {
			r = l.perSecond
		}
		b = rate.NewLimiter(r, 1)
		l.buckets[key] = b
	}
	return b
}

// HostKey normalizes a URL host for rate limiting: lower case, no trailing
// dot and no default HTTP or HTTPS port.
func HostKey(host string) string {
	host = strings.ToLower(host)
	host = strings.TrimSuffix(host, ":80")
	host = strings.TrimSuffix(host, ":443")
	return strings.TrimSuffix(host, ".")
}

func limitOf(perSecond float64) rate.Limit {
	if perSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(perSecond)
}

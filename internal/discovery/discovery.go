package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tessro/telepath/internal/core"
	telerrors "github.com/tessro/telepath/internal/errors"
)

const (
	DefaultService = "_http._tcp"
	DefaultDomain  = "local."
	defaultTimeout = 3 * time.Second
	defaultTTL     = 10 * time.Minute
)

// Receiver is a receiver found on the network or added by hand.
type Receiver struct {
	core.Endpoint
	Service  string    `json:"service,omitempty"`
	Manual   bool      `json:"manual,omitempty"`
	LastSeen time.Time `json:"last_seen"`
}

// BrowseFunc streams service entries into entries until ctx ends, then
// closes entries. zeroconf's Resolver.Browse has this contract.
type BrowseFunc func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error

// Option configures a Browser.
type Option func(*Browser)

// WithServices sets the mDNS service types to browse.
func WithServices(services ...string) Option {
	return func(b *Browser) {
		var keep []string
		for _, s := range services {
			if s = strings.TrimSpace(s); s != "" {
				keep = append(keep, s)
			}
		}
		if len(keep) > 0 {
			b.services = keep
		}
	}
}

// WithDomain sets the mDNS domain.
func WithDomain(domain string) Option {
	return func(b *Browser) {
		if domain != "" {
			b.domain = domain
		}
	}
}

// WithTimeout bounds a single Browse call.
func WithTimeout(d time.Duration) Option {
	return func(b *Browser) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(b *Browser) {
		if log != nil {
			b.log = log
		}
	}
}

// WithBrowseFunc replaces the mDNS resolver.
func WithBrowseFunc(fn BrowseFunc) Option {
	return func(b *Browser) {
		if fn != nil {
			b.browse = fn
		}
	}
}

// Browser finds receivers over mDNS and remembers them.
type Browser struct {
	services []string
	domain   string
	timeout  time.Duration
	ttl      time.Duration
	browse   BrowseFunc
	log      *zap.Logger

	mu        sync.RWMutex
	receivers map[string]*Receiver // keyed by address
}

// NewBrowser creates a Browser.
func NewBrowser(opts ...Option) *Browser {
	b := &Browser{
		services:  []string{DefaultService},
		domain:    DefaultDomain,
		timeout:   defaultTimeout,
		ttl:       defaultTTL,
		browse:    zeroconfBrowse,
		log:       zap.NewNop(),
		receivers: make(map[string]*Receiver),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func zeroconfBrowse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("init resolver: %w", err)
	}
	return resolver.Browse(ctx, service, domain, entries)
}

// Browse searches every configured service for the browse timeout and
// returns the receivers seen during this call. A failing service is
// logged; Browse only fails if every service failed.
func (b *Browser) Browse(ctx context.Context) ([]Receiver, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	var (
		mu     sync.Mutex
		found  = make(map[string]Receiver)
		result telerrors.PartialResult[[]Receiver]
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, service := range b.services {
		entries := make(chan *zeroconf.ServiceEntry)

		g.Go(func() error {
			if err := b.browse(gctx, service, b.domain, entries); err != nil {
				mu.Lock()
				result.AddError(fmt.Errorf("browse %s: %w", service, err))
				mu.Unlock()
			}
			return nil
		})

		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case entry, ok := <-entries:
					if !ok {
						return nil
					}
					r, valid := receiverFromEntry(entry, service)
					if !valid {
						continue
					}
					mu.Lock()
					if _, dup := found[r.Address]; !dup {
						b.log.Debug("receiver found",
							zap.String("name", r.Name),
							zap.String("address", r.Address),
							zap.String("service", service))
					}
					found[r.Address] = r
					mu.Unlock()
				}
			}
		})
	}
	_ = g.Wait()

	for _, err := range result.Errors {
		b.log.Warn("discovery failed", zap.Error(err))
	}
	if len(found) == 0 && len(result.Errors) == len(b.services) {
		return nil, fmt.Errorf("discovery: %s", result.ErrorSummary())
	}

	b.mu.Lock()
	for _, r := range found {
		r := r
		if prev, ok := b.receivers[r.Address]; ok && prev.Manual {
			r.Manual = true
			if prev.Name != "" {
				r.Name = prev.Name
			}
		}
		b.receivers[r.Address] = &r
	}
	b.mu.Unlock()

	result.Data = make([]Receiver, 0, len(found))
	for _, r := range found {
		result.Data = append(result.Data, r)
	}
	sortReceivers(result.Data)
	return result.Data, nil
}

// receiverFromEntry turns an mDNS entry into a receiver, preferring IPv4.
func receiverFromEntry(entry *zeroconf.ServiceEntry, service string) (Receiver, bool) {
	if entry == nil {
		return Receiver{}, false
	}

	var addr string
	switch {
	case len(entry.AddrIPv4) > 0:
		addr = entry.AddrIPv4[0].String()
	case len(entry.AddrIPv6) > 0:
		addr = entry.AddrIPv6[0].String()
	case entry.HostName != "":
		addr = strings.TrimSuffix(entry.HostName, ".")
	default:
		return Receiver{}, false
	}

	name := strings.ReplaceAll(entry.Instance, `\ `, " ")
	return Receiver{
		Endpoint: core.Endpoint{Name: name, Address: addr},
		Service:  service,
		LastSeen: time.Now(),
	}, true
}

// Add remembers a receiver that cannot be discovered.
func (b *Browser) Add(ep core.Endpoint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.receivers[ep.Address] = &Receiver{Endpoint: ep, Manual: true, LastSeen: time.Now()}
}

// Forget drops a receiver by name or address. It reports whether one was removed.
func (b *Browser) Forget(identifier string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for addr, r := range b.receivers {
		if r.Address == identifier || strings.EqualFold(r.Name, identifier) {
			delete(b.receivers, addr)
			return true
		}
	}
	return false
}

// Lookup finds a known receiver by address or case-insensitive name.
// Discovered receivers expire; manually added ones do not.
func (b *Browser) Lookup(identifier string) (Receiver, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if identifier == core.DemoAddress || strings.EqualFold(identifier, core.DemoEndpoint.Name) {
		return Receiver{Endpoint: core.DemoEndpoint, Manual: true}, true
	}

	if r, ok := b.receivers[identifier]; ok && b.fresh(r) {
		return *r, true
	}
	for _, r := range b.receivers {
		if b.fresh(r) && strings.EqualFold(r.Name, identifier) {
			return *r, true
		}
	}
	return Receiver{}, false
}

// Receivers returns every known, unexpired receiver sorted by name.
func (b *Browser) Receivers() []Receiver {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Receiver
	for _, r := range b.receivers {
		if b.fresh(r) {
			out = append(out, *r)
		}
	}
	sortReceivers(out)
	return out
}

// Restore seeds the cache, typically from saved preferences.
func (b *Browser) Restore(receivers []Receiver) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range receivers {
		r := r
		if r.Address == "" {
			continue
		}
		b.receivers[r.Address] = &r
	}
}

func (b *Browser) fresh(r *Receiver) bool {
	return r.Manual || time.Since(r.LastSeen) < b.ttl
}

func sortReceivers(rs []Receiver) {
	sort.Slice(rs, func(i, j int) bool {
		if !strings.EqualFold(rs[i].Name, rs[j].Name) {
			return strings.ToLower(rs[i].Name) < strings.ToLower(rs[j].Name)
		}
		return rs[i].Address < rs[j].Address
	})
}

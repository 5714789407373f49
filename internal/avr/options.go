package avr

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/tessro/telepath/internal/core"
)

// Defaults used when no option overrides them.
const (
	DefaultPort           = 23
	DefaultDialTimeout    = 5 * time.Second
	DefaultPacerInterval  = 10 * time.Millisecond
	DefaultHealthInterval = 10 * time.Second
	writeTimeout          = 2 * time.Second
)

// Preferences supplies user settings that are read at call time.
type Preferences interface {
	// VolumeCeiling is the highest volume the user allows for z.
	VolumeCeiling(z core.ZoneID) float64
	// SelectedZone is the zone driven by hardware volume keys.
	SelectedZone() core.ZoneID
}

// DialFunc opens the control socket.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Option configures a Connection.
type Option func(*options)

type options struct {
	port           int
	dialTimeout    time.Duration
	pacerInterval  time.Duration
	healthInterval time.Duration
	log            *zap.Logger
	prefs          Preferences
	dial           DialFunc
}

func defaultOptions() options {
	var d net.Dialer
	return options{
		port:           DefaultPort,
		dialTimeout:    DefaultDialTimeout,
		pacerInterval:  DefaultPacerInterval,
		healthInterval: DefaultHealthInterval,
		log:            zap.NewNop(),
		prefs:          defaultPreferences{},
		dial:           d.DialContext,
	}
}

// WithPort sets the TCP control port.
func WithPort(port int) Option {
	return func(o *options) {
		if port > 0 {
			o.port = port
		}
	}
}

// WithDialTimeout bounds how long a connection attempt may take.
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.dialTimeout = d
		}
	}
}

// WithPacerInterval sets how often pending volume changes are flushed.
func WithPacerInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pacerInterval = d
		}
	}
}

// WithHealthInterval sets how often socket liveness is checked.
func WithHealthInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.healthInterval = d
		}
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log == nil {
			log = zap.NewNop()
		}
		o.log = log
	}
}

// WithPreferences sets the source of volume ceilings and the selected zone.
func WithPreferences(p Preferences) Option {
	return func(o *options) {
		if p != nil {
			o.prefs = p
		}
	}
}

// WithDialer replaces the network dialer.
func WithDialer(dial DialFunc) Option {
	return func(o *options) {
		if dial != nil {
			o.dial = dial
		}
	}
}

type defaultPreferences struct{}

func (defaultPreferences) VolumeCeiling(core.ZoneID) float64 { return 80 }
func (defaultPreferences) SelectedZone() core.ZoneID       { return core.ZoneMain }

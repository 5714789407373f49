package avr

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tessro/telepath/internal/core"
	telerrors "github.com/tessro/telepath/internal/errors"
)

const maxLineLength = 4096

// session is one connection attempt and, once dialed, the socket and the
// tasks that serve it. A session is never reused after Stop.
type session struct {
	id       string
	endpoint core.Endpoint
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	writeMu sync.Mutex
	conn    net.Conn
	alive   atomic.Bool

	// ready is closed once the dial has resolved; dialErr is set before.
	ready   chan struct{}
	dialErr error
	done    chan struct{}
}

func newSession(ctx context.Context, ep core.Endpoint, log *zap.Logger) *session {
	ctx, cancel := context.WithCancel(ctx)
	id := uuid.NewString()
	return &session{
		id:       id,
		endpoint: ep,
		log:      log.With(zap.String("session", id), zap.String("receiver", ep.Address)),
		ctx:      ctx,
		cancel:   cancel,
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// attach installs the dialed socket unless the session was already stopped.
func (s *session) attach(conn net.Conn) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.conn = conn
	s.alive.Store(true)
	return true
}

// send writes one encoded command.
func (s *session) send(line string) error {
	if !s.alive.Load() {
		return telerrors.ErrNotConnected
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.conn == nil {
		return telerrors.ErrNotConnected
	}

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := io.WriteString(s.conn, line); err != nil {
		s.alive.Store(false)
		return fmt.Errorf("write %s: %w", strings.TrimSpace(line), err)
	}
	return nil
}

// close cancels the tasks and closes the socket. After close returns no
// write can reach the socket.
func (s *session) close() {
	s.cancel()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.alive.Store(false)
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

// receive reads CR-delimited status lines until the socket fails or the
// session is stopped.
func (s *session) receive(ctx context.Context, store *Store) error {
	scanner := bufio.NewScanner(s.conn)
	scanner.Buffer(make([]byte, 0, 512), maxLineLength)
	scanner.Split(LimitLines(maxLineLength))

	for scanner.Scan() {
		line := scanner.Text()
		d, ok := ParseLine(line)
		if !ok {
			if line != "" {
				s.log.Debug("ignored status line", zap.String("line", line))
			}
			continue
		}
		store.Apply(d)
	}

	if ctx.Err() != nil {
		return nil
	}

	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	s.alive.Store(false)
	s.log.Warn("receive loop ended", zap.Error(err))
	return nil
}

// run dials the receiver and serves the session until it is stopped.
func (c *Connection) run(s *session) {
	defer close(s.done)

	addr := net.JoinHostPort(s.endpoint.Address, strconv.Itoa(c.opts.port))
	dialCtx, cancel := context.WithTimeout(s.ctx, c.opts.dialTimeout)
	conn, err := c.opts.dial(dialCtx, "tcp", addr)
	cancel()

	if err != nil {
		s.dialErr = fmt.Errorf("dial %s: %w", addr, err)
		s.log.Warn("connect failed", zap.Error(err))
		c.transition(s, StateFaulted)
		close(s.ready)
		return
	}
	if !s.attach(conn) {
		_ = conn.Close()
		close(s.ready)
		return
	}

	s.log.Info("connected", zap.String("addr", addr))
	c.transition(s, StateReady)
	close(s.ready)

	if err := c.send(s, QueryVitals{}); err != nil {
		s.log.Warn("initial query failed", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(s.ctx)
	g.Go(func() error { return s.receive(gctx, c.store) })
	for _, z := range core.Zones {
		p := &pacer{
			zone:     z,
			pending:  c.pending[z],
			interval: c.opts.pacerInterval,
			send:     s.send,
			log:      s.log,
		}
		g.Go(func() error { return p.run(gctx) })
	}
	g.Go(func() error { return c.healthCheck(gctx, s) })
	g.Go(func() error {
		// Unblocks receive when the start context ends without Stop.
		<-gctx.Done()
		s.close()
		return nil
	})

	if err := g.Wait(); err != nil {
		s.log.Warn("session ended", zap.Error(err))
	}

	c.mu.Lock()
	current := c.session == s
	c.mu.Unlock()
	if current {
		s.log.Info("session cancelled")
		c.transition(s, StateIdle)
	}
}

// healthCheck periodically publishes socket liveness.
func (c *Connection) healthCheck(ctx context.Context, s *session) error {
	ticker := time.NewTicker(c.opts.healthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.checkHealth(s)
		}
	}
}

func (c *Connection) checkHealth(s *session) {
	alive := s.alive.Load()
	if s.ctx.Err() != nil {
		return
	}

	c.mu.Lock()
	current := c.session == s
	faulted := false
	if current && !alive && c.state == StateReady {
		c.state = StateFaulted
		faulted = true
	}
	c.mu.Unlock()

	if !current {
		return
	}
	if c.store.Snapshot().Connected != alive {
		c.store.SetConnected(alive)
	}
	if faulted {
		s.log.Warn("receiver connection lost")
	}
}

package lineproto

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/oakmoor-systems/doorcore/internal/door"
	"github.com/oakmoor-systems/doorcore/internal/infrastructure/config"
	"github.com/oakmoor-systems/doorcore/internal/infrastructure/logging"
)

// maxLineLength bounds a single command line. Commands are short tokens;
// anything longer is a misbehaving client.
const maxLineLength = 256

// defaultReadTimeout applies when the config leaves the read timeout unset.
const defaultReadTimeout = 30 * time.Second

// Server is the raw TCP line-protocol listener.
//
// Each line received is a command token for the door controller; the reply
// is the bare status token followed by a newline. An empty line reports the
// current status without side effects. Unrecognised tokens are silent
// no-ops at the controller and still answer with the current status.
type Server struct {
	cfg        config.LineProtoConfig
	logger     *logging.Logger
	controller *door.Controller

	listener net.Listener
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a line-protocol server. It does not listen until Start.
func New(cfg config.LineProtoConfig, logger *logging.Logger, controller *door.Controller) (*Server, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if controller == nil {
		return nil, fmt.Errorf("door controller is required")
	}
	return &Server{
		cfg:        cfg,
		logger:     logger,
		controller: controller,
	}, nil
}

// Start opens the TCP listener and begins accepting connections.
// It returns immediately; connections are serviced in background goroutines.
func (s *Server) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Info("line protocol listener disabled")
		return nil
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = listener

	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.logger.Info("line protocol listener started", "address", listener.Addr().String())

	s.wg.Add(1)
	go s.acceptLoop(srvCtx)

	return nil
}

// Addr returns the bound listener address, or empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close stops the listener and waits for in-flight connections to finish.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	err := s.listener.Close()
	s.wg.Wait()
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("closing line protocol listener: %w", err)
	}
	return nil
}

// acceptLoop accepts connections until the listener closes.
func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("line protocol accept failed", "error", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

// serveConn services one client connection line by line.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close() //nolint:errcheck // Best-effort close on teardown

	remote := conn.RemoteAddr().String()
	s.logger.Debug("line protocol client connected", "remote", remote)

	readTimeout := time.Duration(s.cfg.ReadTimeout) * time.Second
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, maxLineLength), maxLineLength)

	for {
		if ctx.Err() != nil {
			return
		}
		//nolint:errcheck // Best-effort deadline; read error surfaces in Scan
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && ctx.Err() == nil {
				s.logger.Debug("line protocol read ended", "remote", remote, "error", err)
			}
			return
		}

		line := strings.TrimRight(scanner.Text(), "\r")
		cmd := door.ParseCommand(line, s.controller.Protocol())

		status, pulsed := s.controller.Apply(ctx, cmd)
		if pulsed {
			s.logger.Info("line protocol command pulsed relay", "remote", remote, "command", cmd.String())
		}

		//nolint:errcheck // Best-effort deadline; write error ends the connection below
		conn.SetWriteDeadline(time.Now().Add(readTimeout))
		if _, err := fmt.Fprintf(conn, "%s\n", status.Description()); err != nil {
			s.logger.Debug("line protocol write failed", "remote", remote, "error", err)
			return
		}
	}
}

package daemon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/john-yian/ckb-next/internal/command"
	"github.com/john-yian/ckb-next/internal/device"
	"github.com/john-yian/ckb-next/internal/infrastructure/config"
	"github.com/john-yian/ckb-next/internal/infrastructure/mqtt"
	"github.com/john-yian/ckb-next/internal/notify"
)

// lineQueueDepth bounds the per-device command queue. A full queue drops
// the incoming line rather than blocking the MQTT receive path.
const lineQueueDepth = 64

// Bus is the narrow MQTT surface the service needs. Satisfied by
// *mqtt.Client.
type Bus interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Metrics receives command-stream telemetry. Satisfied by
// *influxdb.Client. A nil Metrics disables telemetry.
type Metrics interface {
	WriteCommandLatency(serial string, tokens int, elapsed time.Duration)
	WriteFrameInterval(serial string, interval time.Duration)
	WriteDeviceEvent(serial string, event string)
}

// Logger is the narrow logging interface the service needs. Compatible
// with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// session is the per-device state: the engine, its notification broker,
// and the serial command queue feeding it.
type session struct {
	dev    *device.Device
	engine *command.Engine
	broker *notify.Broker
	done   chan struct{}

	// mu guards lines and closed so that a producer can never send on
	// the channel after Detach has closed it.
	mu     sync.Mutex
	lines  chan string
	closed bool
}

// enqueue offers a line to the command queue without blocking. queued
// is false when the queue is full; open is false once the session has
// started tearing down, in which case the line is discarded.
func (sess *session) enqueue(line string) (queued, open bool) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return false, false
	}
	select {
	case sess.lines <- line:
		return true, true
	default:
		return false, true
	}
}

// close shuts the command queue exactly once. The channel close happens
// under the same mutex enqueue sends under.
func (sess *session) close() {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return
	}
	sess.closed = true
	close(sess.lines)
}

// Service owns every attached device. It routes command lines from the
// MQTT control channel to one dispatch goroutine per device, persists
// profiles across attach/detach, and tears a device down when its
// engine reports an unrecoverable fault.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Each device's command
//     stream stays strictly ordered because one goroutine owns it.
type Service struct {
	cfg     config.DaemonConfig
	bus     Bus
	repo    device.ProfileRepository
	metrics Metrics
	log     Logger

	mu       sync.Mutex
	sessions map[string]*session

	// wg tracks session goroutines for Shutdown.
	wg sync.WaitGroup
}

// NewService creates a device session manager.
//
// Parameters:
//   - cfg: Daemon section of the configuration
//   - bus: MQTT connection for command input and status output
//   - repo: Profile persistence; may not be nil
//   - metrics: Telemetry sink; nil disables telemetry
func NewService(cfg config.DaemonConfig, bus Bus, repo device.ProfileRepository, metrics Metrics) *Service {
	return &Service{
		cfg:      cfg,
		bus:      bus,
		repo:     repo,
		metrics:  metrics,
		sessions: make(map[string]*session),
	}
}

// SetLogger sets an optional logger. If not set, the service stays
// silent.
func (s *Service) SetLogger(log Logger) {
	s.log = log
}

// Run subscribes to the device command topics and blocks until the
// context is cancelled, then detaches every device.
func (s *Service) Run(ctx context.Context) error {
	topic := mqtt.Topics{}.AllCommandLines()
	if err := s.bus.Subscribe(topic, 1, func(t string, payload []byte) error {
		s.handleCommandMessage(ctx, t, payload)
		return nil
	}); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}

	if s.log != nil {
		s.log.Info("device service running", "topic", topic)
	}

	<-ctx.Done()
	s.Shutdown(context.Background())
	return nil
}

// Attach registers a newly connected device and starts its command
// loop. A stored profile for the serial replaces the device's default
// profile; a missing stored profile is not an error.
//
// Returns:
//   - error: ErrAlreadyAttached, ErrTooManyDevices, or a storage error
func (s *Service) Attach(ctx context.Context, dev *device.Device) error {
	serial := dev.Serial

	s.mu.Lock()
	if _, ok := s.sessions[serial]; ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyAttached, serial)
	}
	if s.cfg.MaxDevices > 0 && len(s.sessions) >= s.cfg.MaxDevices {
		s.mu.Unlock()
		return fmt.Errorf("%w: limit %d", ErrTooManyDevices, s.cfg.MaxDevices)
	}
	// Reserve the slot before the storage round-trip.
	sess := &session{
		dev:   dev,
		lines: make(chan string, lineQueueDepth),
		done:  make(chan struct{}),
	}
	s.sessions[serial] = sess
	s.mu.Unlock()

	stored, err := s.repo.Load(ctx, serial)
	switch {
	case err == nil:
		dev.Profile = stored
	case errors.Is(err, device.ErrProfileNotFound):
		// First sighting; keep the device's default profile.
	default:
		if s.log != nil {
			s.log.Warn("stored profile unusable, using defaults",
				"serial", serial,
				"error", err,
			)
		}
	}

	sess.broker = notify.NewBroker(serial, s.bus, 0)
	sess.engine = command.New(dev, sess.broker)
	if s.log != nil {
		sess.engine.SetLogger(s.log)
	}

	// Seed the inter-command delay from the configured frame rate.
	if s.cfg.DefaultFPS > 0 {
		if err := sess.engine.Execute(fmt.Sprintf("fps %d", s.cfg.DefaultFPS)); err != nil {
			s.mu.Lock()
			delete(s.sessions, serial)
			s.mu.Unlock()
			s.teardown(context.Background(), serial, sess)
			return fmt.Errorf("initialising device %s: %w", serial, err)
		}
	}

	s.wg.Add(1)
	go s.runSession(sess)

	s.publishStatus(serial, "attached")
	if s.metrics != nil {
		s.metrics.WriteDeviceEvent(serial, "attach")
	}
	if s.log != nil {
		s.log.Info("device attached",
			"serial", serial,
			"name", dev.Name,
		)
	}
	return nil
}

// Detach stops a device's command loop, saves its profile, and closes
// its transport. Safe to call for a device mid-teardown; the second
// caller gets ErrNotAttached.
func (s *Service) Detach(ctx context.Context, serial string) error {
	s.mu.Lock()
	sess, ok := s.sessions[serial]
	if ok {
		delete(s.sessions, serial)
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotAttached, serial)
	}

	sess.close()
	s.teardown(ctx, serial, sess)
	return nil
}

// teardown persists and releases a session's resources. The session
// must already be out of the map.
func (s *Service) teardown(ctx context.Context, serial string, sess *session) {
	if err := s.repo.Save(ctx, serial, sess.dev.Profile); err != nil {
		if s.log != nil {
			s.log.Error("saving profile failed",
				"serial", serial,
				"error", err,
			)
		}
	}

	if sess.dev.Transport != nil {
		if err := sess.dev.Transport.Close(); err != nil {
			if s.log != nil {
				s.log.Warn("closing transport failed",
					"serial", serial,
					"error", err,
				)
			}
		}
	}

	s.publishStatus(serial, "detached")
	if s.metrics != nil {
		s.metrics.WriteDeviceEvent(serial, "detach")
	}
	if s.log != nil {
		s.log.Info("device detached", "serial", serial)
	}
}

// Shutdown detaches every device and waits for the session goroutines
// to finish.
func (s *Service) Shutdown(ctx context.Context) {
	s.mu.Lock()
	serials := make([]string, 0, len(s.sessions))
	for serial := range s.sessions {
		serials = append(serials, serial)
	}
	s.mu.Unlock()

	for _, serial := range serials {
		if err := s.Detach(ctx, serial); err != nil && !errors.Is(err, ErrNotAttached) {
			if s.log != nil {
				s.log.Error("detach during shutdown failed",
					"serial", serial,
					"error", err,
				)
			}
		}
	}

	s.wg.Wait()
}

// runSession drains one device's command queue. It exits when the queue
// closes or the engine reports an unrecoverable fault.
func (s *Service) runSession(sess *session) {
	defer s.wg.Done()
	defer close(sess.done)

	serial := sess.dev.Serial
	for line := range sess.lines {
		prevFrame := sess.dev.LastRGB
		start := time.Now()
		err := sess.engine.Execute(line)
		elapsed := time.Since(start)

		if s.metrics != nil {
			s.metrics.WriteCommandLatency(serial, len(strings.Fields(line)), elapsed)
			// The engine stamps LastRGB when a line pushes a rate-limited
			// frame; the stamp delta is the achieved frame spacing.
			if last := sess.dev.LastRGB; !prevFrame.IsZero() && last.After(prevFrame) {
				s.metrics.WriteFrameInterval(serial, last.Sub(prevFrame))
			}
		}

		if err != nil {
			if errors.Is(err, device.ErrFatal) {
				if s.log != nil {
					s.log.Error("unrecoverable device fault",
						"serial", serial,
						"error", err,
					)
				}
				// Self-detach; a concurrent Detach winning the race is
				// fine.
				_ = s.Detach(context.Background(), serial)
				return
			}
			if s.log != nil {
				s.log.Warn("command line failed",
					"serial", serial,
					"error", err,
				)
			}
		}
	}
}

// handleCommandMessage routes one MQTT payload to the owning session.
// Payloads carry one or more newline-separated command lines.
func (s *Service) handleCommandMessage(ctx context.Context, topic string, payload []byte) {
	serial, ok := serialFromTopic(topic)
	if !ok {
		if s.log != nil {
			s.log.Warn("malformed command topic", "topic", topic)
		}
		return
	}

	s.mu.Lock()
	sess, ok := s.sessions[serial]
	s.mu.Unlock()
	if !ok {
		if s.log != nil {
			s.log.Debug("command for unattached device", "serial", serial)
		}
		return
	}

	for _, line := range strings.Split(string(payload), "\n") {
		if ctx.Err() != nil {
			return
		}
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		queued, open := sess.enqueue(line)
		if !open {
			// The device detached mid-payload; the rest of the lines have
			// nowhere to go.
			return
		}
		if !queued && s.log != nil {
			s.log.Warn("command queue full, line dropped",
				"serial", serial,
			)
		}
	}
}

// publishStatus publishes a retained device status message so late
// subscribers see the current attach state.
func (s *Service) publishStatus(serial, status string) {
	topic := mqtt.Topics{}.DeviceStatus(serial)
	if err := s.bus.Publish(topic, []byte(status), 1, true); err != nil {
		if s.log != nil {
			s.log.Warn("publishing device status failed",
				"serial", serial,
				"status", status,
				"error", err,
			)
		}
	}
}

// DeviceCount returns the number of attached devices.
func (s *Service) DeviceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Serials returns the attached serial numbers in unspecified order.
func (s *Service) Serials() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	serials := make([]string, 0, len(s.sessions))
	for serial := range s.sessions {
		serials = append(serials, serial)
	}
	return serials
}

// Notifier returns the notification broker for an attached device, for
// input-path event delivery.
func (s *Service) Notifier(serial string) (*notify.Broker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[serial]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotAttached, serial)
	}
	return sess.broker, nil
}

// serialFromTopic extracts the serial from a ckb/cmd/{serial} topic.
func serialFromTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != mqtt.TopicPrefix || parts[1] != "cmd" || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

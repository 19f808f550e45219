package daemon

import (
	"context"
	"time"

	"github.com/john-yian/ckb-next/internal/device"
	"github.com/john-yian/ckb-next/internal/usb"
)

// Scanner polls the USB bus and keeps the service's session set in sync
// with the devices actually present: new serials attach, vanished
// serials detach. Hotplug events on hidraw are not portable, so the
// daemon polls at a coarse interval instead.
type Scanner struct {
	svc      *Service
	vendorID uint16
	interval time.Duration

	// Enumeration and open are swappable for tests.
	enumerate func(vendorID uint16) ([]usb.DeviceInfo, error)
	open      func(info usb.DeviceInfo) (device.Transport, error)
}

// NewScanner creates a bus scanner feeding the given service.
//
// Parameters:
//   - svc: Session manager to attach/detach through
//   - vendorID: USB vendor ID to scan for
//   - interval: Poll interval; typically a couple of seconds
func NewScanner(svc *Service, vendorID uint16, interval time.Duration) *Scanner {
	return &Scanner{
		svc:      svc,
		vendorID: vendorID,
		interval: interval,
		enumerate: func(vendorID uint16) ([]usb.DeviceInfo, error) {
			return usb.Enumerate(vendorID)
		},
		open: func(info usb.DeviceInfo) (device.Transport, error) {
			return usb.Open(info)
		},
	}
}

// Run polls the bus until the context is cancelled. Detaching devices
// still present at cancellation is the service's job (Shutdown).
func (sc *Scanner) Run(ctx context.Context) {
	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()

	// First sweep immediately rather than one interval in.
	sc.Scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sc.Scan(ctx)
		}
	}
}

// Scan performs one bus sweep: attaches registered models that appeared
// and detaches serials that disappeared.
func (sc *Scanner) Scan(ctx context.Context) {
	infos, err := sc.enumerate(sc.vendorID)
	if err != nil {
		if sc.svc.log != nil {
			sc.svc.log.Warn("usb enumeration failed", "error", err)
		}
		return
	}

	// A device exposes several HID interfaces; key by serial and keep
	// the first sighting of each.
	present := make(map[string]usb.DeviceInfo)
	for _, info := range infos {
		if _, seen := present[info.Serial]; !seen {
			present[info.Serial] = info
		}
	}

	for serial, info := range present {
		if sc.svc.attached(serial) {
			continue
		}
		sc.attach(ctx, info)
	}

	for _, serial := range sc.svc.Serials() {
		if _, ok := present[serial]; ok {
			continue
		}
		if err := sc.svc.Detach(ctx, serial); err != nil {
			if sc.svc.log != nil {
				sc.svc.log.Warn("detach of removed device failed",
					"serial", serial,
					"error", err,
				)
			}
		}
	}
}

// attach opens a transport for a newly sighted device and registers a
// session for it. Unknown models are skipped quietly.
func (sc *Scanner) attach(ctx context.Context, info usb.DeviceInfo) {
	model, ok := LookupModel(info.VendorID, info.ProductID)
	if !ok {
		if sc.svc.log != nil {
			sc.svc.log.Debug("no capability table for model, skipped",
				"vendor", info.VendorID,
				"product", info.ProductID,
				"serial", info.Serial,
			)
		}
		return
	}

	transport, err := sc.open(info)
	if err != nil {
		if sc.svc.log != nil {
			sc.svc.log.Warn("opening device failed",
				"serial", info.Serial,
				"error", err,
			)
		}
		return
	}

	dev := &device.Device{
		Serial:      info.Serial,
		Name:        model.Name,
		Class:       model.Class,
		Features:    model.Features,
		Profile:     device.NewProfile(),
		MaxPollRate: model.MaxPollRate,
		PollRate:    model.MaxPollRate,
		Keymap:      model.Keymap,
		Table:       model.NewTable(),
		Transport:   transport,
	}

	if err := sc.svc.Attach(ctx, dev); err != nil {
		if sc.svc.log != nil {
			sc.svc.log.Warn("attach failed",
				"serial", info.Serial,
				"error", err,
			)
		}
		_ = transport.Close()
	}
}

// attached reports whether a serial currently has a session.
func (s *Service) attached(serial string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[serial]
	return ok
}

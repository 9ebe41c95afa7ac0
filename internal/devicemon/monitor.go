package devicemon

import (
	"context"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"lettervoice/internal/logging"
)

// Action is the kind of device change.
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

// Event describes a sound device change.
type Event struct {
	Action Action
	Device string
}

// Handler receives matched sound device events.
type Handler func(ctx context.Context, event Event)

// Monitor listens for sound capture devices appearing and disappearing.
type Monitor struct {
	logger  *slog.Logger
	handler Handler

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	done    chan struct{}
	running bool
}

// New creates a monitor that calls handler for every matched event.
func New(logger *slog.Logger, handler Handler) *Monitor {
	return &Monitor{
		logger:  logging.NewComponentLogger(logger, "device-monitor"),
		handler: handler,
	}
}

// Start begins listening. Failing to open the netlink socket is logged and
// is not an error: capture can still be retried by hand.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; microphone hotplug will not re-enable capture",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "use the retry command after plugging in a microphone"),
			logging.String(logging.FieldImpact, "automatic capture recovery unavailable"),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.done = make(chan struct{})
	m.running = true

	quit, done := m.quit, m.done
	go m.monitorLoop(ctx, conn, quit, done)

	m.logger.Debug("sound device monitor started",
		logging.String(logging.FieldEventType, "device_monitor_started"),
	)
	return nil
}

// Stop shuts the monitor down and waits for its loop to exit.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	close(m.quit)
	done := m.done
	m.quit = nil
	m.running = false
	m.mu.Unlock()

	<-done

	m.mu.Lock()
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.mu.Unlock()

	m.logger.Debug("sound device monitor stopped",
		logging.String(logging.FieldEventType, "device_monitor_stopped"),
	)
}

// Running reports whether the monitor is active.
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) monitorLoop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			m.logger.Warn("netlink monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "netlink_monitor_error"),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "microphone hotplug may go unnoticed"),
			)
		}
	}
}

// buildMatcher matches SUBSYSTEM=sound with ACTION=add|remove.
func buildMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "sound",
		},
	})
	return rules
}

func (m *Monitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	device, ok := captureDevice(uevent)
	if !ok {
		m.logger.Debug("ignoring non-capture sound event",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj),
		)
		return
	}

	event := Event{Action: Action(uevent.Action), Device: device}
	m.logger.Info("sound device changed",
		logging.String(logging.FieldEventType, "sound_device_"+string(event.Action)),
		logging.String("device", device),
	)
	if m.handler != nil {
		m.handler(ctx, event)
	}
}

// captureDevice returns the device for capture PCM nodes (pcmC<n>D<n>c) and
// whole sound cards (card<n>). Playback-only and control nodes are skipped.
func captureDevice(uevent netlink.UEvent) (string, bool) {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		base := path.Base(devname)
		if strings.HasPrefix(base, "pcmC") && strings.HasSuffix(base, "c") {
			if !strings.HasPrefix(devname, "/dev/") {
				devname = "/dev/" + devname
			}
			return devname, true
		}
		return "", false
	}

	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		devpath = uevent.KObj
	}
	base := path.Base(devpath)
	if strings.HasPrefix(base, "card") && len(base) > len("card") {
		return base, true
	}
	return "", false
}

// Package registrysync bridges mission registrations across deconfliction
// nodes over NATS, so a fleet of instances shares one logical airspace
// registry.
package registrysync

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/asgard/deconflict/internal/mission"
)

// SubjectMissions is the NATS subject mission registrations are published
// and subscribed on.
const SubjectMissions = "deconflict.registry.missions"

// Config configures a Bridge's connection to the NATS server.
type Config struct {
	URL           string
	ClientID      string
	ReconnectWait time.Duration
	MaxReconnects int
	PingInterval  time.Duration
}

// DefaultConfig returns sane defaults for a single-process deployment.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		ClientID:      "deconflict-node",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1,
		PingInterval:  30 * time.Second,
	}
}

// Bridge publishes local mission registrations to peers and applies peer
// registrations into the local registry.
type Bridge struct {
	mu      sync.RWMutex
	nc      *nats.Conn
	sub     *nats.Subscription
	cfg     Config
	reg     *mission.Registry
	log     *logrus.Logger
	skipIDs sync.Map // drone IDs this node just published, to ignore its own echo
}

// New creates a Bridge bound to reg. Connect must be called before Start.
func New(reg *mission.Registry, cfg Config, log *logrus.Logger) *Bridge {
	return &Bridge{reg: reg, cfg: cfg, log: log}
}

// Connect establishes the NATS connection.
func (b *Bridge) Connect() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	opts := []nats.Option{
		nats.Name(b.cfg.ClientID),
		nats.ReconnectWait(b.cfg.ReconnectWait),
		nats.MaxReconnects(b.cfg.MaxReconnects),
		nats.PingInterval(b.cfg.PingInterval),
		nats.ReconnectHandler(b.onReconnect),
		nats.DisconnectErrHandler(b.onDisconnect),
		nats.ErrorHandler(b.onError),
	}

	nc, err := nats.Connect(b.cfg.URL, opts...)
	if err != nil {
		return fmt.Errorf("registrysync: connect to %s: %w", b.cfg.URL, err)
	}
	b.nc = nc
	return nil
}

// Start subscribes to the mission subject and applies peer registrations
// into the local registry as they arrive.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.nc == nil || !b.nc.IsConnected() {
		return fmt.Errorf("registrysync: not connected")
	}

	sub, err := b.nc.Subscribe(SubjectMissions, b.handleMission)
	if err != nil {
		return fmt.Errorf("registrysync: subscribe: %w", err)
	}
	b.sub = sub
	return nil
}

// Stop unsubscribes and closes the connection.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sub != nil {
		b.sub.Unsubscribe()
	}
	if b.nc != nil {
		b.nc.Close()
	}
}

// PublishMission announces a local mission registration to peers.
func (b *Bridge) PublishMission(m *mission.Mission) error {
	b.mu.RLock()
	nc := b.nc
	b.mu.RUnlock()
	if nc == nil {
		return fmt.Errorf("registrysync: not connected")
	}

	data, err := json.Marshal(m.ToWire())
	if err != nil {
		return fmt.Errorf("registrysync: marshal mission: %w", err)
	}
	b.skipIDs.Store(m.DroneID, time.Now())
	return nc.Publish(SubjectMissions, data)
}

func (b *Bridge) handleMission(msg *nats.Msg) {
	var wire mission.Wire
	if err := json.Unmarshal(msg.Data, &wire); err != nil {
		if b.log != nil {
			b.log.WithError(err).Warn("registrysync: discarding malformed mission message")
		}
		return
	}

	if _, justPublished := b.skipIDs.LoadAndDelete(wire.DroneID); justPublished {
		return
	}

	m, err := mission.FromWire(wire)
	if err != nil {
		if b.log != nil {
			b.log.WithError(err).WithField("drone_id", wire.DroneID).Warn("registrysync: discarding invalid peer mission")
		}
		return
	}

	b.reg.Register(m)
	if b.log != nil {
		b.log.WithField("drone_id", m.DroneID).Debug("registrysync: applied peer mission registration")
	}
}

func (b *Bridge) onReconnect(nc *nats.Conn) {
	if b.log != nil {
		b.log.WithField("url", nc.ConnectedUrl()).Info("registrysync: reconnected")
	}
}

func (b *Bridge) onDisconnect(nc *nats.Conn, err error) {
	if b.log != nil {
		b.log.WithError(err).Warn("registrysync: disconnected")
	}
}

func (b *Bridge) onError(nc *nats.Conn, sub *nats.Subscription, err error) {
	if b.log != nil {
		b.log.WithError(err).Warn("registrysync: async error")
	}
}

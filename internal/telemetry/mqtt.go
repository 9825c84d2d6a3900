// Package telemetry publishes periodic health reports over MQTT.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// ErrNotConnected is returned by Publish before Connect succeeds or while
// the client is reconnecting.
var ErrNotConnected = errors.New("telemetry: mqtt not connected")

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

// Options configures a Reporter.
type Options struct {
	Broker     string
	InstanceID string
	Topic      string
	QoS        byte
	Logger     *slog.Logger
}

// publisher is the part of the MQTT client the reporter needs.
type publisher interface {
	publish(topic string, qos byte, payload []byte) error
	close()
}

// Reporter publishes HealthReports to one topic.
type Reporter struct {
	opts      Options
	sessionID string
	logger    *slog.Logger

	mu        sync.RWMutex
	pub       publisher
	connected bool
	published uint64
	errors    uint64
}

// ReporterStats counts publish outcomes.
type ReporterStats struct {
	Published uint64
	Errors    uint64
	Connected bool
}

// NewReporter returns an unconnected reporter with a fresh session id.
func NewReporter(opts Options) *Reporter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		opts:      opts,
		sessionID: uuid.NewString(),
		logger:    logger,
	}
}

// SessionID identifies this process run in every report.
func (r *Reporter) SessionID() string {
	return r.sessionID
}

// Connect dials the broker. The client reconnects on its own afterwards.
func (r *Reporter) Connect(ctx context.Context) error {
	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(r.opts.Broker)
	clientOpts.SetClientID(fmt.Sprintf("%s-%s", r.opts.InstanceID, r.sessionID[:8]))
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetConnectRetry(true)
	clientOpts.SetConnectRetryInterval(2 * time.Second)
	clientOpts.SetMaxReconnectInterval(30 * time.Second)

	clientOpts.OnConnect = func(mqtt.Client) {
		r.setConnected(true)
		r.logger.Info("camview: mqtt connection established", "broker", r.opts.Broker)
	}
	clientOpts.OnConnectionLost = func(_ mqtt.Client, err error) {
		r.setConnected(false)
		r.logger.Warn("camview: mqtt connection lost, will auto-reconnect",
			"error", err,
			"broker", r.opts.Broker,
		)
	}

	client := mqtt.NewClient(clientOpts)
	r.logger.Info("camview: connecting to mqtt broker", "broker", r.opts.Broker)

	return r.awaitConnect(ctx, &mqttPublisher{client: client}, client.Connect(), connectTimeout)
}

// awaitConnect waits for the connect token. With connect-retry enabled the
// client keeps dialing after a timeout or cancellation, so it is closed on
// every failure path.
func (r *Reporter) awaitConnect(ctx context.Context, pub publisher, token mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-timer.C:
		pub.close()
		return fmt.Errorf("mqtt connection timeout")
	case <-ctx.Done():
		pub.close()
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		pub.close()
		return fmt.Errorf("mqtt connection failed: %w", err)
	}

	r.mu.Lock()
	r.pub = pub
	r.connected = true
	r.mu.Unlock()
	return nil
}

// Publish encodes and sends one report.
func (r *Reporter) Publish(report HealthReport) error {
	r.mu.RLock()
	pub, connected := r.pub, r.connected
	r.mu.RUnlock()

	if pub == nil || !connected {
		r.countError()
		return ErrNotConnected
	}

	payload, err := report.Encode()
	if err != nil {
		r.countError()
		return fmt.Errorf("failed to encode health report: %w", err)
	}

	if err := pub.publish(r.opts.Topic, r.opts.QoS, payload); err != nil {
		r.countError()
		return err
	}

	r.mu.Lock()
	r.published++
	r.mu.Unlock()

	r.logger.Debug("camview: health report published",
		"topic", r.opts.Topic,
		"size", len(payload),
		"state", report.State,
	)
	return nil
}

// Run publishes a report built from sample() every interval until ctx is
// cancelled. Publish failures are logged and the loop continues.
func (r *Reporter) Run(ctx context.Context, interval time.Duration, sample func() Snapshot) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			report := BuildReport(r.opts.InstanceID, r.sessionID, sample(), now)
			if err := r.Publish(report); err != nil {
				r.logger.Warn("camview: failed to publish health report", "error", err)
			}
		}
	}
}

// Stats returns publish counters.
func (r *Reporter) Stats() ReporterStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return ReporterStats{Published: r.published, Errors: r.errors, Connected: r.connected}
}

// Disconnect closes the connection. Safe to call without Connect.
func (r *Reporter) Disconnect() {
	r.mu.Lock()
	pub := r.pub
	r.pub = nil
	r.connected = false
	r.mu.Unlock()

	if pub != nil {
		pub.close()
		r.logger.Info("camview: mqtt disconnected")
	}
}

func (r *Reporter) setConnected(v bool) {
	r.mu.Lock()
	r.connected = v
	r.mu.Unlock()
}

func (r *Reporter) countError() {
	r.mu.Lock()
	r.errors++
	r.mu.Unlock()
}

type mqttPublisher struct {
	client mqtt.Client
}

func (p *mqttPublisher) publish(topic string, qos byte, payload []byte) error {
	token := p.client.Publish(topic, qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}
	return nil
}

// close stops the client, including a connect still being retried.
func (p *mqttPublisher) close() {
	p.client.Disconnect(250)
}

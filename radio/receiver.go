package radio

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/inconshreveable/log15"

	"github.com/biowearables/breath"
)

// Receiver rebuilds the breath data of a remote sensor from its telemetry
// records. It counts inhales and exhales from the direction edges it sees and
// runs its own target oscillator.
type Receiver struct {
	log log.Logger

	link   sync.Mutex // guards client and cfg
	client mqtt.Client
	cfg    Config

	mu       sync.Mutex
	forward  []breath.Publisher
	latest   breath.Features
	received time.Time
	records  int64
	start    time.Time
	osc      *breath.Oscillator
}

// Listen connects a receiver to the broker of c and subscribes to its group.
// Every record received is also passed to forward.
func Listen(c Config, l log.Logger, forward ...breath.Publisher) (*Receiver, error) {
	r := NewReceiver(l, forward...)
	if err := r.Attach(c); err != nil {
		return nil, err
	}
	return r, nil
}

// NewReceiver returns a receiver that is not attached to a broker. Records
// are fed to it with Handle.
func NewReceiver(l log.Logger, forward ...breath.Publisher) *Receiver {
	r := &Receiver{
		log:     l,
		forward: forward,
		start:   time.Now(),
		osc:     breath.NewOscillator(breath.DefaultFrequency),
	}
	r.latest.Direction = breath.Unknown
	r.latest.Position = 0x7fff
	r.latest.Velocity = 0x7fff
	return r
}

// Attach connects the receiver to the broker of c and subscribes to its
// group. Records may be handled before Attach returns, so every forward
// publisher must be ready.
func (r *Receiver) Attach(c Config) error {
	client, err := connect(c, "receiver")
	if err != nil {
		return err
	}

	if err := r.subscribe(client, c); err != nil {
		client.Disconnect(250)
		return err
	}

	r.link.Lock()
	r.client = client
	r.cfg = c
	r.link.Unlock()

	r.log.Info("subscribed", "topic", c.Topic())
	return nil
}

func (r *Receiver) subscribe(client mqtt.Client, c Config) error {
	token := client.Subscribe(c.Topic(), c.QoS, func(_ mqtt.Client, m mqtt.Message) {
		if err := r.Handle(m.Payload()); err != nil {
			r.log.Debug("could not handle record", "err", err)
		}
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("radio: could not subscribe to %s: %w", c.Topic(), token.Error())
	}
	return nil
}

// SetGroup moves the receiver to another group, 0..255. Counters and the
// target are kept.
func (r *Receiver) SetGroup(group int) error {
	if group < 0 || group > 0xff {
		return fmt.Errorf("radio: invalid group %d", group)
	}

	r.link.Lock()
	defer r.link.Unlock()

	if r.client == nil {
		r.cfg.Group = group
		return nil
	}
	if group == r.cfg.Group {
		return nil
	}

	old := r.cfg.Topic()
	c := r.cfg
	c.Group = group
	if err := r.subscribe(r.client, c); err != nil {
		return err
	}
	if token := r.client.Unsubscribe(old); token.Wait() && token.Error() != nil {
		r.log.Warn("could not unsubscribe", "topic", old, "err", token.Error())
	}
	r.cfg = c

	r.log.Info("group changed", "topic", c.Topic())
	return nil
}

// Group returns the group the receiver follows.
func (r *Receiver) Group() int {
	r.link.Lock()
	defer r.link.Unlock()
	return r.cfg.Group
}

// Forward adds publishers receiving every record handled from now on.
func (r *Receiver) Forward(p ...breath.Publisher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forward = append(r.forward[:len(r.forward):len(r.forward)], p...)
}

// Handle decodes a telemetry record.
func (r *Receiver) Handle(payload []byte) error {
	r.mu.Lock()
	f := r.latest
	prev := f.Direction
	if err := f.UnmarshalBinary(payload); err != nil {
		r.mu.Unlock()
		return err
	}

	switch {
	case f.Direction == breath.Rising && prev != breath.Rising:
		f.Inhales++
	case f.Direction == breath.Falling && prev != breath.Falling:
		f.Exhales++
	}

	now := time.Now()
	f.Time = now.Sub(r.start)
	f.Index++
	f.Target = r.osc.Target(f.Time)

	r.latest = f
	r.received = now
	r.records++
	forward := r.forward
	r.mu.Unlock()

	for _, p := range forward {
		p.Publish(f)
	}
	return nil
}

// Latest returns the last breath data received, with the target sampled now.
func (r *Receiver) Latest() breath.Features {
	r.mu.Lock()
	defer r.mu.Unlock()

	f := r.latest
	f.Target = r.osc.Target(time.Since(r.start))
	return f
}

// Records returns how many records were received.
func (r *Receiver) Records() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records
}

// Live reports whether a record arrived within d.
func (r *Receiver) Live(d time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.received.IsZero() && time.Since(r.received) <= d
}

// SetTargetFrequency changes the frequency of the local target oscillator, in
// cycles per minute.
func (r *Receiver) SetTargetFrequency(frequency float64) error {
	if !breath.ValidFrequency(frequency) {
		return fmt.Errorf("radio: invalid target frequency %v", frequency)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.osc.SetFrequency(time.Since(r.start), frequency)
	return nil
}

// Close disconnects from the broker.
func (r *Receiver) Close() {
	r.link.Lock()
	defer r.link.Unlock()
	if r.client != nil {
		r.client.Disconnect(250)
	}
}

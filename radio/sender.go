package radio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/inconshreveable/log15"

	"github.com/biowearables/breath"
)

// queueSize bounds the records waiting for the link, about 3s of sampling at
// the default period.
const queueSize = 32

// Sender publishes every feature set it receives as a telemetry record. It
// implements breath.Publisher.
type Sender struct {
	client mqtt.Client
	prefix string
	topic  atomic.Pointer[string]
	qos    byte
	log    log.Logger

	paused  atomic.Bool
	queue   chan []byte
	sent    atomic.Int64
	dropped atomic.Int64

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects a sender to the broker of c.
func Dial(c Config, l log.Logger) (*Sender, error) {
	client, err := connect(c, "sender")
	if err != nil {
		return nil, err
	}
	return NewSender(client, c, l), nil
}

// NewSender returns a sender publishing through a connected client.
func NewSender(client mqtt.Client, c Config, l log.Logger) *Sender {
	s := &Sender{
		client: client,
		prefix: c.Prefix,
		qos:    c.QoS,
		log:    l,
		queue:  make(chan []byte, queueSize),
		done:   make(chan struct{}),
	}
	topic := c.Topic()
	s.topic.Store(&topic)
	go s.run()
	return s
}

// Publish queues the telemetry record of f. It never blocks: when the queue
// is full the record is dropped. Nothing is queued while paused.
func (s *Sender) Publish(f breath.Features) {
	if s.paused.Load() {
		return
	}
	data, _ := f.MarshalBinary()
	select {
	case s.queue <- data:
	default:
		if s.dropped.Add(1)%queueSize == 1 {
			s.log.Warn("telemetry queue full, dropping records", "dropped", s.dropped.Load())
		}
	}
}

// SetStreaming starts or stops publishing. Records published while stopped
// are discarded, not queued.
func (s *Sender) SetStreaming(on bool) {
	if s.paused.Swap(!on) == on {
		s.log.Info("streaming changed", "on", on)
	}
}

// Streaming reports whether records are published.
func (s *Sender) Streaming() bool {
	return !s.paused.Load()
}

// SetGroup moves the sender to another group, 0..255. Queued records go to
// the new group.
func (s *Sender) SetGroup(group int) error {
	if group < 0 || group > 0xff {
		return fmt.Errorf("radio: invalid group %d", group)
	}
	topic := Config{Prefix: s.prefix, Group: group}.Topic()
	s.topic.Store(&topic)
	s.log.Info("group changed", "topic", topic)
	return nil
}

// Topic returns the topic records are published on.
func (s *Sender) Topic() string {
	return *s.topic.Load()
}

// Sent returns how many records were published.
func (s *Sender) Sent() int64 {
	return s.sent.Load()
}

// Dropped returns how many records were dropped.
func (s *Sender) Dropped() int64 {
	return s.dropped.Load()
}

func (s *Sender) run() {
	for {
		select {
		case <-s.done:
			return
		case data := <-s.queue:
			token := s.client.Publish(s.Topic(), s.qos, false, data)
			if !token.WaitTimeout(time.Second) {
				s.log.Debug("publish timed out")
				continue
			}
			if err := token.Error(); err != nil {
				s.log.Debug("could not publish", "err", err)
				continue
			}
			s.sent.Add(1)
		}
	}
}

// Close stops publishing and disconnects from the broker.
func (s *Sender) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.client.Disconnect(250)
	})
}

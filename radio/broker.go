package radio

import (
	"fmt"
	"log/slog"

	mqttserver "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
)

// Broker is an embedded MQTT broker, for setups where the sensor host also
// serves its receivers.
type Broker struct {
	server *mqttserver.Server
}

// StartBroker starts a broker accepting any client on a TCP address such as
// ":1883". Logs of the broker go to l.
func StartBroker(addr string, l *slog.Logger) (*Broker, error) {
	server := mqttserver.New(&mqttserver.Options{
		Logger: l,
	})

	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		return nil, fmt.Errorf("radio: could not configure broker: %w", err)
	}

	tcp := listeners.NewTCP(listeners.Config{
		Type:    "tcp",
		ID:      "breath",
		Address: addr,
	})
	if err := server.AddListener(tcp); err != nil {
		return nil, fmt.Errorf("radio: could not listen on %s: %w", addr, err)
	}

	if err := server.Serve(); err != nil {
		return nil, fmt.Errorf("radio: could not start broker: %w", err)
	}

	return &Broker{server: server}, nil
}

// Close stops the broker.
func (b *Broker) Close() error {
	return b.server.Close()
}

package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biowearables/breath"
)

func TestDefaultConfig(t *testing.T) {
	c, err := loadConfig("")
	require.NoError(t, err)
	require.NoError(t, c.validate())

	assert.Equal(t, 1, c.Gain)
	assert.Equal(t, breath.Period, c.Period)
	assert.Equal(t, float64(breath.DefaultFrequency), c.Target)
	assert.Empty(t, c.brokerURL())
	assert.Equal(t, "breath/0", c.Radio.Topic())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "breath.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
gain: 2
period: 50ms
target: 6
softClip: true
adc:
  channel: 2
simulate:
  enabled: true
  frequency: 10
radio:
  group: 3
broker: ":1884"
http: ":8080"
`), 0o644))

	c, err := loadConfig(path)
	require.NoError(t, err)
	require.NoError(t, c.validate())

	assert.Equal(t, 2, c.Gain)
	assert.Equal(t, 50*time.Millisecond, c.Period)
	assert.Equal(t, 6.0, c.Target)
	assert.True(t, c.SoftClip)
	assert.Equal(t, 2, c.ADC.Channel)
	assert.Equal(t, 3.3, c.ADC.Supply, "unset fields keep their default")
	assert.True(t, c.Simulate.Enabled)
	assert.Equal(t, 10.0, c.Simulate.Frequency)
	assert.Equal(t, 300.0, c.Simulate.Amplitude)
	assert.Equal(t, "breath/3", c.Radio.Topic())
	assert.Equal(t, "tcp://localhost:1884", c.brokerURL())
	assert.Equal(t, ":8080", c.HTTP)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gain: [1"), 0o644))
	_, err = loadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	for name, mod := range map[string]func(c *Config){
		"gain":    func(c *Config) { c.Gain = 4 },
		"period":  func(c *Config) { c.Period = 0 },
		"target":  func(c *Config) { c.Target = -1 },
		"channel": func(c *Config) { c.ADC.Channel = 4 },
		"group":   func(c *Config) { c.Radio.Group = 256 },
		"simulate": func(c *Config) {
			c.Simulate.Enabled = true
			c.Simulate.Frequency = 0
		},
	} {
		t.Run(name, func(t *testing.T) {
			c := defaultConfig()
			mod(&c)
			assert.Error(t, c.validate())
		})
	}
}

func TestOverride(t *testing.T) {
	c := defaultConfig()
	c.Target = 6
	c.HTTP = ":8080"

	f := runFlags{gain: 3, target: 10, http: ":9090", broker: "tcp://pi:1883"}
	set := map[string]bool{"gain": true, "mqtt": true}
	f.override(&c, func(name string) bool { return set[name] })

	assert.Equal(t, 3, c.Gain)
	assert.Equal(t, 6.0, c.Target, "unset flags keep the file value")
	assert.Equal(t, ":8080", c.HTTP)
	assert.Equal(t, "tcp://pi:1883", c.brokerURL())
}

func TestBrokerURL(t *testing.T) {
	c := defaultConfig()
	c.Broker = "0.0.0.0:1883"
	assert.Equal(t, "tcp://0.0.0.0:1883", c.brokerURL())

	c.Radio.Broker = "tcp://other:1883"
	assert.Equal(t, "tcp://other:1883", c.brokerURL())
}

func TestRunAll(t *testing.T) {
	boom := errors.New("boom")
	stopped := false

	err := runAll(context.Background(),
		func(ctx context.Context) error {
			<-ctx.Done()
			stopped = true
			return ctx.Err()
		},
		func(context.Context) error { return boom },
	)
	assert.ErrorIs(t, err, boom)
	assert.True(t, stopped)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = runAll(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.NoError(t, err)
}

func TestOpenSimulatedADC(t *testing.T) {
	c := defaultConfig()
	c.Simulate.Enabled = true
	adc, err := openADC(c, &breath.SimClock{})
	require.NoError(t, err)
	assert.IsType(t, &breath.Sine{}, adc)
}

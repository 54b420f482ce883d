package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/biowearables/breath"
	"github.com/biowearables/breath/ads1115"
	"github.com/biowearables/breath/radio"
)

// Config is the command configuration. It is read from a YAML file and
// overridden by flags.
type Config struct {
	Gain     int           `yaml:"gain"` // 1..3
	Period   time.Duration `yaml:"period"`
	Target   float64       `yaml:"target"` // cycles per minute
	SoftClip bool          `yaml:"softClip"`

	ADC      ADCConfig      `yaml:"adc"`
	Simulate SimulateConfig `yaml:"simulate"`

	Radio  radio.Config `yaml:"radio"`  // disabled without a broker
	Broker string       `yaml:"broker"` // embedded broker address, empty disables
	HTTP   string       `yaml:"http"`   // API address, empty disables
}

// ADCConfig selects the ADS1115 channel the sensor is wired to.
type ADCConfig struct {
	Bus     string  `yaml:"bus"`
	Addr    uint16  `yaml:"addr"`
	Channel int     `yaml:"channel"`
	Supply  float64 `yaml:"supply"` // sensor supply in volts
}

// SimulateConfig replaces the ADC by a sinusoid.
type SimulateConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Amplitude float64 `yaml:"amplitude"` // ADC counts
	Frequency float64 `yaml:"frequency"` // cycles per minute
	Noise     float64 `yaml:"noise"`
}

func defaultConfig() Config {
	r := radio.DefaultConfig
	r.Broker = ""
	return Config{
		Gain:   1,
		Period: breath.Period,
		Target: breath.DefaultFrequency,
		ADC: ADCConfig{
			Addr:    ads1115.Addr,
			Channel: ads1115.AIN0,
			Supply:  3.3,
		},
		Simulate: SimulateConfig{
			Amplitude: 300,
			Frequency: breath.DefaultFrequency,
			Noise:     2,
		},
		Radio: r,
	}
}

// loadConfig reads the YAML file at path over the defaults. An empty path
// returns the defaults.
func loadConfig(path string) (Config, error) {
	c := defaultConfig()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("could not read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("could not parse config %s: %w", path, err)
	}
	return c, nil
}

func (c Config) validate() error {
	switch {
	case c.Gain < 1 || c.Gain > 3:
		return fmt.Errorf("invalid gain %d, want 1..3", c.Gain)
	case c.Period <= 0:
		return fmt.Errorf("invalid period %v", c.Period)
	case !breath.ValidFrequency(c.Target):
		return fmt.Errorf("invalid target frequency %v", c.Target)
	case c.ADC.Channel < ads1115.AIN0 || c.ADC.Channel > ads1115.AIN3:
		return fmt.Errorf("invalid ADC channel %d", c.ADC.Channel)
	case c.Simulate.Enabled && !breath.ValidFrequency(c.Simulate.Frequency):
		return fmt.Errorf("invalid simulated frequency %v", c.Simulate.Frequency)
	case c.Radio.Group < 0 || c.Radio.Group > 0xff:
		return fmt.Errorf("invalid group %d, want 0..255", c.Radio.Group)
	}
	return nil
}

// brokerURL returns the broker to connect to. An embedded broker is used
// when no other broker is configured.
func (c Config) brokerURL() string {
	if c.Radio.Broker != "" || c.Broker == "" {
		return c.Radio.Broker
	}
	addr := c.Broker
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "tcp://" + addr
}

func (c Config) processing() []breath.ProcessorOption {
	return []breath.ProcessorOption{
		breath.WithPeriod(c.Period),
		breath.WithGain(breath.Gain(c.Gain - 1)),
		breath.WithSoftClip(c.SoftClip),
		breath.WithTargetFrequency(c.Target),
	}
}

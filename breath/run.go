package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/inconshreveable/log15"
	"github.com/spf13/cobra"

	"github.com/biowearables/breath"
	"github.com/biowearables/breath/ads1115"
	"github.com/biowearables/breath/api"
	"github.com/biowearables/breath/radio"
)

// runFlags mirror the configuration fields that can be set from the command
// line.
type runFlags struct {
	gain     int
	period   time.Duration
	target   float64
	softClip bool
	simulate bool
	bus      string
	addr     uint16
	channel  int
	broker   string
	group    int
	embedded string
	http     string
}

// override copies the flags that were set onto c.
func (f runFlags) override(c *Config, changed func(name string) bool) {
	if changed("gain") {
		c.Gain = f.gain
	}
	if changed("period") {
		c.Period = f.period
	}
	if changed("target") {
		c.Target = f.target
	}
	if changed("soft-clip") {
		c.SoftClip = f.softClip
	}
	if changed("simulate") {
		c.Simulate.Enabled = f.simulate
	}
	if changed("bus") {
		c.ADC.Bus = f.bus
	}
	if changed("addr") {
		c.ADC.Addr = f.addr
	}
	if changed("channel") {
		c.ADC.Channel = f.channel
	}
	if changed("mqtt") {
		c.Radio.Broker = f.broker
	}
	if changed("group") {
		c.Radio.Group = f.group
	}
	if changed("embedded-broker") {
		c.Broker = f.embedded
	}
	if changed("http") {
		c.HTTP = f.http
	}
}

func runCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sample the sensor and publish its features",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			f.override(&c, cmd.Flags().Changed)
			if err := c.validate(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return run(ctx, c)
		},
	}

	d := defaultConfig()
	fl := cmd.Flags()
	fl.IntVarP(&f.gain, "gain", "g", d.Gain, "position gain (1..3)")
	fl.DurationVar(&f.period, "period", d.Period, "sampling period")
	fl.Float64VarP(&f.target, "target", "t", d.Target, "target breathing frequency in cycles per minute")
	fl.BoolVar(&f.softClip, "soft-clip", d.SoftClip, "compress deep breaths instead of clamping them")
	fl.BoolVar(&f.simulate, "simulate", d.Simulate.Enabled, "simulate the sensor")
	fl.StringVar(&f.bus, "bus", d.ADC.Bus, "I²C bus name, empty for the first one")
	fl.Uint16Var(&f.addr, "addr", d.ADC.Addr, "ADS1115 I²C address")
	fl.IntVar(&f.channel, "channel", d.ADC.Channel, "ADS1115 input channel (0..3)")
	fl.StringVar(&f.broker, "mqtt", d.Radio.Broker, "MQTT broker to publish to, e.g. tcp://host:1883")
	fl.IntVar(&f.group, "group", d.Radio.Group, "receiver group (0..255)")
	fl.StringVar(&f.embedded, "embedded-broker", d.Broker, "run an MQTT broker on this address")
	fl.StringVarP(&f.http, "http", "l", d.HTTP, "host:port for the HTTP API")

	return cmd
}

func run(ctx context.Context, c Config) error {
	l := log.New("module", "breath")
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	if c.Broker != "" {
		b, err := radio.StartBroker(c.Broker, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		})))
		if err != nil {
			return err
		}
		defer b.Close()
		l.Info("broker started", "addr", c.Broker)
	}

	clock := breath.WallClock()
	adc, err := openADC(c, clock)
	if err != nil {
		return err
	}

	opts := []breath.Option{
		breath.WithClock(clock),
		breath.WithLogger(l),
		breath.Processing(c.processing()...),
		breath.PublishTo(progress(l, c.Period)),
	}

	var sender *radio.Sender
	if url := c.brokerURL(); url != "" {
		rc := c.Radio
		rc.Broker = url
		sender, err = radio.Dial(rc, log.New("module", "radio"))
		if err != nil {
			adc.Close()
			return err
		}
		defer sender.Close()
		opts = append(opts, breath.PublishTo(sender))
	}

	// srv is set before the sampling loop starts.
	var srv *api.Server
	if c.HTTP != "" {
		opts = append(opts, breath.PublishTo(breath.PublisherFunc(func(f breath.Features) {
			srv.Publish(f)
		})))
	}

	sensor, err := breath.New(adc, opts...)
	if err != nil {
		adc.Close()
		return err
	}
	defer sensor.Close()

	tasks := []func(context.Context) error{sensor.Run}
	if c.HTTP != "" {
		srv = api.NewServer(sensor, log.New("module", "api"))
		if sender != nil {
			srv.SetLink(sender)
		}
		tasks = append(tasks, func(ctx context.Context) error {
			return srv.Run(ctx, c.HTTP)
		})
	}
	return runAll(ctx, tasks...)
}

func openADC(c Config, clock breath.Clock) (breath.ADC, error) {
	if c.Simulate.Enabled {
		s := breath.NewSine(c.Simulate.Amplitude, c.Simulate.Frequency, clock)
		s.Noise = c.Simulate.Noise
		return s, nil
	}

	d, err := ads1115.New(c.ADC.Bus, c.ADC.Addr,
		ads1115.Channel(c.ADC.Channel),
		ads1115.Supply(c.ADC.Supply),
	)
	if err != nil {
		return nil, fmt.Errorf("could not open ADC: %w", err)
	}
	return d, nil
}

// progress logs the features about once a second.
func progress(l log.Logger, period time.Duration) breath.Publisher {
	every := uint64(max(time.Second/period, 1))
	return breath.PublisherFunc(func(f breath.Features) {
		if f.Index%every != 0 {
			return
		}
		l.Debug("features",
			"index", f.Index,
			"position", fmt.Sprintf("%.0f%%", breath.Percent(f.Position)),
			"velocity", fmt.Sprintf("%.0f%%", breath.Percent(f.Velocity)),
			"direction", f.Direction,
			"speed", fmt.Sprintf("%.0f%%", breath.Percent(f.Speed)),
			"inhales", f.Inhales,
			"onTarget", f.OnTarget(),
		)
	})
}

// runAll runs every task until one of them returns, then stops the others and
// waits for them. Cancellation is not reported as an error.
func runAll(ctx context.Context, tasks ...func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, len(tasks))
	for _, task := range tasks {
		go func() {
			errCh <- task(ctx)
		}()
	}

	err := <-errCh
	cancel()
	for range len(tasks) - 1 {
		<-errCh
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

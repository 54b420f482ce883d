package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/inconshreveable/log15"
	"github.com/spf13/cobra"

	"github.com/biowearables/breath"
	"github.com/biowearables/breath/api"
	"github.com/biowearables/breath/radio"
)

// liveTimeout is how long a receiver waits for a record before reporting the
// sensor as silent.
const liveTimeout = 2 * time.Second

func receiveCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Follow the features of a remote sensor",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			f.override(&c, cmd.Flags().Changed)
			if err := c.validate(); err != nil {
				return err
			}
			if c.Radio.Broker == "" {
				c.Radio.Broker = radio.DefaultConfig.Broker
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return receive(ctx, c)
		},
	}

	d := defaultConfig()
	fl := cmd.Flags()
	fl.Float64VarP(&f.target, "target", "t", d.Target, "target breathing frequency in cycles per minute")
	fl.StringVar(&f.broker, "mqtt", radio.DefaultConfig.Broker, "MQTT broker to subscribe to")
	fl.IntVar(&f.group, "group", d.Radio.Group, "receiver group (0..255)")
	fl.StringVarP(&f.http, "http", "l", d.HTTP, "host:port for the HTTP API")

	return cmd
}

func receive(ctx context.Context, c Config) error {
	l := log.New("module", "receiver")
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	r := radio.NewReceiver(log.New("module", "radio"), edges(l))
	if err := r.SetTargetFrequency(c.Target); err != nil {
		return err
	}

	tasks := []func(context.Context) error{
		func(ctx context.Context) error {
			return watch(ctx, r, l)
		},
	}
	if c.HTTP != "" {
		srv := api.NewServer(r, log.New("module", "api"))
		srv.SetLink(r)
		r.Forward(srv)
		tasks = append(tasks, func(ctx context.Context) error {
			return srv.Run(ctx, c.HTTP)
		})
	}

	// Records flow as soon as the subscription is made.
	if err := r.Attach(c.Radio); err != nil {
		return err
	}
	defer r.Close()
	l.Info("listening", "broker", c.Radio.Broker, "topic", c.Radio.Topic())

	return runAll(ctx, tasks...)
}

// edges logs every change of breathing direction.
func edges(l log.Logger) breath.Publisher {
	prev := breath.Unknown
	return breath.PublisherFunc(func(f breath.Features) {
		if f.Direction == prev {
			return
		}
		prev = f.Direction
		l.Info(f.Direction.String(), "inhales", f.Inhales, "exhales", f.Exhales, "onTarget", f.OnTarget())
	})
}

// watch reports when the remote sensor goes silent or comes back.
func watch(ctx context.Context, r *radio.Receiver, l log.Logger) error {
	t := time.NewTicker(liveTimeout)
	defer t.Stop()

	live := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			now := r.Live(liveTimeout)
			switch {
			case now && !live:
				l.Info("sensor live", "records", r.Records())
			case !now && live:
				l.Warn("sensor silent", "records", r.Records())
			}
			live = now
		}
	}
}

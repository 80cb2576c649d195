package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"impulsetracker/config"
	"impulsetracker/internal/records"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Publisher broadcasts records on NATS subjects
// <prefix>.impulse.<TOKEN> and <prefix>.check.<TOKEN>.
type Publisher struct {
	nc     *nats.Conn
	prefix string
	logger *zap.Logger
}

func Connect(cfg config.NATSConfig, logger *zap.Logger) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats url is required")
	}

	opts := []nats.Option{
		nats.Name("impulsetracker"),
		nats.Timeout(5 * time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("connected to nats", zap.String("url", cfg.URL))
	return &Publisher{nc: nc, prefix: cfg.SubjectPrefix, logger: logger}, nil
}

func (p *Publisher) ImpulseSubject(token string) string {
	return p.subject("impulse", token)
}

func (p *Publisher) CheckSubject(token string) string {
	return p.subject("check", token)
}

func (p *Publisher) subject(kind, token string) string {
	s := kind + "." + strings.ToUpper(token)
	if p.prefix == "" {
		return s
	}
	return p.prefix + "." + s
}

func (p *Publisher) WriteImpulse(_ context.Context, r records.Impulse) error {
	return p.publish(p.ImpulseSubject(r.Token), r)
}

func (p *Publisher) WriteCheck(_ context.Context, r records.Check) error {
	return p.publish(p.CheckSubject(r.Token), r)
}

func (p *Publisher) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (p *Publisher) Ready() bool {
	return p.nc != nil && p.nc.Status() == nats.CONNECTED
}

func (p *Publisher) Close() error {
	if p.nc == nil || p.nc.IsClosed() || p.nc.IsDraining() {
		return nil
	}
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return fmt.Errorf("failed to drain connection to NATS: %w", err)
	}
	return nil
}

package mail

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"
)

const subjectPrefix = "mail.send."

// NATSMailer publishes mail jobs to NATS, fire-and-forget.
type NATSMailer struct {
	nc *nats.Conn
}

// Connect dials NATS with aggressive reconnection; mail publishing
// should survive broker restarts without the auth flows noticing.
func Connect(url string) (*NATSMailer, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(1 * time.Second),
		nats.ReconnectJitter(500*time.Millisecond, 2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("WARN NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("INFO NATS reconnected to %s", nc.ConnectedUrl())
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	log.Printf("INFO Connected to NATS at %s", nc.ConnectedUrl())

	return &NATSMailer{nc: nc}, nil
}

func (m *NATSMailer) Send(_ context.Context, to string, template Template, data map[string]string) error {
	job := Job{
		To:       to,
		Template: string(template),
		Data:     data,
		QueuedAt: time.Now().UTC(),
	}

	payload, err := msgpack.Marshal(&job)
	if err != nil {
		return fmt.Errorf("marshal mail job: %w", err)
	}

	if err := m.nc.Publish(subjectPrefix+string(template), payload); err != nil {
		return fmt.Errorf("publish mail job: %w", err)
	}
	return nil
}

func (m *NATSMailer) Close() {
	m.nc.Close()
}

// LogMailer stands in when no NATS URL is configured; it logs the job
// and succeeds, which keeps local development flows usable.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to string, template Template, data map[string]string) error {
	log.Printf("INFO mail (not dispatched): to=%s template=%s data=%v", to, template, data)
	return nil
}

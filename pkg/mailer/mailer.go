package mailer

import (
	"fmt"
	"net/smtp"
	"sync"

	"github.com/bikepool/bikepool/pkg/logger"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// SendFunc delivers a single message. Production uses SMTPSender; tests
// inject their own.
type SendFunc func(Message) error

// Dispatcher drains a bounded queue of messages with a small worker pool.
// Delivery is best-effort end to end: Enqueue never blocks, send failures are
// logged and dropped, and nothing here ever reaches a booking result.
type Dispatcher struct {
	queue   chan Message
	send    SendFunc
	logger  *logger.Logger
	wg      sync.WaitGroup
	once    sync.Once
	workers int

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a dispatcher with the given worker count and queue
// capacity and starts its workers.
func NewDispatcher(send SendFunc, workers, queueSize int, log *logger.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 64
	}
	d := &Dispatcher{
		queue:   make(chan Message, queueSize),
		send:    send,
		logger:  log,
		workers: workers,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for msg := range d.queue {
		if err := d.send(msg); err != nil {
			d.logger.Warn("Failed to send email",
				logger.String("to", msg.To),
				logger.String("subject", msg.Subject),
				logger.Err(err),
			)
			continue
		}
		d.logger.Info("Email sent",
			logger.String("to", msg.To),
			logger.String("subject", msg.Subject),
		)
	}
}

// Enqueue queues a message without blocking. When the queue is full, or the
// dispatcher has been closed, the message is dropped and false returned.
func (d *Dispatcher) Enqueue(msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("Dispatcher closed, dropping message",
			logger.String("to", msg.To),
			logger.String("subject", msg.Subject),
		)
		return false
	}
	select {
	case d.queue <- msg:
		return true
	default:
		d.logger.Warn("Email queue full, dropping message",
			logger.String("to", msg.To),
			logger.String("subject", msg.Subject),
		)
		return false
	}
}

// Close stops accepting messages and waits for queued ones to drain.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})
	d.wg.Wait()
}

// SMTPConfig holds SMTP server settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPSender builds a SendFunc that delivers over plain SMTP with AUTH.
func SMTPSender(cfg SMTPConfig) SendFunc {
	return func(msg Message) error {
		body := fmt.Sprintf(
			"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
			cfg.From, msg.To, msg.Subject, msg.HTML,
		)
		var auth smtp.Auth
		if cfg.Username != "" {
			auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
		}
		addr := cfg.Host + ":" + cfg.Port
		return smtp.SendMail(addr, auth, cfg.From, []string{msg.To}, []byte(body))
	}
}

// Discard is a SendFunc that drops every message. Used when email is
// disabled by configuration.
func Discard(Message) error { return nil }

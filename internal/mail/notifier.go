// Package mail renders and delivers account emails in the background.
package mail

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/dtroode/vkn-server/internal/logger"
	"github.com/dtroode/vkn-server/internal/model"
)

var _ model.Notifier = (*Notifier)(nil)

type Options struct {
	ClientURL   string
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
}

// Notifier queues emails and delivers them from a fixed pool of workers.
// Delivery failures are logged and never reach the caller.
type Notifier struct {
	sender    Sender
	templates *Templates
	opts      Options
	logger    *logger.Logger

	queue chan model.Email
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewNotifier(sender Sender, templates *Templates, opts Options, logger *logger.Logger) *Notifier {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 0 {
		opts.QueueSize = 0
	}

	n := &Notifier{
		sender:    sender,
		templates: templates,
		opts:      opts,
		logger:    logger,
		queue:     make(chan model.Email, opts.QueueSize),
	}

	n.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go n.worker()
	}
	return n
}

// Notify enqueues email without waiting for delivery. The email is dropped
// when the queue is full or the notifier is closed.
func (n *Notifier) Notify(ctx context.Context, email model.Email) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		n.logger.WarnContext(ctx, "Mail notifier: closed, dropping email", "kind", email.Kind, "to", email.To)
		return
	}

	select {
	case n.queue <- email:
	default:
		n.logger.WarnContext(ctx, "Mail notifier: queue is full, dropping email", "kind", email.Kind, "to", email.To)
	}
}

// Close stops accepting emails and waits until queued ones are delivered or ctx is done.
func (n *Notifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Notifier) worker() {
	defer n.wg.Done()
	for email := range n.queue {
		n.deliver(email)
	}
}

func (n *Notifier) deliver(email model.Email) {
	log := n.logger.With("kind", email.Kind, "to", email.To)

	link, err := url.JoinPath(n.opts.ClientURL, string(email.Kind), email.Token)
	if err != nil {
		log.Error("Mail notifier: failed to build link", "error", err)
		return
	}

	subject, body, err := n.templates.Render(email.Kind, TemplateData{
		Username: email.Username,
		Link:     link,
		Token:    email.Token,
	})
	if err != nil {
		log.Error("Mail notifier: failed to render email", "error", err)
		return
	}

	ctx := context.Background()
	if n.opts.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.opts.SendTimeout)
		defer cancel()
	}

	if err := n.sender.Send(ctx, Message{To: email.To, Subject: subject, HTMLBody: body}); err != nil {
		log.Error("Mail notifier: failed to send email", "error", err)
		return
	}
	log.Debug("Mail notifier: email sent")
}

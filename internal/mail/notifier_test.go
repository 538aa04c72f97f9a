package mail

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/vkn-server/internal/model"
	"github.com/dtroode/vkn-server/internal/testutil"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []Message
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeSender) Send(ctx context.Context, msg Message) error {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeSender) messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.sent...)
}

func newTestNotifier(t *testing.T, sender Sender, opts Options) *Notifier {
	t.Helper()
	tmpl, err := NewTemplates()
	require.NoError(t, err)
	if opts.ClientURL == "" {
		opts.ClientURL = "http://localhost:3000"
	}
	return NewNotifier(sender, tmpl, opts, testutil.MakeNoopLogger())
}

func TestNotifier_DeliversRenderedEmail(t *testing.T) {
	sender := &fakeSender{}
	n := newTestNotifier(t, sender, Options{Workers: 2, QueueSize: 10, SendTimeout: time.Second})

	n.Notify(context.Background(), model.Email{
		Kind:     model.EmailVerify,
		To:       "alice@example.com",
		Username: "alice",
		Token:    "abc.def.ghi",
	})
	n.Notify(context.Background(), model.Email{
		Kind:     model.EmailResetPassword,
		To:       "bob@example.com",
		Username: "bob",
		Token:    "tok",
	})
	require.NoError(t, n.Close(context.Background()))

	sent := sender.messages()
	require.Len(t, sent, 2)

	byTo := map[string]Message{}
	for _, m := range sent {
		byTo[m.To] = m
	}
	assert.Equal(t, "VKN verification email", byTo["alice@example.com"].Subject)
	assert.Contains(t, byTo["alice@example.com"].HTMLBody, "http://localhost:3000/verify-email/abc.def.ghi")
	assert.Equal(t, "VKN reset password email", byTo["bob@example.com"].Subject)
	assert.Contains(t, byTo["bob@example.com"].HTMLBody, "http://localhost:3000/reset-password/tok")
}

func TestNotifier_DropsWhenQueueFull(t *testing.T) {
	sender := &fakeSender{started: make(chan struct{}, 3), release: make(chan struct{})}
	n := newTestNotifier(t, sender, Options{Workers: 1, QueueSize: 1, SendTimeout: 5 * time.Second})
	ctx := context.Background()

	n.Notify(ctx, model.Email{Kind: model.EmailVerify, To: "1@example.com", Token: "t"})
	<-sender.started

	n.Notify(ctx, model.Email{Kind: model.EmailVerify, To: "2@example.com", Token: "t"})
	n.Notify(ctx, model.Email{Kind: model.EmailVerify, To: "3@example.com", Token: "t"})

	close(sender.release)
	require.NoError(t, n.Close(ctx))

	sent := sender.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, "1@example.com", sent[0].To)
	assert.Equal(t, "2@example.com", sent[1].To)
}

func TestNotifier_NotifyAfterClose(t *testing.T) {
	sender := &fakeSender{}
	n := newTestNotifier(t, sender, Options{Workers: 1, QueueSize: 1})

	require.NoError(t, n.Close(context.Background()))
	require.NoError(t, n.Close(context.Background()))

	assert.NotPanics(t, func() {
		n.Notify(context.Background(), model.Email{Kind: model.EmailVerify, To: "a@example.com"})
	})
	assert.Empty(t, sender.messages())
}

func TestNotifier_CloseHonoursContext(t *testing.T) {
	sender := &fakeSender{started: make(chan struct{}, 1), release: make(chan struct{})}
	n := newTestNotifier(t, sender, Options{Workers: 1, QueueSize: 1, SendTimeout: 5 * time.Second})

	n.Notify(context.Background(), model.Email{Kind: model.EmailVerify, To: "a@example.com"})
	<-sender.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, n.Close(ctx), context.DeadlineExceeded)

	close(sender.release)
	require.NoError(t, n.Close(context.Background()))
}

func TestNotifier_SendFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	tmpl, err := NewTemplates()
	require.NoError(t, err)

	sender := &fakeSender{err: errors.New("smtp down")}
	n := NewNotifier(sender, tmpl, Options{ClientURL: "http://localhost:3000", Workers: 1, QueueSize: 1}, testutil.MakeBufferLogger(&buf))

	n.Notify(context.Background(), model.Email{Kind: model.EmailVerify, To: "a@example.com", Token: "t"})
	require.NoError(t, n.Close(context.Background()))

	assert.Contains(t, buf.String(), "failed to send email")
	assert.Contains(t, buf.String(), "smtp down")
}

func TestNotifier_UnknownKindIsNotSent(t *testing.T) {
	sender := &fakeSender{}
	n := newTestNotifier(t, sender, Options{Workers: 1, QueueSize: 1})

	n.Notify(context.Background(), model.Email{Kind: "welcome", To: "a@example.com"})
	require.NoError(t, n.Close(context.Background()))

	assert.Empty(t, sender.messages())
}

package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"shiny/service/channel"
	"shiny/service/util"
)

type Sender interface {
	Send(ctx context.Context, msg Rendered) error
}

type ChannelResolver interface {
	Resolve(ctx context.Context, id string) (channel.Channel, error)
}

type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 6,
	BaseDelay:   500 * time.Millisecond,
	MaxDelay:    30 * time.Second,
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay * time.Duration(1<<uint(attempt))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Result reports per-sender outcomes of one Publish.
type Result struct {
	Channel string            `json:"channel"`
	Sent    []string          `json:"sent"`
	Failed  map[string]string `json:"failed,omitempty"`
}

type Publisher struct {
	resolver ChannelResolver
	policy   RetryPolicy
	logger   *slog.Logger

	mu      sync.RWMutex
	senders map[string]Sender
}

func NewPublisher(resolver ChannelResolver, policy RetryPolicy, logger *slog.Logger) *Publisher {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Publisher{
		resolver: resolver,
		policy:   policy,
		logger:   logger,
		senders:  make(map[string]Sender),
	}
}

func (p *Publisher) RegisterSender(name string, sender Sender) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.senders[name] = sender
}

func (p *Publisher) DeregisterSender(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.senders, name)
}

func (p *Publisher) Senders() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return sortedKeys(p.senders)
}

// Publish renders n with its channel and hands it to every sender. It fails
// only when no sender succeeded.
func (p *Publisher) Publish(ctx context.Context, n Notification) (*Result, error) {
	if strings.TrimSpace(n.Message) == "" {
		return nil, NewPermanentError(fmt.Errorf("message is required"))
	}

	c, err := p.resolver.Resolve(ctx, n.Channel)
	if err != nil {
		return nil, util.LogError(p.logger, "Failed to resolve channel", err, "channel", n.Channel)
	}
	msg := Render(n, c)

	p.mu.RLock()
	senders := make(map[string]Sender, len(p.senders))
	for name, s := range p.senders {
		senders[name] = s
	}
	p.mu.RUnlock()

	result := &Result{Channel: msg.Channel, Sent: []string{}}
	if len(senders) == 0 {
		p.logger.Warn("No senders registered, dropping notification", "channel", msg.Channel)
		return result, nil
	}

	var lastErr error
	for _, name := range sortedKeys(senders) {
		if err := p.sendWithRetry(ctx, name, senders[name], msg); err != nil {
			lastErr = err
			if result.Failed == nil {
				result.Failed = make(map[string]string)
			}
			result.Failed[name] = err.Error()
			continue
		}
		result.Sent = append(result.Sent, name)
	}

	if len(result.Sent) == 0 && lastErr != nil {
		return result, lastErr
	}
	return result, nil
}

func (p *Publisher) sendWithRetry(ctx context.Context, name string, sender Sender, msg Rendered) error {
	var lastErr error
	for attempt := 0; attempt < p.policy.MaxAttempts; attempt++ {
		err := sender.Send(ctx, msg)
		if err == nil {
			if attempt > 0 {
				p.logger.Info("Notification sent after retry", "sender", name, "channel", msg.Channel, "attempt", attempt+1)
			}
			return nil
		}

		lastErr = err

		if IsPermanent(err) {
			p.logger.Error("Permanent error, not retrying", "sender", name, "channel", msg.Channel, "error", err)
			return err
		}

		if attempt < p.policy.MaxAttempts-1 {
			delay := p.policy.delay(attempt)
			p.logger.Warn("Failed to send notification, retrying", "sender", name, "attempt", attempt+1, "error", err, "retryIn", delay)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return errors.Join(lastErr, ctx.Err())
			case <-timer.C:
			}
		}
	}

	p.logger.Error("Failed to send notification after retries", "sender", name, "channel", msg.Channel, "attempts", p.policy.MaxAttempts, "error", lastErr)
	return lastErr
}

func sortedKeys(m map[string]Sender) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

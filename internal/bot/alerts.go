package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"trade-signal/internal/domain"

	tele "gopkg.in/telebot.v3"
)

type messageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// AlertScope selects which rating changes a chat hears about. The zero value
// (empty rating) means every change.
type AlertScope struct {
	Rating domain.Rating
}

var AlertAll = AlertScope{}

func (s AlertScope) Matches(c domain.RatingChange) bool {
	return s.Rating == "" || c.To() == s.Rating
}

func (s AlertScope) String() string {
	if s.Rating == "" {
		return "all"
	}
	return strings.ToLower(string(s.Rating))
}

// AlertDispatcher fans watchlist rating changes out to subscribed chats,
// each receiving only the changes its scope matches.
type AlertDispatcher struct {
	sender messageSender

	mu          sync.RWMutex
	subscribers map[int64]AlertScope
}

func NewAlertDispatcher(sender messageSender) *AlertDispatcher {
	return &AlertDispatcher{
		sender:      sender,
		subscribers: make(map[int64]AlertScope),
	}
}

// Subscribe reports false when the chat already has exactly this scope.
func (d *AlertDispatcher) Subscribe(chatID int64, scope AlertScope) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if current, exists := d.subscribers[chatID]; exists && current == scope {
		return false
	}
	d.subscribers[chatID] = scope
	return true
}

func (d *AlertDispatcher) Unsubscribe(chatID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.subscribers[chatID]; !exists {
		return false
	}
	delete(d.subscribers, chatID)
	return true
}

func (d *AlertDispatcher) Scope(chatID int64) (AlertScope, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	scope, exists := d.subscribers[chatID]
	return scope, exists
}

func (d *AlertDispatcher) SubscriberCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers)
}

func (d *AlertDispatcher) NotifyRatingChanges(ctx context.Context, changes []domain.RatingChange) error {
	_ = ctx
	if d == nil || d.sender == nil || len(changes) == 0 {
		return nil
	}

	var failures []string
	for _, sub := range d.snapshotSubscribers() {
		matched := filterChanges(changes, sub.scope)
		if len(matched) == 0 {
			continue
		}
		if _, err := d.sender.Send(&tele.Chat{ID: sub.chatID}, formatAlertMessage(matched)); err != nil {
			failures = append(failures, fmt.Sprintf("chat %d: %v", sub.chatID, err))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("failed sending %d alerts: %s", len(failures), strings.Join(failures, "; "))
	}
	return nil
}

type subscriber struct {
	chatID int64
	scope  AlertScope
}

func (d *AlertDispatcher) snapshotSubscribers() []subscriber {
	d.mu.RLock()
	defer d.mu.RUnlock()

	subs := make([]subscriber, 0, len(d.subscribers))
	for chatID, scope := range d.subscribers {
		subs = append(subs, subscriber{chatID: chatID, scope: scope})
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].chatID < subs[j].chatID })
	return subs
}

func filterChanges(changes []domain.RatingChange, scope AlertScope) []domain.RatingChange {
	if scope == AlertAll {
		return changes
	}
	var out []domain.RatingChange
	for _, c := range changes {
		if scope.Matches(c) {
			out = append(out, c)
		}
	}
	return out
}

// parseAlertCommand reads "/alerts [on [all|buy|sell|hold] | off | status]".
func parseAlertCommand(args []string) (string, AlertScope, error) {
	if len(args) == 0 {
		return "status", AlertAll, nil
	}
	if len(args) > 2 {
		return "", AlertAll, fmt.Errorf("too many arguments")
	}

	mode := strings.ToLower(strings.TrimSpace(args[0]))
	switch mode {
	case "on":
	case "off", "status":
		if len(args) > 1 {
			return "", AlertAll, fmt.Errorf("%s takes no scope", mode)
		}
		return mode, AlertAll, nil
	default:
		return "", AlertAll, fmt.Errorf("invalid mode")
	}

	if len(args) == 1 {
		return mode, AlertAll, nil
	}
	switch strings.ToUpper(strings.TrimSpace(args[1])) {
	case "ALL":
		return mode, AlertAll, nil
	case string(domain.RatingBuy):
		return mode, AlertScope{Rating: domain.RatingBuy}, nil
	case string(domain.RatingSell):
		return mode, AlertScope{Rating: domain.RatingSell}, nil
	case string(domain.RatingHold):
		return mode, AlertScope{Rating: domain.RatingHold}, nil
	default:
		return "", AlertAll, fmt.Errorf("invalid scope")
	}
}

func formatAlertMessage(changes []domain.RatingChange) string {
	lines := make([]string, 0, len(changes)+1)
	lines = append(lines, "Rating change alert:")
	for _, c := range changes {
		lines = append(lines, fmt.Sprintf("%s -> %s", c.From, formatEvaluationLine(c.Evaluation)))
	}
	return strings.Join(lines, "\n")
}

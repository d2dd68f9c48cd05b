package push

import (
	"context"
	"encoding/json"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/afisha/internal/logger"
	"github.com/afisha/internal/model"
	"github.com/afisha/internal/repository"
)

// Sender отправляет Web Push на все сохранённые подписки администраторов.
// Если VAPID-ключи не заданы, методы no-op: афиша работает без пушей.
type Sender struct {
	subs  *repository.SubscriptionRepository
	vapid *webpush.Options
}

// NewSender создаёт Sender. keys == nil — отправка отключена.
func NewSender(subs *repository.SubscriptionRepository, keys *VAPIDKeys) *Sender {
	s := &Sender{subs: subs}
	if keys != nil && keys.PublicKey != "" && keys.PrivateKey != "" {
		s.vapid = &webpush.Options{
			Subscriber:      "afisha-api",
			VAPIDPublicKey:  keys.PublicKey,
			VAPIDPrivateKey: keys.PrivateKey,
			TTL:             60,
		}
	}
	return s
}

// Enabled сообщает, настроена ли отправка.
func (s *Sender) Enabled() bool { return s.vapid != nil }

type payload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// NotifyAll шлёт уведомление на все подписки. Ошибки отдельных подписок
// только логируются: пуш — best effort, заявка уже сохранена. Подписки,
// на которые шлюз ответил 404/410, удаляются.
func (s *Sender) NotifyAll(ctx context.Context, title, body string, data map[string]string) {
	if s.vapid == nil {
		return
	}
	list, err := s.subs.ListAll(ctx)
	if err != nil {
		logger.Errorf("push: list subscriptions: %v", err)
		return
	}
	if len(list) == 0 {
		return
	}
	msg, err := json.Marshal(payload{Title: title, Body: body, Data: data})
	if err != nil {
		logger.Errorf("push: marshal payload: %v", err)
		return
	}
	var stale []string
	for _, sub := range list {
		if gone := s.sendOne(ctx, &sub, msg); gone {
			stale = append(stale, sub.Endpoint)
		}
	}
	if len(stale) > 0 {
		if err := s.subs.DeleteStale(ctx, stale); err != nil {
			logger.Errorf("push: delete stale subscriptions: %v", err)
		}
	}
}

func (s *Sender) sendOne(ctx context.Context, sub *model.PushSubscription, msg []byte) (gone bool) {
	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
	}
	resp, err := webpush.SendNotificationWithContext(ctx, msg, target, s.vapid)
	if err != nil {
		logger.Errorf("push: send to %s: %v", sub.Username, err)
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return true
	}
	if resp.StatusCode >= 400 {
		logger.Errorf("push: send to %s: status %d", sub.Username, resp.StatusCode)
	}
	return false
}

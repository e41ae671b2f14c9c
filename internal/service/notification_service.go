package service

import (
	"context"
	"encoding/json"
	"time"

	"jndata/internal/metrics"
	"jndata/internal/models"
	"jndata/internal/repository"
	"jndata/internal/worker"
	"jndata/internal/ws"

	"go.uber.org/zap"
)

// Event is one notification delivered to a channel.
type Event struct {
	Type  string                 `json:"type"`
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data,omitempty"`
	At    time.Time              `json:"at"`
}

// Notifier is a fire-and-forget sink. Implementations must not block or fail the caller.
type Notifier interface {
	NotifyVendor(vendorID uint, ev Event)
	NotifyRole(role string, ev Event)
}

// NotificationService fans events out to the websocket hub, the notification inbox and FCM.
type NotificationService struct {
	store *repository.Store
	hub   *ws.Hub
	fcm   *FCMService
	pool  *worker.Pool
	log   *zap.Logger
}

func NewNotificationService(store *repository.Store, hub *ws.Hub, fcm *FCMService, pool *worker.Pool, log *zap.Logger) *NotificationService {
	pool.OnDepth(func(n int) { metrics.NotificationQueueDepth.Set(float64(n)) })
	return &NotificationService{store: store, hub: hub, fcm: fcm, pool: pool, log: log}
}

func (s *NotificationService) NotifyVendor(vendorID uint, ev Event) {
	ev = stamp(ev)
	s.submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s.hub.Broadcast(ws.VendorChannel(vendorID), ev)

		var data []byte
		if ev.Data != nil {
			data, _ = json.Marshal(ev.Data)
		}
		if err := s.store.Notify.Create(ctx, &models.Notification{
			VendorID: vendorID,
			Type:     ev.Type,
			Title:    ev.Title,
			Body:     ev.Body,
			Data:     data,
		}); err != nil {
			s.log.Warn("persist notification failed", zap.Uint("vendor_id", vendorID), zap.Error(err))
		}
		s.push(ctx, vendorID, ev)
	})
}

func (s *NotificationService) NotifyRole(role string, ev Event) {
	ev = stamp(ev)
	s.submit(func() {
		s.hub.Broadcast(role, ev)
	})
}

func (s *NotificationService) submit(fn func()) {
	if !s.pool.Submit(fn) {
		s.log.Warn("notification dropped")
	}
}

func (s *NotificationService) push(ctx context.Context, vendorID uint, ev Event) {
	if s.fcm == nil {
		return
	}
	v, err := s.store.Vendors.GetByID(ctx, vendorID)
	if err != nil || v.FCMToken == "" {
		return
	}
	_ = s.fcm.Send(ctx, v.FCMToken, ev.Type, ev.Title, ev.Body, ev.Data)
}

func stamp(ev Event) Event {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	return ev
}

// NopNotifier discards every event.
type NopNotifier struct{}

func (NopNotifier) NotifyVendor(uint, Event) {}
func (NopNotifier) NotifyRole(string, Event) {}

var _ Notifier = (*NotificationService)(nil)
var _ Notifier = NopNotifier{}

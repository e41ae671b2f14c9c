package service

import (
	"context"
	"fmt"
	"time"

	"jndata/internal/domain"
	"jndata/internal/models"
	"jndata/internal/repository"
	"jndata/pkg/phone"

	"go.uber.org/zap"
)

// OrderService covers guest checkout, order listing and admin status changes.
// Paid orders are created by the settlement engine, not here.
type OrderService struct {
	store   *repository.Store
	pricing *PricingService
	notify  Notifier
	log     *zap.Logger
}

func NewOrderService(store *repository.Store, pricing *PricingService, notify Notifier, log *zap.Logger) *OrderService {
	return &OrderService{store: store, pricing: pricing, notify: notify, log: log}
}

// CreateGuestOrder records an unpaid order at the vendor's current price.
func (s *OrderService) CreateGuestOrder(ctx context.Context, vendorLink string, bundleID uint, customerPhone string) (*models.Order, error) {
	vendor, err := s.store.Vendors.GetByLink(ctx, vendorLink)
	if err != nil && !repository.IsNotFound(err) {
		return nil, domain.Internal(err, "load vendor")
	}
	if vendor == nil || !vendor.Approved {
		return nil, domain.Forbidden("vendor not found or not approved")
	}
	ph := phone.Normalize(customerPhone)
	if ph == "" {
		return nil, domain.Validation("please enter a valid Ghanaian phone number (10 digits)")
	}
	bundle, err := s.store.Bundles.GetByID(ctx, bundleID)
	if err != nil {
		return nil, bundleLookupError(err, bundleID)
	}
	price, err := s.pricing.priceFor(ctx, vendor.ID, bundle)
	if err != nil {
		return nil, err
	}

	o := &models.Order{
		VendorID:      vendor.RootID(),
		DataBundleID:  bundle.ID,
		CustomerPhone: ph,
		AmountPaid:    price,
		Status:        domain.OrderStatusPending,
	}
	if vendor.IsSubVendor() {
		o.SubVendorID = &vendor.ID
	}
	if err := s.store.Orders.Create(ctx, o); err != nil {
		return nil, domain.Internal(err, "create order")
	}
	o.DataBundle = bundle

	ev := Event{
		Type:  domain.EventOrderCreated,
		Title: "New order",
		Body:  fmt.Sprintf("%s for %s (unpaid)", bundle.Name, phone.Format(ph)),
		Data: map[string]interface{}{
			"orderId":       o.ID,
			"bundleId":      bundle.ID,
			"bundleName":    bundle.Name,
			"customerPhone": ph,
			"amount":        price.StringFixed(2),
			"sellerId":      vendor.ID,
		},
	}
	s.notifyOrder(o, ev)
	return o, nil
}

// UpdateStatus moves a pending order to complete or cancelled. Terminal orders do not change.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, status string, actor Actor) (*models.Order, error) {
	if status != domain.OrderStatusComplete && status != domain.OrderStatusCancelled {
		return nil, domain.Validation("status must be complete or cancelled")
	}
	o, err := s.store.Orders.GetByID(ctx, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.NotFound("order %d not found", orderID)
		}
		return nil, domain.Internal(err, "load order")
	}
	if o.Status != domain.OrderStatusPending {
		return nil, domain.InvalidState("order is already %s", o.Status)
	}

	err = s.store.Transaction(ctx, func(st *repository.Store) error {
		moved, err := st.Orders.TransitionStatus(ctx, o.ID, domain.OrderStatusPending, status)
		if err != nil {
			return domain.Internal(err, "update order status")
		}
		if !moved {
			return domain.InvalidState("order is no longer pending")
		}
		return st.Audit.Create(ctx, auditEntry(actor, "order_"+status, "order", o.ID, map[string]interface{}{
			"vendorId": o.VendorID,
		}))
	})
	if err != nil {
		return nil, wrapInternal(err, "update order status")
	}
	o.Status = status
	s.log.Info("order status updated", zap.Uint("order_id", o.ID), zap.String("status", status), zap.Uint("admin_id", actor.ID))

	name := "Order"
	if o.DataBundle != nil {
		name = o.DataBundle.Name
	}
	s.notifyOrder(o, Event{
		Type:  domain.EventOrderStatus,
		Title: "Order " + status,
		Body:  fmt.Sprintf("%s for %s is now %s", name, phone.Format(o.CustomerPhone), status),
		Data:  map[string]interface{}{"orderId": o.ID, "status": status},
	})
	return o, nil
}

// OrderQuery filters an order listing.
type OrderQuery struct {
	Status string
	From   *time.Time
	To     *time.Time
	Page   repository.Page
}

// ListForVendor returns orders the vendor owns or sold.
func (s *OrderService) ListForVendor(ctx context.Context, vendorID uint, q OrderQuery) ([]models.Order, int64, error) {
	return s.list(ctx, []uint{vendorID}, q)
}

func (s *OrderService) ListAll(ctx context.Context, q OrderQuery) ([]models.Order, int64, error) {
	return s.list(ctx, nil, q)
}

func (s *OrderService) list(ctx context.Context, vendorIDs []uint, q OrderQuery) ([]models.Order, int64, error) {
	if q.Status != "" && !validOrderStatus(q.Status) {
		return nil, 0, domain.Validation("unknown order status %q", q.Status)
	}
	list, total, err := s.store.Orders.List(ctx, repository.OrderFilter{
		VendorIDs: vendorIDs,
		Status:    q.Status,
		From:      q.From,
		To:        q.To,
		Page:      q.Page,
	})
	if err != nil {
		return nil, 0, domain.Internal(err, "list orders")
	}
	return list, total, nil
}

func (s *OrderService) notifyOrder(o *models.Order, ev Event) {
	s.notify.NotifyVendor(o.VendorID, ev)
	if o.SubVendorID != nil {
		s.notify.NotifyVendor(*o.SubVendorID, ev)
	}
	s.notify.NotifyRole(domain.RoleAdmin, ev)
}

func validOrderStatus(status string) bool {
	switch status {
	case domain.OrderStatusPending, domain.OrderStatusComplete, domain.OrderStatusCancelled:
		return true
	}
	return false
}

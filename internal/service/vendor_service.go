package service

import (
	"context"
	"strings"

	"jndata/internal/domain"
	"jndata/internal/models"
	"jndata/internal/repository"
	"jndata/pkg/phone"

	"go.uber.org/zap"
)

// VendorService covers vendor profiles, approval, sub-vendor listing and the notification inbox.
type VendorService struct {
	store  *repository.Store
	notify Notifier
	log    *zap.Logger
}

func NewVendorService(store *repository.Store, notify Notifier, log *zap.Logger) *VendorService {
	return &VendorService{store: store, notify: notify, log: log}
}

func (s *VendorService) Get(ctx context.Context, id uint) (*models.Vendor, error) {
	v, err := s.store.Vendors.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.NotFound("vendor %d not found", id)
		}
		return nil, domain.Internal(err, "load vendor")
	}
	return v, nil
}

// GetByLink returns an approved vendor for its public storefront.
func (s *VendorService) GetByLink(ctx context.Context, link string) (*models.Vendor, error) {
	v, err := s.store.Vendors.GetByLink(ctx, strings.TrimSpace(link))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.NotFound("vendor not found")
		}
		return nil, domain.Internal(err, "load vendor")
	}
	if !v.Approved {
		return nil, domain.Forbidden("vendor is not approved")
	}
	return v, nil
}

// ProfileUpdate carries optional profile fields; nil leaves a field unchanged.
type ProfileUpdate struct {
	Name     *string
	Phone    *string
	FCMToken *string
}

func (s *VendorService) UpdateProfile(ctx context.Context, id uint, in ProfileUpdate) (*models.Vendor, error) {
	fields := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Validation("name cannot be empty")
		}
		fields["name"] = name
	}
	if in.Phone != nil {
		ph := ""
		if strings.TrimSpace(*in.Phone) != "" {
			if ph = phone.Normalize(*in.Phone); ph == "" {
				return nil, domain.Validation("please enter a valid Ghanaian phone number (10 digits)")
			}
		}
		fields["phone"] = ph
	}
	if in.FCMToken != nil {
		fields["fcm_token"] = strings.TrimSpace(*in.FCMToken)
	}
	if len(fields) > 0 {
		if err := s.store.Vendors.UpdateFields(ctx, id, fields); err != nil {
			return nil, domain.Internal(err, "update vendor")
		}
	}
	return s.Get(ctx, id)
}

func (s *VendorService) SubVendors(ctx context.Context, parentID uint) ([]models.Vendor, error) {
	list, err := s.store.Vendors.ListChildren(ctx, parentID)
	if err != nil {
		return nil, domain.Internal(err, "list sub-vendors")
	}
	return list, nil
}

func (s *VendorService) List(ctx context.Context, approved *bool, page repository.Page) ([]models.Vendor, int64, error) {
	list, total, err := s.store.Vendors.List(ctx, approved, page)
	if err != nil {
		return nil, 0, domain.Internal(err, "list vendors")
	}
	return list, total, nil
}

// SetApproval approves or suspends a top-level vendor.
func (s *VendorService) SetApproval(ctx context.Context, id uint, approved bool, actor Actor) (*models.Vendor, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	action := "vendor_approve"
	if !approved {
		action = "vendor_unapprove"
	}
	err = s.store.Transaction(ctx, func(st *repository.Store) error {
		if err := st.Vendors.UpdateFields(ctx, v.ID, map[string]interface{}{"approved": approved}); err != nil {
			return err
		}
		return st.Audit.Create(ctx, auditEntry(actor, action, "vendor", v.ID, nil))
	})
	if err != nil {
		return nil, wrapInternal(err, "update vendor approval")
	}
	v.Approved = approved
	s.log.Info("vendor approval changed", zap.Uint("vendor_id", v.ID), zap.Bool("approved", approved), zap.Uint("admin_id", actor.ID))

	if approved {
		s.notify.NotifyVendor(v.ID, Event{
			Type:  domain.EventVendorApproved,
			Title: "Account approved",
			Body:  "Your vendor account has been approved. Your storefront is live.",
			Data:  map[string]interface{}{"vendorId": v.ID, "vendorLink": v.VendorLink},
		})
	}
	return v, nil
}

func (s *VendorService) Notifications(ctx context.Context, vendorID uint, unreadOnly bool, page repository.Page) ([]models.Notification, error) {
	list, err := s.store.Notify.ListByVendorID(ctx, vendorID, unreadOnly, page)
	if err != nil {
		return nil, domain.Internal(err, "list notifications")
	}
	return list, nil
}

func (s *VendorService) MarkNotificationRead(ctx context.Context, vendorID, notificationID uint) error {
	ok, err := s.store.Notify.MarkRead(ctx, notificationID, vendorID)
	if err != nil {
		return domain.Internal(err, "mark notification read")
	}
	if !ok {
		return domain.NotFound("notification %d not found", notificationID)
	}
	return nil
}

func (s *VendorService) AuditLog(ctx context.Context, resource string, page repository.Page) ([]models.AuditLog, error) {
	list, err := s.store.Audit.List(ctx, resource, page)
	if err != nil {
		return nil, domain.Internal(err, "list audit log")
	}
	return list, nil
}

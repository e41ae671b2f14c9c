package service

import (
	"context"
	"fmt"
	"strings"

	"jndata/config"
	"jndata/internal/auth"
	"jndata/internal/domain"
	"jndata/internal/models"
	"jndata/internal/repository"
	"jndata/pkg/phone"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type AuthService struct {
	cfg    *config.JWTConfig
	store  *repository.Store
	notify Notifier
	log    *zap.Logger
}

func NewAuthService(cfg *config.JWTConfig, store *repository.Store, notify Notifier, log *zap.Logger) *AuthService {
	return &AuthService{cfg: cfg, store: store, notify: notify, log: log}
}

// VendorSignup holds the fields for a new vendor or sub-vendor account.
type VendorSignup struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// RegisterVendor creates an unapproved top-level vendor with a fresh storefront link.
func (s *AuthService) RegisterVendor(ctx context.Context, in VendorSignup) (*models.Vendor, string, error) {
	v, err := s.newVendor(ctx, in, nil)
	if err != nil {
		return nil, "", err
	}
	s.log.Info("vendor registered", zap.Uint("vendor_id", v.ID), zap.String("email", v.Email))
	s.notify.NotifyRole(domain.RoleAdmin, Event{
		Type:  domain.EventVendorRegistered,
		Title: "New vendor registration",
		Body:  fmt.Sprintf("%s (%s) is waiting for approval", v.Name, v.Email),
		Data:  map[string]interface{}{"vendorId": v.ID, "name": v.Name, "email": v.Email},
	})
	token, err := auth.GenerateAccessToken(s.cfg, v.ID, domain.RoleVendor)
	if err != nil {
		return v, "", domain.Internal(err, "issue token")
	}
	return v, token, nil
}

// CreateSubVendor adds an approved sub-vendor under an approved top-level vendor.
func (s *AuthService) CreateSubVendor(ctx context.Context, parentID uint, in VendorSignup) (*models.Vendor, error) {
	parent, err := s.store.Vendors.GetByID(ctx, parentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.NotFound("vendor %d not found", parentID)
		}
		return nil, domain.Internal(err, "load vendor")
	}
	if !parent.Approved {
		return nil, domain.Forbidden("vendor account is not approved")
	}
	if parent.IsSubVendor() {
		return nil, domain.Forbidden("sub-vendors cannot create sub-vendors")
	}
	v, err := s.newVendor(ctx, in, parent)
	if err != nil {
		return nil, err
	}
	s.log.Info("sub-vendor created", zap.Uint("vendor_id", v.ID), zap.Uint("parent_id", parent.ID))
	return v, nil
}

func (s *AuthService) newVendor(ctx context.Context, in VendorSignup, parent *models.Vendor) (*models.Vendor, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" {
		return nil, domain.Validation("name and email are required")
	}
	if err := validate.Var(email, "email"); err != nil {
		return nil, domain.Validation("invalid email address")
	}
	if len(in.Password) < minPasswordLength {
		return nil, domain.Validation("password must be at least %d characters", minPasswordLength)
	}
	var ph string
	if strings.TrimSpace(in.Phone) != "" {
		if ph = phone.Normalize(in.Phone); ph == "" {
			return nil, domain.Validation("please enter a valid Ghanaian phone number (10 digits)")
		}
	}

	if _, err := s.store.Vendors.GetByEmail(ctx, email); err == nil {
		return nil, domain.Conflict("email already registered")
	} else if !repository.IsNotFound(err) {
		return nil, domain.Internal(err, "load vendor")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.Internal(err, "hash password")
	}
	v := &models.Vendor{
		Name:         name,
		Email:        email,
		Phone:        ph,
		PasswordHash: string(hash),
		VendorLink:   domain.VendorLinkPrefix + uuid.NewString(),
	}
	if parent != nil {
		v.ParentVendorID = &parent.ID
		v.Approved = true
	}
	if err := s.store.Vendors.Create(ctx, v); err != nil {
		if repository.IsDuplicate(err) {
			return nil, domain.Conflict("email already registered")
		}
		return nil, domain.Internal(err, "create vendor")
	}
	return v, nil
}

// Login authenticates a vendor. Unapproved vendors can sign in but are gated by middleware.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Vendor, string, error) {
	v, err := s.store.Vendors.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, "", domain.Unauthorized("invalid email or password")
		}
		return nil, "", domain.Internal(err, "load vendor")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(v.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.Unauthorized("invalid email or password")
	}
	token, err := auth.GenerateAccessToken(s.cfg, v.ID, domain.RoleVendor)
	if err != nil {
		return nil, "", domain.Internal(err, "issue token")
	}
	return v, token, nil
}

func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (*models.Admin, string, error) {
	a, err := s.store.Admins.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, "", domain.Unauthorized("invalid email or password")
		}
		return nil, "", domain.Internal(err, "load admin")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.Unauthorized("invalid email or password")
	}
	token, err := auth.GenerateAccessToken(s.cfg, a.ID, domain.RoleAdmin)
	if err != nil {
		return nil, "", domain.Internal(err, "issue token")
	}
	return a, token, nil
}

// ChangePassword updates a vendor's password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, vendorID uint, currentPassword, newPassword string) error {
	v, err := s.store.Vendors.GetByID(ctx, vendorID)
	if err != nil {
		if repository.IsNotFound(err) {
			return domain.NotFound("vendor %d not found", vendorID)
		}
		return domain.Internal(err, "load vendor")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(v.PasswordHash), []byte(currentPassword)); err != nil {
		return domain.Unauthorized("current password is incorrect")
	}
	if len(newPassword) < minPasswordLength {
		return domain.Validation("password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return domain.Internal(err, "hash password")
	}
	if err := s.store.Vendors.UpdateFields(ctx, v.ID, map[string]interface{}{"password_hash": string(hash)}); err != nil {
		return domain.Internal(err, "update password")
	}
	return nil
}

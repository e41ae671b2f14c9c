package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"jndata/config"
	"jndata/internal/domain"
	"jndata/internal/metrics"
	"jndata/internal/models"
	"jndata/internal/repository"
	"jndata/pkg/money"
	"jndata/pkg/payment"
	"jndata/pkg/phone"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var validate = validator.New()

// errAlreadySettled aborts the commit transaction when another delivery claimed the reference first.
var errAlreadySettled = errors.New("transaction already settled")

// Gateway statuses that may still turn into success; a manual verify leaves these pending.
var inFlightStatuses = map[string]bool{
	"abandoned":  true,
	"ongoing":    true,
	"pending":    true,
	"processing": true,
	"queued":     true,
}

// SettlementService turns gateway confirmations into orders exactly once per reference.
type SettlementService struct {
	store   *repository.Store
	pricing *PricingService
	gateway payment.Gateway
	notify  Notifier
	cfg     *config.PaystackConfig
	log     *zap.Logger
}

func NewSettlementService(store *repository.Store, pricing *PricingService, gateway payment.Gateway, notify Notifier, cfg *config.PaystackConfig, log *zap.Logger) *SettlementService {
	return &SettlementService{store: store, pricing: pricing, gateway: gateway, notify: notify, cfg: cfg, log: log}
}

type InitiateRequest struct {
	VendorLink    string
	BundleID      uint
	CustomerPhone string
	CustomerEmail string
}

type InitiateResult struct {
	AuthorizationURL string          `json:"authorizationUrl"`
	Reference        string          `json:"reference"`
	Amount           decimal.Decimal `json:"amount"`
}

// ConfirmationResult describes what happened to one reference.
type ConfirmationResult struct {
	Reference string `json:"reference,omitempty"`
	Status    string `json:"status"`
	OrderID   *uint  `json:"orderId,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Replayed  bool   `json:"replayed,omitempty"`
	Ignored   bool   `json:"ignored,omitempty"`
}

// InitiatePayment records a pending transaction and asks the gateway for a checkout URL.
// No order exists until the payment is confirmed.
func (s *SettlementService) InitiatePayment(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	vendor, err := s.store.Vendors.GetByLink(ctx, req.VendorLink)
	if err != nil && !repository.IsNotFound(err) {
		return nil, domain.Internal(err, "load vendor")
	}
	if vendor == nil || !vendor.Approved {
		return nil, domain.Forbidden("vendor not found or not approved")
	}
	bundle, err := s.store.Bundles.GetByID(ctx, req.BundleID)
	if err != nil {
		return nil, bundleLookupError(err, req.BundleID)
	}
	customerPhone := phone.Normalize(req.CustomerPhone)
	if customerPhone == "" {
		return nil, domain.Validation("please enter a valid Ghanaian phone number (10 digits)")
	}
	if err := validate.Var(req.CustomerEmail, "required,email"); err != nil {
		return nil, domain.Validation("a valid customer email is required")
	}
	amount, err := s.pricing.priceFor(ctx, vendor.ID, bundle)
	if err != nil {
		return nil, err
	}

	reference := "jn-" + uuid.NewString()
	meta := map[string]interface{}{
		domain.MetaBundleID:      bundle.ID,
		domain.MetaCustomerPhone: customerPhone,
		domain.MetaVendorID:      vendor.ID,
	}
	metaJSON, _ := json.Marshal(meta)
	tx := &models.PaymentTransaction{
		Reference:    reference,
		VendorID:     &vendor.ID,
		DataBundleID: &bundle.ID,
		Amount:       amount,
		Status:       domain.TxStatusPending,
		Metadata:     datatypes.JSON(metaJSON),
	}
	if err := s.store.Transactions.Create(ctx, tx); err != nil {
		return nil, domain.Internal(err, "record payment transaction")
	}

	gctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	resp, err := s.gateway.InitializeTransaction(gctx, payment.InitializeRequest{
		Email:       req.CustomerEmail,
		Amount:      amount,
		Currency:    s.cfg.Currency,
		Reference:   reference,
		CallbackURL: s.cfg.CallbackURL,
		Metadata:    meta,
	})
	if err != nil {
		if payment.IsDefinite(err) {
			metrics.PaymentInitiationsTotal.WithLabelValues("rejected").Inc()
			if _, ferr := s.store.Transactions.MarkFailed(ctx, reference, "initialize rejected: "+err.Error()); ferr != nil {
				s.log.Error("mark transaction failed", zap.String("reference", reference), zap.Error(ferr))
			}
		} else {
			// Left pending: a webhook or a manual verify can still settle it.
			metrics.PaymentInitiationsTotal.WithLabelValues("unreachable").Inc()
		}
		s.log.Warn("payment initialization failed", zap.String("reference", reference), zap.Error(err))
		return nil, domain.Upstream(err, "payment gateway unavailable, please try again")
	}
	metrics.PaymentInitiationsTotal.WithLabelValues("ok").Inc()
	return &InitiateResult{AuthorizationURL: resp.AuthorizationURL, Reference: reference, Amount: amount}, nil
}

type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string          `json:"reference"`
		Amount    int64           `json:"amount"`
		Metadata  json.RawMessage `json:"metadata"`
	} `json:"data"`
}

// HandleConfirmation processes a signed gateway webhook. The signature is checked before anything
// is read or written; replays of a settled reference return the prior result.
func (s *SettlementService) HandleConfirmation(ctx context.Context, rawBody []byte, signature string) (*ConfirmationResult, error) {
	if !payment.VerifySignature(s.cfg.SecretKey, rawBody, signature) {
		return nil, domain.Unauthorized("invalid signature")
	}
	var p webhookPayload
	if err := json.Unmarshal(rawBody, &p); err != nil {
		return nil, domain.Validation("invalid webhook payload")
	}
	if p.Event != domain.ChargeSuccessEvent {
		metrics.SettlementsTotal.WithLabelValues("ignored").Inc()
		return &ConfirmationResult{Status: "ignored", Ignored: true}, nil
	}
	ref := strings.TrimSpace(p.Data.Reference)
	if ref == "" {
		return nil, domain.Validation("missing transaction reference")
	}

	tx, err := s.ensurePending(ctx, ref, money.FromMinor(p.Data.Amount), p.Data.Metadata)
	if err != nil {
		return nil, err
	}
	if tx.Status != domain.TxStatusPending {
		metrics.SettlementsTotal.WithLabelValues("replayed").Inc()
		return priorResult(tx), nil
	}
	return s.settle(ctx, tx, true)
}

// VerifyReference re-drives settlement for a reference without a webhook. A gateway status that
// may still succeed leaves the transaction pending.
func (s *SettlementService) VerifyReference(ctx context.Context, ref string) (*ConfirmationResult, error) {
	tx, err := s.store.Transactions.GetByReference(ctx, ref)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.NotFound("transaction %s not found", ref)
		}
		return nil, domain.Internal(err, "load transaction")
	}
	if tx.Status != domain.TxStatusPending {
		return priorResult(tx), nil
	}
	return s.settle(ctx, tx, false)
}

// ListTransactions is the admin view of payment transactions, optionally filtered by status.
func (s *SettlementService) ListTransactions(ctx context.Context, status string, page repository.Page) ([]models.PaymentTransaction, int64, error) {
	list, total, err := s.store.Transactions.List(ctx, status, page)
	if err != nil {
		return nil, 0, domain.Internal(err, "list transactions")
	}
	return list, total, nil
}

// ensurePending returns the transaction for ref, creating a pending row when none exists.
// A concurrent insert of the same reference loses on the unique index and re-reads the winner.
func (s *SettlementService) ensurePending(ctx context.Context, ref string, amount decimal.Decimal, rawMeta json.RawMessage) (*models.PaymentTransaction, error) {
	tx, err := s.store.Transactions.GetByReference(ctx, ref)
	if err == nil {
		return tx, nil
	}
	if !repository.IsNotFound(err) {
		return nil, domain.Internal(err, "load transaction")
	}
	tx = &models.PaymentTransaction{
		Reference: ref,
		Amount:    money.Normalize(amount),
		Status:    domain.TxStatusPending,
	}
	if meta := payment.DecodeMetadata(rawMeta); meta != nil {
		b, _ := json.Marshal(meta)
		tx.Metadata = datatypes.JSON(b)
	}
	if err := s.store.Transactions.Create(ctx, tx); err != nil {
		if !repository.IsDuplicate(err) {
			return nil, domain.Internal(err, "record payment transaction")
		}
		tx, err = s.store.Transactions.GetByReference(ctx, ref)
		if err != nil {
			return nil, domain.Internal(err, "load transaction")
		}
	}
	return tx, nil
}

type settlementIntent struct {
	vendor        *models.Vendor
	bundle        *models.DataBundle
	customerPhone string
	amount        decimal.Decimal
	paidAt        time.Time
}

func (s *SettlementService) settle(ctx context.Context, tx *models.PaymentTransaction, strict bool) (*ConfirmationResult, error) {
	gctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	v, err := s.gateway.VerifyTransaction(gctx, tx.Reference)
	if err != nil {
		metrics.SettlementsTotal.WithLabelValues("upstream_error").Inc()
		s.log.Warn("verify transaction failed", zap.String("reference", tx.Reference), zap.Error(err))
		if terr := s.store.Transactions.TouchVerified(ctx, tx.Reference); terr != nil {
			s.log.Warn("stamp verification attempt failed", zap.String("reference", tx.Reference), zap.Error(terr))
		}
		return nil, domain.Upstream(err, "could not verify transaction with payment gateway")
	}
	if !strict && v.Status != payment.StatusSuccess && inFlightStatuses[v.Status] {
		_ = s.store.Transactions.TouchVerified(ctx, tx.Reference)
		return &ConfirmationResult{Reference: tx.Reference, Status: domain.TxStatusPending, Reason: "payment " + v.Status}, nil
	}

	intent, reason, err := s.check(ctx, tx, v)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		return s.reject(ctx, tx.Reference, reason)
	}

	var order *models.Order
	err = s.store.Transaction(ctx, func(st *repository.Store) error {
		won, err := st.Transactions.Claim(ctx, tx.Reference, intent.paidAt)
		if err != nil {
			return err
		}
		if !won {
			return errAlreadySettled
		}
		o := &models.Order{
			VendorID:      intent.vendor.RootID(),
			DataBundleID:  intent.bundle.ID,
			CustomerPhone: intent.customerPhone,
			AmountPaid:    intent.amount,
			Status:        domain.OrderStatusPending,
		}
		if intent.vendor.IsSubVendor() {
			o.SubVendorID = &intent.vendor.ID
		}
		if err := st.Orders.Create(ctx, o); err != nil {
			return err
		}
		if err := st.Vendors.AddProfit(ctx, intent.vendor.ID, Profit(intent.amount, intent.bundle.BasePrice)); err != nil {
			return err
		}
		if err := st.Transactions.Attach(ctx, tx.ID, o.ID, intent.vendor.ID, intent.bundle.ID); err != nil {
			return err
		}
		order = o
		return nil
	})
	if errors.Is(err, errAlreadySettled) {
		metrics.SettlementsTotal.WithLabelValues("replayed").Inc()
		return s.reload(ctx, tx.Reference)
	}
	if err != nil {
		return nil, domain.Internal(err, "commit settlement")
	}

	metrics.SettlementsTotal.WithLabelValues("settled").Inc()
	s.log.Info("payment settled",
		zap.String("reference", tx.Reference),
		zap.Uint("order_id", order.ID),
		zap.Uint("vendor_id", intent.vendor.ID),
		zap.String("amount", intent.amount.StringFixed(2)),
	)
	s.announceOrder(order, tx.Reference, intent)
	return &ConfirmationResult{Reference: tx.Reference, Status: domain.TxStatusSuccess, OrderID: &order.ID}, nil
}

// check runs the ordered settlement checks. A non-empty reason is a business rejection;
// an error is an infrastructure failure that leaves the transaction pending.
func (s *SettlementService) check(ctx context.Context, tx *models.PaymentTransaction, v *payment.Verification) (*settlementIntent, string, error) {
	verified := money.Normalize(v.Amount)
	if !money.Equal(verified, tx.Amount) {
		return nil, fmt.Sprintf("amount mismatch: verified %s, expected %s", verified.StringFixed(2), tx.Amount.StringFixed(2)), nil
	}
	if v.Status != payment.StatusSuccess {
		return nil, fmt.Sprintf("payment status is %q", v.Status), nil
	}

	bundleID, okB := metaUint(v.Metadata, domain.MetaBundleID)
	vendorID, okV := metaUint(v.Metadata, domain.MetaVendorID)
	rawPhone, okP := metaString(v.Metadata, domain.MetaCustomerPhone)
	if !okB || !okV || !okP {
		return nil, "incomplete metadata: bundleId, customerPhone and vendorId are required", nil
	}
	customerPhone := phone.Normalize(rawPhone)
	if customerPhone == "" {
		return nil, "invalid customer phone in metadata", nil
	}

	bundle, err := s.store.Bundles.GetByID(ctx, bundleID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Sprintf("data bundle %d no longer exists", bundleID), nil
		}
		return nil, "", domain.Internal(err, "load data bundle")
	}

	vendor, err := s.store.Vendors.GetByID(ctx, vendorID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Sprintf("vendor %d not found", vendorID), nil
		}
		return nil, "", domain.Internal(err, "load vendor")
	}
	current, err := s.pricing.priceFor(ctx, vendor.ID, bundle)
	if err != nil {
		return nil, "", err
	}
	if !money.Equal(current, verified) {
		return nil, fmt.Sprintf("price changed: current %s, paid %s", current.StringFixed(2), verified.StringFixed(2)), nil
	}

	paidAt := time.Now()
	if v.PaidAt != nil {
		paidAt = *v.PaidAt
	}
	return &settlementIntent{
		vendor:        vendor,
		bundle:        bundle,
		customerPhone: customerPhone,
		amount:        verified,
		paidAt:        paidAt,
	}, "", nil
}

func (s *SettlementService) reject(ctx context.Context, ref, reason string) (*ConfirmationResult, error) {
	marked, err := s.store.Transactions.MarkFailed(ctx, ref, reason)
	if err != nil {
		return nil, domain.Internal(err, "mark transaction failed")
	}
	if !marked {
		// Another delivery reached a terminal state first.
		metrics.SettlementsTotal.WithLabelValues("replayed").Inc()
		return s.reload(ctx, ref)
	}
	metrics.SettlementsTotal.WithLabelValues("rejected").Inc()
	s.log.Warn("payment rejected", zap.String("reference", ref), zap.String("reason", reason))
	res := &ConfirmationResult{Reference: ref, Status: domain.TxStatusFailed, Reason: reason}
	return res, domain.Validation("%s", reason)
}

func (s *SettlementService) reload(ctx context.Context, ref string) (*ConfirmationResult, error) {
	tx, err := s.store.Transactions.GetByReference(ctx, ref)
	if err != nil {
		return nil, domain.Internal(err, "load transaction")
	}
	return priorResult(tx), nil
}

func (s *SettlementService) announceOrder(o *models.Order, reference string, in *settlementIntent) {
	data := map[string]interface{}{
		"orderId":       o.ID,
		"reference":     reference,
		"bundleId":      in.bundle.ID,
		"bundleName":    in.bundle.Name,
		"customerPhone": o.CustomerPhone,
		"amount":        o.AmountPaid.StringFixed(2),
		"sellerId":      in.vendor.ID,
	}
	ev := Event{
		Type:  domain.EventOrderCreated,
		Title: "New order",
		Body:  fmt.Sprintf("%s for %s paid %s", in.bundle.Name, phone.Format(o.CustomerPhone), o.AmountPaid.StringFixed(2)),
		Data:  data,
	}
	s.notify.NotifyVendor(o.VendorID, ev)
	if o.SubVendorID != nil {
		s.notify.NotifyVendor(*o.SubVendorID, ev)
	}
	s.notify.NotifyRole(domain.RoleAdmin, ev)
}

func priorResult(tx *models.PaymentTransaction) *ConfirmationResult {
	return &ConfirmationResult{
		Reference: tx.Reference,
		Status:    tx.Status,
		OrderID:   tx.OrderID,
		Reason:    tx.FailureReason,
		Replayed:  true,
	}
}

func metaString(meta map[string]interface{}, key string) (string, bool) {
	v, ok := meta[key]
	if !ok || v == nil {
		return "", false
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	return s, s != ""
}

func metaUint(meta map[string]interface{}, key string) (uint, bool) {
	v, ok := meta[key]
	if !ok || v == nil {
		return 0, false
	}
	var s string
	switch val := v.(type) {
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		s = val.String()
	default:
		s = strings.TrimSpace(fmt.Sprint(val))
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

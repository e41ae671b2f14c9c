package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jndata/config"
	"jndata/internal/domain"
	"jndata/internal/metrics"
	"jndata/internal/models"
	"jndata/internal/repository"
	"jndata/pkg/money"
	"jndata/pkg/phone"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Balance is always derived from orders and withdrawals; nothing here is stored.
type Balance struct {
	TotalProfit      decimal.Decimal `json:"totalProfit"`
	TotalWithdrawn   decimal.Decimal `json:"totalWithdrawn"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	Pooling          string          `json:"pooling"`
}

// Profit is the platform-independent margin of one sale: what was paid minus the base price.
func Profit(amountPaid, basePrice decimal.Decimal) decimal.Decimal {
	return money.Normalize(amountPaid.Sub(basePrice))
}

// OrderProfit derives an order's profit from the bundle it sold.
func OrderProfit(o *models.Order, b *models.DataBundle) decimal.Decimal {
	return Profit(o.AmountPaid, b.BasePrice)
}

// LedgerService computes vendor balances and moves withdrawals through their lifecycle.
type LedgerService struct {
	store   *repository.Store
	notify  Notifier
	pooling string
	log     *zap.Logger
}

func NewLedgerService(store *repository.Store, notify Notifier, cfg *config.LedgerConfig, log *zap.Logger) *LedgerService {
	pooling := cfg.SubVendorPooling
	if pooling != config.PoolingIsolated {
		pooling = config.PoolingPooled
	}
	return &LedgerService{store: store, notify: notify, pooling: pooling, log: log}
}

// ComputeAvailableBalance returns what the vendor can withdraw right now.
func (s *LedgerService) ComputeAvailableBalance(ctx context.Context, vendorID uint) (decimal.Decimal, error) {
	b, err := s.Balance(ctx, vendorID)
	if err != nil {
		return decimal.Zero, err
	}
	return b.AvailableBalance, nil
}

func (s *LedgerService) Balance(ctx context.Context, vendorID uint) (*Balance, error) {
	vendor, err := s.loadVendor(ctx, s.store, vendorID)
	if err != nil {
		return nil, err
	}
	return s.balance(ctx, s.store, vendor)
}

// balance sums profit and approved withdrawals over the vendor's pool.
// pooled: the vendor tree shares one balance. isolated: profit rolls up from sub-vendor sales
// but only the vendor's own withdrawals count against it.
func (s *LedgerService) balance(ctx context.Context, st *repository.Store, vendor *models.Vendor) (*Balance, error) {
	profitScope := []uint{vendor.ID}
	withdrawScope := []uint{vendor.ID}
	if s.pooling == config.PoolingPooled {
		tree, err := st.Vendors.TreeIDs(ctx, vendor.RootID())
		if err != nil {
			return nil, domain.Internal(err, "load vendor tree")
		}
		profitScope, withdrawScope = tree, tree
	}

	lines, err := st.Orders.CompletedProfitLines(ctx, profitScope)
	if err != nil {
		return nil, domain.Internal(err, "load completed orders")
	}
	amounts, err := st.Withdrawals.ApprovedAmounts(ctx, withdrawScope)
	if err != nil {
		return nil, domain.Internal(err, "load approved withdrawals")
	}

	b := &Balance{TotalProfit: decimal.Zero, TotalWithdrawn: decimal.Zero, Pooling: s.pooling}
	for _, l := range lines {
		b.TotalProfit = b.TotalProfit.Add(Profit(l.AmountPaid, l.BasePrice))
	}
	for _, a := range amounts {
		b.TotalWithdrawn = b.TotalWithdrawn.Add(money.Normalize(a))
	}
	b.AvailableBalance = b.TotalProfit.Sub(b.TotalWithdrawn)
	return b, nil
}

// Dashboard summarises a vendor's sales alongside the live balance.
type Dashboard struct {
	TotalOrders        int64            `json:"totalOrders"`
	TotalSales         decimal.Decimal  `json:"totalSales"`
	OrdersByStatus     map[string]int64 `json:"ordersByStatus"`
	PendingWithdrawals decimal.Decimal  `json:"pendingWithdrawals"`
	Balance
}

// Dashboard counts the orders the vendor owns or sold and what is still awaiting payout.
func (s *LedgerService) Dashboard(ctx context.Context, vendorID uint) (*Dashboard, error) {
	vendor, err := s.loadVendor(ctx, s.store, vendorID)
	if err != nil {
		return nil, err
	}
	b, err := s.balance(ctx, s.store, vendor)
	if err != nil {
		return nil, err
	}
	scope := []uint{vendor.ID}
	counts, err := s.store.Orders.StatusCounts(ctx, scope)
	if err != nil {
		return nil, domain.Internal(err, "count orders")
	}
	paid, err := s.store.Orders.AmountsPaid(ctx, scope)
	if err != nil {
		return nil, domain.Internal(err, "load order amounts")
	}
	pending, err := s.store.Withdrawals.PendingAmounts(ctx, scope)
	if err != nil {
		return nil, domain.Internal(err, "load pending withdrawals")
	}

	d := &Dashboard{
		TotalSales:         decimal.Zero,
		OrdersByStatus:     map[string]int64{},
		PendingWithdrawals: decimal.Zero,
		Balance:            *b,
	}
	for _, st := range []string{domain.OrderStatusPending, domain.OrderStatusComplete, domain.OrderStatusCancelled} {
		d.OrdersByStatus[st] = counts[st]
		d.TotalOrders += counts[st]
	}
	for _, a := range paid {
		d.TotalSales = d.TotalSales.Add(money.Normalize(a))
	}
	for _, a := range pending {
		d.PendingWithdrawals = d.PendingWithdrawals.Add(money.Normalize(a))
	}
	return d, nil
}

// RequestWithdrawal files a pending payout request. Nothing is reserved; the balance is
// checked again when an admin approves.
func (s *LedgerService) RequestWithdrawal(ctx context.Context, vendorID uint, amount decimal.Decimal, mobileMoneyNumber string) (*models.Withdrawal, error) {
	amount = money.Normalize(amount)
	if !amount.IsPositive() {
		return nil, domain.Validation("amount must be greater than zero")
	}
	if strings.TrimSpace(mobileMoneyNumber) == "" {
		return nil, domain.Validation("mobile money number is required")
	}
	dest := phone.Normalize(mobileMoneyNumber)
	if dest == "" {
		return nil, domain.Validation("please enter a valid Ghanaian mobile money number (10 digits)")
	}

	vendor, err := s.loadVendor(ctx, s.store, vendorID)
	if err != nil {
		return nil, err
	}
	bal, err := s.balance(ctx, s.store, vendor)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(bal.AvailableBalance) {
		return nil, domain.InsufficientBalance(bal.AvailableBalance)
	}

	w := &models.Withdrawal{
		VendorID:          vendor.ID,
		AmountRequested:   amount,
		MobileMoneyNumber: dest,
		Status:            domain.WithdrawalStatusPending,
		RequestedAt:       time.Now(),
	}
	if err := s.store.Withdrawals.Create(ctx, w); err != nil {
		return nil, domain.Internal(err, "create withdrawal")
	}
	metrics.WithdrawalsTotal.WithLabelValues("requested").Inc()

	s.notify.NotifyRole(domain.RoleAdmin, Event{
		Type:  domain.EventWithdrawalRequested,
		Title: "Withdrawal requested",
		Body:  fmt.Sprintf("%s requested %s to %s", vendor.Name, amount.StringFixed(2), phone.Format(dest)),
		Data: map[string]interface{}{
			"withdrawalId":      w.ID,
			"vendorId":          vendor.ID,
			"vendorName":        vendor.Name,
			"amountRequested":   amount.StringFixed(2),
			"mobileMoneyNumber": dest,
		},
	})
	return w, nil
}

// ProcessWithdrawal approves or rejects a pending request. Approval re-validates the balance
// under a lock on the vendor pool; terminal requests are never modified.
func (s *LedgerService) ProcessWithdrawal(ctx context.Context, withdrawalID uint, decision string, actor Actor) (*models.Withdrawal, error) {
	if decision != domain.WithdrawalStatusApproved && decision != domain.WithdrawalStatusRejected {
		return nil, domain.Validation("status must be approved or rejected")
	}
	w, err := s.store.Withdrawals.GetByID(ctx, withdrawalID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.NotFound("withdrawal %d not found", withdrawalID)
		}
		return nil, domain.Internal(err, "load withdrawal")
	}
	if w.Status != domain.WithdrawalStatusPending {
		return nil, domain.InvalidState("withdrawal is already %s", w.Status)
	}
	vendor, err := s.loadVendor(ctx, s.store, w.VendorID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.store.Transaction(ctx, func(st *repository.Store) error {
		if decision == domain.WithdrawalStatusApproved {
			lockID := vendor.ID
			if s.pooling == config.PoolingPooled {
				lockID = vendor.RootID()
			}
			// Lock before any read so the balance below sees every committed approval.
			if _, err := st.Vendors.GetByIDForUpdate(ctx, lockID); err != nil {
				return domain.Internal(err, "lock vendor")
			}
			bal, err := s.balance(ctx, st, vendor)
			if err != nil {
				return err
			}
			if w.AmountRequested.GreaterThan(bal.AvailableBalance) {
				return domain.InsufficientBalance(bal.AvailableBalance)
			}
		}
		settled, err := st.Withdrawals.Settle(ctx, w.ID, decision, actor.ID, now)
		if err != nil {
			return domain.Internal(err, "update withdrawal")
		}
		if !settled {
			return domain.InvalidState("withdrawal is no longer pending")
		}
		return st.Audit.Create(ctx, auditEntry(actor, "withdrawal_"+decision, "withdrawal", w.ID, map[string]interface{}{
			"vendorId": vendor.ID,
			"amount":   w.AmountRequested.StringFixed(2),
		}))
	})
	if err != nil {
		return nil, wrapInternal(err, "process withdrawal")
	}

	metrics.WithdrawalsTotal.WithLabelValues(decision).Inc()
	s.log.Info("withdrawal processed",
		zap.Uint("withdrawal_id", w.ID),
		zap.Uint("vendor_id", vendor.ID),
		zap.String("status", decision),
		zap.Uint("admin_id", actor.ID),
	)

	w.Status = decision
	w.ProcessedAt = &now
	w.ProcessedBy = &actor.ID

	data := map[string]interface{}{
		"withdrawalId":    w.ID,
		"vendorId":        vendor.ID,
		"status":          decision,
		"amountRequested": w.AmountRequested.StringFixed(2),
	}
	s.notify.NotifyVendor(vendor.ID, Event{
		Type:  domain.EventWithdrawalProcessed,
		Title: "Withdrawal " + decision,
		Body:  fmt.Sprintf("Your withdrawal of %s was %s", w.AmountRequested.StringFixed(2), decision),
		Data:  data,
	})
	s.notify.NotifyRole(domain.RoleAdmin, Event{
		Type:  domain.EventWithdrawalProcessed,
		Title: "Withdrawal " + decision,
		Body:  fmt.Sprintf("%s: %s %s", vendor.Name, w.AmountRequested.StringFixed(2), decision),
		Data:  data,
	})
	return w, nil
}

func (s *LedgerService) ListForVendor(ctx context.Context, vendorID uint, page repository.Page) ([]models.Withdrawal, int64, error) {
	list, total, err := s.store.Withdrawals.ListByVendor(ctx, vendorID, page)
	if err != nil {
		return nil, 0, domain.Internal(err, "list withdrawals")
	}
	return list, total, nil
}

func (s *LedgerService) List(ctx context.Context, status string, page repository.Page) ([]models.Withdrawal, int64, error) {
	list, total, err := s.store.Withdrawals.List(ctx, status, page)
	if err != nil {
		return nil, 0, domain.Internal(err, "list withdrawals")
	}
	return list, total, nil
}

func (s *LedgerService) loadVendor(ctx context.Context, st *repository.Store, id uint) (*models.Vendor, error) {
	v, err := st.Vendors.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.NotFound("vendor %d not found", id)
		}
		return nil, domain.Internal(err, "load vendor")
	}
	return v, nil
}

package service

import (
	"context"
	"time"

	"jndata/config"
	"jndata/internal/domain"
	"jndata/internal/metrics"
	"jndata/internal/repository"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type referenceVerifier interface {
	VerifyReference(ctx context.Context, ref string) (*ConfirmationResult, error)
}

// Reconciler periodically re-verifies transactions stuck in pending, e.g. after a lost webhook
// or a gateway timeout during initiation.
type Reconciler struct {
	store    *repository.Store
	verifier referenceVerifier
	cfg      *config.ReconcileConfig
	log      *zap.Logger
	cron     *cron.Cron
}

// ReconcileReport summarises one run.
type ReconcileReport struct {
	Checked int `json:"checked"`
	Settled int `json:"settled"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
	Errors  int `json:"errors"`
}

func NewReconciler(store *repository.Store, verifier referenceVerifier, cfg *config.ReconcileConfig, log *zap.Logger) *Reconciler {
	return &Reconciler{store: store, verifier: verifier, cfg: cfg, log: log}
}

// Start schedules RunOnce. It is a no-op when reconciliation is disabled.
func (r *Reconciler) Start() error {
	if !r.cfg.Enabled {
		r.log.Info("reconciler disabled")
		return nil
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(r.cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		report, err := r.RunOnce(ctx)
		if err != nil {
			r.log.Error("reconcile run failed", zap.Error(err))
			return
		}
		if report.Checked > 0 {
			r.log.Info("reconcile run finished",
				zap.Int("checked", report.Checked),
				zap.Int("settled", report.Settled),
				zap.Int("failed", report.Failed),
				zap.Int("pending", report.Pending),
				zap.Int("errors", report.Errors),
			)
		}
	})
	if err != nil {
		return err
	}
	r.cron = c
	c.Start()
	r.log.Info("reconciler started", zap.String("schedule", r.cfg.Schedule))
	return nil
}

// Stop waits for a running job to finish.
func (r *Reconciler) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}

// RunOnce verifies a batch of pending transactions older than the configured minimum age.
func (r *Reconciler) RunOnce(ctx context.Context) (*ReconcileReport, error) {
	metrics.ReconcileRunsTotal.Inc()
	cutoff := time.Now().Add(-r.cfg.MinAge)
	stale, err := r.store.Transactions.ListStalePending(ctx, cutoff, r.cfg.Batch)
	if err != nil {
		return nil, domain.Internal(err, "list pending transactions")
	}

	report := &ReconcileReport{}
	for _, tx := range stale {
		if ctx.Err() != nil {
			break
		}
		report.Checked++
		res, err := r.verifier.VerifyReference(ctx, tx.Reference)
		switch {
		case res != nil && res.Status == domain.TxStatusSuccess:
			report.Settled++
		case res != nil && res.Status == domain.TxStatusFailed:
			report.Failed++
		case err != nil:
			report.Errors++
			r.log.Warn("reconcile verify failed", zap.String("reference", tx.Reference), zap.Error(err))
		default:
			report.Pending++
		}
	}
	return report, nil
}

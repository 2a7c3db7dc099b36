package main

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"bitbucket.org/pawdesk/petcare_backend/config"
	"bitbucket.org/pawdesk/petcare_backend/models"
)

// OutboxDispatcher relays committed reservation events to Pub/Sub. It polls
// the outbox table so events written in the same transaction as the
// reservation are published at least once even across a crash.
type OutboxDispatcher struct {
	Logger    *logrus.Logger
	BatchSize int
	Interval  time.Duration
}

func NewOutboxDispatcher(logger *logrus.Logger) *OutboxDispatcher {
	d := &OutboxDispatcher{
		Logger:    logger,
		BatchSize: 50,
		Interval:  2 * time.Second,
	}
	if v := strings.TrimSpace(os.Getenv("OUTBOX_BATCH_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			d.BatchSize = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("OUTBOX_POLL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			d.Interval = time.Duration(n) * time.Second
		}
	}
	return d
}

func shouldRunOutboxDispatcher() bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv("OUTBOX_DISPATCHER")))
	// Default on; events are the only signal external collaborators get.
	return val != "false"
}

func (d *OutboxDispatcher) Run(ctx context.Context) {
	if d == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		d.processOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.Interval):
		}
	}
}

func (d *OutboxDispatcher) processOnce(ctx context.Context) {
	records, err := models.FetchPendingReservationEvents(ctx, d.BatchSize)
	if err != nil {
		config.LogError(d.Logger, "outbox_processor.go", "processOnce", "fetch pending events", nil, err)
		return
	}
	for _, record := range records {
		if err := models.RelayReservationEvent(ctx, record); err != nil {
			d.Logger.WithFields(logrus.Fields{
				"field":          "outbox",
				"record_id":      record.ID,
				"tenant_id":      record.TenantId,
				"reservation_id": record.ReservationId,
				"action":         record.Action,
			}).Warn("outbox publish failed: " + err.Error())
		}
	}
}

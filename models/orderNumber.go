package models

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bitbucket.org/pawdesk/petcare_backend/config"
	"bitbucket.org/pawdesk/petcare_backend/utils"
)

const orderNumberPrefix = "RES"
const orderNumberMaxRetries = 5

var orderSeqMutex sync.Mutex

// FormatOrderNumber renders the display identifier RES-YYYYMMDD-NNN.
func FormatOrderNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%03d", orderNumberPrefix, day.Format("20060102"), seq)
}

// NextOrderNumber produces the tenant-scoped daily sequence identifier for a
// new reservation. The counter lives in redis (seeded from a db count of the
// day's reservations) and the result is re-checked against the store before
// being returned; collisions advance the counter with a bounded retry.
//
// This is a display identifier. True uniqueness is enforced by the composite
// unique index on (tenant_id, order_number), and CreateReservation retries on
// a constraint violation.
func NextOrderNumber(ctx context.Context, tenantId string, day time.Time) (string, error) {
	orderSeqMutex.Lock()
	defer orderSeqMutex.Unlock()

	dayKey := day.Format("20060102")
	cacheKey := tenantId + "-resv_seq:" + dayKey
	db := config.GetDB()

	for attempt := 0; attempt < orderNumberMaxRetries; attempt++ {
		seqNo, err := config.GetRedisCounter(ctx, cacheKey)
		if err != nil {
			return "", err
		}
		// first increment of the day: seed from db so restarts don't reset
		if seqNo == 1 {
			var count int64
			dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
			if err := db.WithContext(ctx).Model(&Reservation{}).
				Where("tenant_id = ?", tenantId).
				Where("created_at >= ? AND created_at < ?", dayStart, dayStart.AddDate(0, 0, 1)).
				Count(&count).Error; err != nil {
				return "", err
			}
			if count+1 > seqNo {
				seqNo = count + 1
				if err := config.SetRedisObject(cacheKey, &seqNo, 0); err != nil {
					return "", err
				}
			}
			// day-scoped counter; let stale days expire on their own
			_ = config.ExpireRedisKey(ctx, cacheKey, 48*time.Hour)
		}

		orderNumber := FormatOrderNumber(day, seqNo)
		err = utils.ValidateUnique[Reservation](ctx, tenantId, "order_number", orderNumber, 0)
		if err == nil {
			return orderNumber, nil
		}
		// collision (imported data or a racing writer): advance and retry
	}

	return "", errors.New("could not generate a unique order number")
}

package models

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/pawdesk/petcare_backend/config"
	"bitbucket.org/pawdesk/petcare_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReservationEventRecord is the transactional outbox row for a reservation
// change. It is written in the same transaction as the reservation itself and
// relayed to Pub/Sub by the background dispatcher, so a crash between commit
// and publish never loses an event.
type ReservationEventRecord struct {
	ID            int                    `gorm:"primary_key" json:"id"`
	TenantId      string                 `gorm:"index;not null" json:"tenant_id"`
	ReservationId int                    `gorm:"index;not null" json:"reservation_id"`
	Action        ReservationEventAction `gorm:"size:20;not null" json:"action"`
	Payload       []byte                 `gorm:"type:json" json:"payload"`
	CorrelationId string                 `gorm:"size:40" json:"correlation_id"`
	PublishStatus OutboxPublishStatus    `gorm:"size:10;not null;default:Pending;index" json:"publish_status"`
	PublishError  string                 `gorm:"type:text" json:"publish_error"`
	PublishedAt   *time.Time             `json:"published_at"`
	CreatedAt     time.Time              `gorm:"autoCreateTime" json:"created_at"`
}

// publishReservationChange stages the event inside the caller's transaction.
func publishReservationChange(ctx context.Context, tx *gorm.DB, tenantId string, reservation *Reservation, action ReservationEventAction) error {
	payload, err := json.Marshal(reservation)
	if err != nil {
		return err
	}

	correlationId, ok := utils.GetCorrelationIdFromContext(ctx)
	if !ok || correlationId == "" {
		correlationId = uuid.NewString()
	}

	record := ReservationEventRecord{
		TenantId:      tenantId,
		ReservationId: reservation.ID,
		Action:        action,
		Payload:       payload,
		CorrelationId: correlationId,
		PublishStatus: OutboxPublishStatusPending,
	}
	return tx.Create(&record).Error
}

// FetchPendingReservationEvents returns the oldest unrelayed outbox rows
// across all tenants; the dispatcher runs outside any request scope.
func FetchPendingReservationEvents(ctx context.Context, limit int) ([]*ReservationEventRecord, error) {
	ctx = utils.SetSkipTenantScopeInContext(ctx, true)
	db := config.GetDB()

	var records []*ReservationEventRecord
	err := db.WithContext(ctx).
		Where("publish_status = ?", OutboxPublishStatusPending).
		Order("id").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// MarkReservationEventSent records a successful relay.
func MarkReservationEventSent(ctx context.Context, record *ReservationEventRecord) error {
	ctx = utils.SetSkipTenantScopeInContext(ctx, true)
	db := config.GetDB()
	now := time.Now().UTC()
	return db.WithContext(ctx).Model(record).Updates(map[string]interface{}{
		"publish_status": OutboxPublishStatusSent,
		"publish_error":  "",
		"published_at":   now,
	}).Error
}

// MarkReservationEventError keeps the row for inspection; the dispatcher does
// not retry errored rows automatically.
func MarkReservationEventError(ctx context.Context, record *ReservationEventRecord, publishErr error) error {
	ctx = utils.SetSkipTenantScopeInContext(ctx, true)
	db := config.GetDB()
	return db.WithContext(ctx).Model(record).Updates(map[string]interface{}{
		"publish_status": OutboxPublishStatusError,
		"publish_error":  publishErr.Error(),
	}).Error
}

// RelayReservationEvent pushes one outbox row to Pub/Sub and marks the
// outcome on the row.
func RelayReservationEvent(ctx context.Context, record *ReservationEventRecord) error {
	msg := config.PubSubMessage{
		ID:            record.ID,
		TenantId:      record.TenantId,
		ReservationId: record.ReservationId,
		Action:        string(record.Action),
		OccurredAt:    record.CreatedAt,
		Payload:       record.Payload,
		CorrelationId: record.CorrelationId,
	}
	if _, err := config.PublishReservationEvent(ctx, msg); err != nil {
		if markErr := MarkReservationEventError(ctx, record, err); markErr != nil {
			config.LogError(config.GetLogger(), "models", "RelayReservationEvent", "mark error status", record.ID, markErr)
		}
		return err
	}
	return MarkReservationEventSent(ctx, record)
}

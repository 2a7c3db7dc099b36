package utils

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"bitbucket.org/pawdesk/petcare_backend/config"
	"github.com/bsm/redislock"
	"github.com/go-playground/validator/v10"
)

// ErrorLockNotObtained is returned when a distributed lock is already held.
var ErrorLockNotObtained = errors.New("could not obtain lock")

// ObtainAllocationLock locks a tenant+resource pair for the duration of a
// conflict-check-and-write section. The caller MUST Release the returned lock.
// Holding the lock across the read and the insert closes the check-then-act
// race between two requests targeting the same resource and overlapping dates.
func ObtainAllocationLock(ctx context.Context, tenantId string, resourceId int) (*redislock.Lock, error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		// Avoid nil-pointer panics when Redis lock isn't initialized yet.
		config.LogError(logger, "utils", "ObtainAllocationLock", "Redis lock not initialized", tenantId, errors.New("redis lock is nil"))
		return nil, errors.New("service not ready (redis lock not initialized)")
	}
	lockKey := fmt.Sprintf("resource_alloc:%s:%d", tenantId, resourceId)
	// Short bounded retry so two near-simultaneous bookings queue up instead of
	// one failing outright.
	backoff := redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 10)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, &redislock.Options{RetryStrategy: backoff})
	if err == redislock.ErrNotObtained {
		config.LogError(logger, "utils", "ObtainAllocationLock", "Could not obtain allocation lock", lockKey, err)
		return nil, ErrorLockNotObtained
	} else if err != nil {
		config.LogError(logger, "utils", "ObtainAllocationLock", "Error obtaining allocation lock", lockKey, err)
		return nil, err
	}
	return lock, nil
}

func ProcessValidationErrors(err error) map[string]string {

	validationErrors := err.(validator.ValidationErrors)

	errorResponse := make(map[string]string)

	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			// if not exists in map, append it, otherwise do nothing
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

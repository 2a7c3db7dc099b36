package models

import (
	"encoding/json"
	"errors"
)

type ServiceCategory string

const (
	ServiceCategoryBoarding ServiceCategory = "BOARDING"
	ServiceCategoryDaycare  ServiceCategory = "DAYCARE"
	ServiceCategoryGrooming ServiceCategory = "GROOMING"
	ServiceCategoryTraining ServiceCategory = "TRAINING"
)

var serviceCategories = map[string]ServiceCategory{
	"BOARDING": ServiceCategoryBoarding,
	"DAYCARE":  ServiceCategoryDaycare,
	"GROOMING": ServiceCategoryGrooming,
	"TRAINING": ServiceCategoryTraining,
}

func (t ServiceCategory) Valid() bool {
	_, ok := serviceCategories[string(t)]
	return ok
}

func (t *ServiceCategory) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("service category must be string")
	}
	v, ok := serviceCategories[str]
	if !ok {
		return errors.New("invalid service category")
	}
	*t = v
	return nil
}

type ReservationStatus string

const (
	StatusPending    ReservationStatus = "PENDING"
	StatusConfirmed  ReservationStatus = "CONFIRMED"
	StatusCheckedIn  ReservationStatus = "CHECKED_IN"
	StatusCheckedOut ReservationStatus = "CHECKED_OUT"
	StatusCompleted  ReservationStatus = "COMPLETED"
	StatusCancelled  ReservationStatus = "CANCELLED"
	StatusNoShow     ReservationStatus = "NO_SHOW"
)

var reservationStatuses = map[string]ReservationStatus{
	"PENDING":     StatusPending,
	"CONFIRMED":   StatusConfirmed,
	"CHECKED_IN":  StatusCheckedIn,
	"CHECKED_OUT": StatusCheckedOut,
	"COMPLETED":   StatusCompleted,
	"CANCELLED":   StatusCancelled,
	"NO_SHOW":     StatusNoShow,
}

func (t ReservationStatus) Valid() bool {
	_, ok := reservationStatuses[string(t)]
	return ok
}

func (t *ReservationStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("reservation status must be string")
	}
	v, ok := reservationStatuses[str]
	if !ok {
		return errors.New("invalid reservation status")
	}
	*t = v
	return nil
}

// ActiveReservationStatuses are the statuses that still occupy a resource for
// conflict purposes. CANCELLED and NO_SHOW never block, regardless of dates.
var ActiveReservationStatuses = []ReservationStatus{
	StatusConfirmed,
	StatusCheckedIn,
	StatusCheckedOut,
}

func (t ReservationStatus) IsActive() bool {
	for _, s := range ActiveReservationStatuses {
		if t == s {
			return true
		}
	}
	return false
}

type SuiteType string

const (
	SuiteTypeStandard   SuiteType = "STANDARD_SUITE"
	SuiteTypeDeluxe     SuiteType = "DELUXE_SUITE"
	SuiteTypeLuxury     SuiteType = "LUXURY_SUITE"
	SuiteTypeCatCondo   SuiteType = "CAT_CONDO"
	SuiteTypeDaycareRun SuiteType = "DAYCARE_RUN"
)

var suiteTypes = map[string]SuiteType{
	"STANDARD_SUITE": SuiteTypeStandard,
	"DELUXE_SUITE":   SuiteTypeDeluxe,
	"LUXURY_SUITE":   SuiteTypeLuxury,
	"CAT_CONDO":      SuiteTypeCatCondo,
	"DAYCARE_RUN":    SuiteTypeDaycareRun,
}

func (t SuiteType) Valid() bool {
	_, ok := suiteTypes[string(t)]
	return ok
}

func (t *SuiteType) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("suite type must be string")
	}
	v, ok := suiteTypes[str]
	if !ok {
		return errors.New("invalid suite type")
	}
	*t = v
	return nil
}

type RecurrenceFrequency string

const (
	FrequencyDaily   RecurrenceFrequency = "DAILY"
	FrequencyWeekly  RecurrenceFrequency = "WEEKLY"
	FrequencyMonthly RecurrenceFrequency = "MONTHLY"
)

var recurrenceFrequencies = map[string]RecurrenceFrequency{
	"DAILY":   FrequencyDaily,
	"WEEKLY":  FrequencyWeekly,
	"MONTHLY": FrequencyMonthly,
}

func (t RecurrenceFrequency) Valid() bool {
	_, ok := recurrenceFrequencies[string(t)]
	return ok
}

func (t *RecurrenceFrequency) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("recurrence frequency must be string")
	}
	v, ok := recurrenceFrequencies[str]
	if !ok {
		return errors.New("invalid recurrence frequency")
	}
	*t = v
	return nil
}

type ReservationEventAction string

const (
	ReservationEventCreated   ReservationEventAction = "Created"
	ReservationEventUpdated   ReservationEventAction = "Updated"
	ReservationEventCancelled ReservationEventAction = "Cancelled"
)

type OutboxPublishStatus string

const (
	OutboxPublishStatusPending OutboxPublishStatus = "Pending"
	OutboxPublishStatusSent    OutboxPublishStatus = "Sent"
	OutboxPublishStatusError   OutboxPublishStatus = "Error"
)

package models

import (
	"log"

	"bitbucket.org/pawdesk/petcare_backend/config"
)

func MigrateTable() {
	db := config.GetDB()
	err := db.AutoMigrate(
		&Tenant{},
		&Customer{},
		&Pet{},
		&Service{},
		&CategoryResourcePolicy{},
		&Resource{},
		&Reservation{},
		&RecurringReservationPattern{},
		&ReservationEventRecord{},
	)
	if err != nil {
		log.Fatal(err)
	}
}

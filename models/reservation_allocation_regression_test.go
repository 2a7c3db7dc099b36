package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"bitbucket.org/pawdesk/petcare_backend/config"
	"bitbucket.org/pawdesk/petcare_backend/models"
	"bitbucket.org/pawdesk/petcare_backend/utils"
	"github.com/shopspring/decimal"
)

// Exercises the allocation engine end to end against real MySQL and Redis:
// explicit-resource conflicts, back-to-back bookings, first-fit auto
// assignment, self-exclusion on update, cancelled bookings releasing their
// slot, order numbering, recurrence materialization and tenant isolation.
func TestReservationAllocationEndToEnd(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "pawdesk_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")

	tenant, err := models.CreateTenant(ctx, &models.NewTenant{
		Name:  "Happy Tails",
		Email: "owner@happytails.test",
	})
	if err != nil {
		t.Fatalf("CreateTenant: %v", err)
	}
	tenantId := tenant.ID.String()
	ctx = utils.SetTenantIdInContext(ctx, tenantId)

	db := config.GetDB()

	customer := models.Customer{TenantId: tenantId, Name: "Alex Morgan"}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	pet := models.Pet{TenantId: tenantId, CustomerId: customer.ID, Name: "Biscuit", Breed: "Corgi"}
	if err := db.Create(&pet).Error; err != nil {
		t.Fatalf("seed pet: %v", err)
	}

	boarding := models.Service{
		TenantId: tenantId,
		Name:     "Overnight Boarding",
		Category: models.ServiceCategoryBoarding,
		DayRate:  decimal.NewFromInt(45),
	}
	grooming := models.Service{
		TenantId:    tenantId,
		Name:        "Full Groom",
		Category:    models.ServiceCategoryGrooming,
		SessionRate: decimal.NewFromInt(60),
	}
	if err := db.Create(&boarding).Error; err != nil {
		t.Fatalf("seed boarding service: %v", err)
	}
	if err := db.Create(&grooming).Error; err != nil {
		t.Fatalf("seed grooming service: %v", err)
	}

	suiteA, err := models.CreateResource(ctx, &models.NewResource{Name: "Suite A", Type: models.SuiteTypeStandard})
	if err != nil {
		t.Fatalf("CreateResource(Suite A): %v", err)
	}
	suiteB, err := models.CreateResource(ctx, &models.NewResource{Name: "Suite B", Type: models.SuiteTypeStandard})
	if err != nil {
		t.Fatalf("CreateResource(Suite B): %v", err)
	}

	standard := models.SuiteTypeStandard

	// Explicit booking on Suite A, Oct 21-24.
	first, warnings, err := models.CreateReservation(ctx, &models.NewReservation{
		CustomerId:      customer.ID,
		PetId:           pet.ID,
		ServiceId:       boarding.ID,
		ServiceCategory: models.ServiceCategoryBoarding,
		StartDate:       "2025-10-21",
		EndDate:         "2025-10-24",
		ResourceId:      &suiteA.ID,
	})
	if err != nil {
		t.Fatalf("create first reservation: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if first.ResourceId == nil || *first.ResourceId != suiteA.ID {
		t.Fatalf("expected Suite A assignment, got %v", first.ResourceId)
	}
	orderRe := regexp.MustCompile(`^RES-\d{8}-\d{3}$`)
	if !orderRe.MatchString(first.OrderNumber) {
		t.Fatalf("unexpected order number format: %q", first.OrderNumber)
	}

	// Overlapping explicit request on Suite A must be rejected with details.
	_, _, err = models.CreateReservation(ctx, &models.NewReservation{
		CustomerId:      customer.ID,
		PetId:           pet.ID,
		ServiceId:       boarding.ID,
		ServiceCategory: models.ServiceCategoryBoarding,
		StartDate:       "2025-10-23",
		EndDate:         "2025-10-25",
		ResourceId:      &suiteA.ID,
	})
	ce, ok := utils.AsConflictError(err)
	if !ok {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if len(ce.Conflicts) != 1 || ce.Conflicts[0].ReservationId != first.ID {
		t.Fatalf("expected one conflict naming reservation %d, got %+v", first.ID, ce.Conflicts)
	}

	// Back-to-back on the checkout day is legal.
	backToBack, _, err := models.CreateReservation(ctx, &models.NewReservation{
		CustomerId:      customer.ID,
		PetId:           pet.ID,
		ServiceId:       boarding.ID,
		ServiceCategory: models.ServiceCategoryBoarding,
		StartDate:       "2025-10-24",
		EndDate:         "2025-10-26",
		ResourceId:      &suiteA.ID,
	})
	if err != nil {
		t.Fatalf("back-to-back booking should succeed: %v", err)
	}
	if backToBack.OrderNumber == first.OrderNumber {
		t.Fatalf("order numbers must be unique, both %q", first.OrderNumber)
	}

	// Auto assignment with Suite A occupied lands on Suite B.
	auto, _, err := models.CreateReservation(ctx, &models.NewReservation{
		CustomerId:      customer.ID,
		PetId:           pet.ID,
		ServiceId:       boarding.ID,
		ServiceCategory: models.ServiceCategoryBoarding,
		StartDate:       "2025-10-21",
		EndDate:         "2025-10-24",
		SuiteType:       &standard,
	})
	if err != nil {
		t.Fatalf("auto assignment: %v", err)
	}
	if auto.ResourceId == nil || *auto.ResourceId != suiteB.ID {
		t.Fatalf("expected first-fit to pick Suite B, got %v", auto.ResourceId)
	}

	// Both suites occupied: auto assignment fails with a conflict.
	_, _, err = models.CreateReservation(ctx, &models.NewReservation{
		CustomerId:      customer.ID,
		PetId:           pet.ID,
		ServiceId:       boarding.ID,
		ServiceCategory: models.ServiceCategoryBoarding,
		StartDate:       "2025-10-22",
		EndDate:         "2025-10-23",
		SuiteType:       &standard,
	})
	if _, ok := utils.AsConflictError(err); !ok {
		t.Fatalf("expected conflict when no resource is free, got %v", err)
	}

	// Cancelling frees the slot immediately.
	cancelled := models.StatusCancelled
	if _, _, err := models.UpdateReservationById(ctx, auto.ID, &models.UpdateReservation{Status: &cancelled}); err != nil {
		t.Fatalf("cancel reservation: %v", err)
	}
	retry, _, err := models.CreateReservation(ctx, &models.NewReservation{
		CustomerId:      customer.ID,
		PetId:           pet.ID,
		ServiceId:       boarding.ID,
		ServiceCategory: models.ServiceCategoryBoarding,
		StartDate:       "2025-10-22",
		EndDate:         "2025-10-23",
		SuiteType:       &standard,
	})
	if err != nil {
		t.Fatalf("booking after cancellation should succeed: %v", err)
	}
	if retry.ResourceId == nil || *retry.ResourceId != suiteB.ID {
		t.Fatalf("expected Suite B after cancellation, got %v", retry.ResourceId)
	}

	// Updating a reservation's dates must not conflict with itself.
	newEnd := "2025-10-23"
	updated, _, err := models.UpdateReservationById(ctx, first.ID, &models.UpdateReservation{EndDate: &newEnd})
	if err != nil {
		t.Fatalf("reschedule reservation (self-exclusion): %v", err)
	}
	if updated.EndDate.Format("2006-01-02") != newEnd {
		t.Fatalf("expected end date %s, got %s", newEnd, updated.EndDate.Format("2006-01-02"))
	}

	// But it still conflicts with other bookings on the same resource.
	clash := "2025-10-25"
	if _, _, err := models.UpdateReservationById(ctx, first.ID, &models.UpdateReservation{EndDate: &clash}); err == nil {
		t.Fatal("expected conflict extending into the back-to-back booking")
	}

	// Grooming books staff time, not a suite.
	groom, _, err := models.CreateReservation(ctx, &models.NewReservation{
		CustomerId:      customer.ID,
		PetId:           pet.ID,
		ServiceId:       grooming.ID,
		ServiceCategory: models.ServiceCategoryGrooming,
		StartDate:       "2025-10-21",
		EndDate:         "2025-10-22",
	})
	if err != nil {
		t.Fatalf("grooming reservation: %v", err)
	}
	if groom.ResourceId != nil {
		t.Fatalf("grooming must not occupy a resource, got %v", *groom.ResourceId)
	}

	// Recurrence: preview does not persist, generate does.
	if _, err := models.CreateRecurringPattern(ctx, groom.ID, &models.NewRecurringPattern{
		Frequency:       models.FrequencyDaily,
		Interval:        7,
		OccurrenceLimit: intPtr(2),
	}); err != nil {
		t.Fatalf("CreateRecurringPattern: %v", err)
	}

	preview, err := models.GenerateRecurringInstances(ctx, groom.ID, &models.GenerateInstancesOptions{PreviewOnly: true})
	if err != nil {
		t.Fatalf("preview instances: %v", err)
	}
	if len(preview.Instances) != 2 || preview.Instances[0].ReservationId != nil {
		t.Fatalf("preview must list 2 unpersisted instances, got %+v", preview.Instances)
	}

	generated, err := models.GenerateRecurringInstances(ctx, groom.ID, &models.GenerateInstancesOptions{})
	if err != nil {
		t.Fatalf("generate instances: %v", err)
	}
	if len(generated.Instances) != 2 {
		t.Fatalf("expected 2 generated instances, got %d", len(generated.Instances))
	}
	for _, inst := range generated.Instances {
		if inst.ReservationId == nil || inst.OrderNumber == "" {
			t.Fatalf("instance %d was not materialized: %+v", inst.Sequence, inst)
		}
		stored, err := models.GetReservation(ctx, *inst.ReservationId)
		if err != nil {
			t.Fatalf("fetch generated instance: %v", err)
		}
		if stored.IsRecurring == nil || !*stored.IsRecurring {
			t.Fatalf("generated instance %d not flagged recurring", *inst.ReservationId)
		}
		if stored.OriginReservationId == nil || *stored.OriginReservationId != groom.ID {
			t.Fatalf("generated instance %d not linked to origin %d", *inst.ReservationId, groom.ID)
		}
	}

	// Removing the recurrence reverts the origin.
	if err := models.DeleteRecurringPattern(ctx, groom.ID); err != nil {
		t.Fatalf("DeleteRecurringPattern: %v", err)
	}
	reverted, err := models.GetReservation(ctx, groom.ID)
	if err != nil {
		t.Fatalf("fetch origin after recurrence removal: %v", err)
	}
	if reverted.IsRecurring != nil && *reverted.IsRecurring {
		t.Fatal("origin should no longer be flagged recurring")
	}

	// Tenant isolation: a second tenant sees nothing of the first.
	other, err := models.CreateTenant(ctx, &models.NewTenant{Name: "Paws Inn", Email: "owner@pawsinn.test"})
	if err != nil {
		t.Fatalf("CreateTenant(other): %v", err)
	}
	otherCtx := utils.SetTenantIdInContext(context.Background(), other.ID.String())
	if _, err := models.GetReservation(otherCtx, first.ID); !utils.IsNotFound(err) {
		t.Fatalf("cross-tenant fetch must be not-found, got %v", err)
	}
	otherList, err := models.GetReservations(otherCtx, nil)
	if err != nil {
		t.Fatalf("list for other tenant: %v", err)
	}
	if len(otherList) != 0 {
		t.Fatalf("other tenant must see no reservations, got %d", len(otherList))
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("pawdesk-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("pawdesk-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=pawdesk_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}

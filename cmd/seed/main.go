// seed inserts development sample data for local testing. Run via ./scripts/seed.sh.
// Idempotent: skips inserts if the dev user (dev@example.com) already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"silowatch/internal/config"
	"silowatch/internal/db"
	devicedomain "silowatch/internal/device/domain"
	devicerepo "silowatch/internal/device/repository"
	orgdomain "silowatch/internal/organization/domain"
	orgrepo "silowatch/internal/organization/repository"
	"silowatch/internal/security"
	silodomain "silowatch/internal/silo/domain"
	silorepo "silowatch/internal/silo/repository"
	userdomain "silowatch/internal/user/domain"
	userrepo "silowatch/internal/user/repository"
)

const (
	devUserEmail  = "dev@example.com"
	devPassword   = "password123"
	devUserID     = "dev-user-001"
	devUser2ID    = "dev-user-002"
	devOrgID      = "dev-org-001"
	devSiloID     = "dev-silo-001"
	devDeviceID   = "dev-device-001"
	devDevice2ID  = "dev-device-002"
	operatorEmail = "operator@example.com"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)
	orgs := orgrepo.NewPostgresRepository(conn)
	silos := silorepo.NewPostgresRepository(conn)
	devices := devicerepo.NewPostgresRepository(conn)

	existing, err := users.GetByEmail(ctx, devUserEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (dev@example.com exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	orgID := devOrgID
	siloID := devSiloID

	if err := orgs.Create(ctx, &orgdomain.Organization{
		ID:          orgID,
		Name:        "Acme Grain Co",
		Description: "Development tenant",
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		log.Fatalf("create org: %v", err)
	}

	if err := users.Create(ctx, &userdomain.User{
		ID:           devUserID,
		OrgID:        &orgID,
		Email:        devUserEmail,
		Name:         "Dev Admin",
		PasswordHash: passwordHash,
		Role:         userdomain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		log.Fatalf("create dev user: %v", err)
	}

	if err := users.Create(ctx, &userdomain.User{
		ID:           devUser2ID,
		OrgID:        &orgID,
		Email:        operatorEmail,
		Name:         "Silo Operator",
		PasswordHash: passwordHash,
		Role:         userdomain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		log.Fatalf("create operator user: %v", err)
	}

	maxTemp := 30.0
	maxHumidity := 65.0
	if err := silos.Create(ctx, &silodomain.Silo{
		ID:             siloID,
		OrgID:          orgID,
		Name:           "East Silo",
		Description:    "Primary wheat storage",
		Grain:          "wheat",
		InUse:          true,
		MaxTemperature: &maxTemp,
		MaxHumidity:    &maxHumidity,
		CreatedAt:      now,
		UpdatedAt:      now,
	}); err != nil {
		log.Fatalf("create silo: %v", err)
	}

	lastSeen := now
	if err := devices.Create(ctx, &devicedomain.Device{
		ID:         devDeviceID,
		Name:       "East Silo Sensor A",
		SiloID:     &siloID,
		IsOnline:   true,
		LastSeenAt: &lastSeen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}); err != nil {
		log.Fatalf("create device: %v", err)
	}

	if err := devices.Create(ctx, &devicedomain.Device{
		ID:        devDevice2ID,
		Name:      "Spare Sensor B",
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		log.Fatalf("create spare device: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Dev login: %s / %s\n", devUserEmail, devPassword)
	fmt.Printf("Operator login: %s / %s\n", operatorEmail, devPassword)
}

//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/avolkov/revtrack/internal/auth"
	"github.com/avolkov/revtrack/internal/database"
	"github.com/avolkov/revtrack/internal/database/models"
	"github.com/avolkov/revtrack/pkg/config"
	"github.com/avolkov/revtrack/pkg/util"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

// Seeds an owner account plus a small set of CRM records so a fresh
// deployment has something to show. Run with: go run scripts/seed.go
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	email := envOr("OWNER_EMAIL", "owner@example.com")
	password := envOr("OWNER_PASSWORD", "changeme123")
	companyName := envOr("COMPANY_NAME", "Demo Company")

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService, nil, nil)

	res, err := authService.Register(context.Background(), auth.RegisterInput{
		Email:       email,
		Password:    password,
		FirstName:   "Demo",
		LastName:    "Owner",
		CompanyName: companyName,
	})
	if err != nil {
		if err == auth.ErrUserExists {
			fmt.Printf("Owner already exists: %s\n", email)
			return
		}
		log.Fatalf("failed to create owner: %v", err)
	}

	// Registration leaves the account unverified; the seed account skips
	// the email round trip.
	if err := db.Model(&models.User{}).
		Where("id = ?", res.UserID).
		Update("is_email_verified", true).Error; err != nil {
		log.Fatalf("failed to verify owner: %v", err)
	}

	if err := seedCRM(db, res.CompanyID); err != nil {
		log.Fatalf("failed to seed records: %v", err)
	}

	fmt.Printf("Seeded %s\n", companyName)
	fmt.Printf("Owner: %s / %s\n", email, password)
	fmt.Printf("Company ID: %s\n", res.CompanyID)
}

func seedCRM(db *gorm.DB, companyID uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		client := models.Client{
			CompanyID: companyID,
			Name:      "First Client LLC",
			Status:    models.StatusActive,
			Contacts: []models.ClientContact{
				{Name: "Ivan Ivanov", Email: "ivan@firstclient.example", Phone: "+1 555 0100"},
			},
		}
		if err := tx.Create(&client).Error; err != nil {
			return err
		}

		project := models.Project{
			CompanyID: companyID,
			ClientID:  &client.ID,
			Name:      "Website redesign",
			Status:    models.StatusActive,
		}
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		planned := time.Now().AddDate(0, 1, 0)
		order := models.Order{
			CompanyID:     companyID,
			ProjectID:     &project.ID,
			Name:          "Phase 1",
			Amount:        5000,
			OrderStatus:   models.OrderInProgress,
			PaymentStatus: models.PaymentNotPaid,
			PaymentType:   models.PaymentPrepaid,
			PlannedDate:   &planned,
			Status:        models.StatusActive,
		}
		return tx.Create(&order).Error
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Command seed loads a demo tenant with a small roster covering every
// compliance state: valid, expiring soon, expired, and no visa at all.
// Intended for local development; it refuses to run twice.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	_ = godotenv.Load()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		log.Fatalf("Unable to connect: %v", err)
	}
	defer pool.Close()

	var existing int
	if err := pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM companies WHERE name = $1`, "Malta Tech Solutions Ltd",
	).Scan(&existing); err != nil {
		log.Fatalf("Error checking for existing seed data: %v", err)
	}
	if existing > 0 {
		log.Println("Seed data already present, nothing to do")
		return
	}

	companyID := uuid.NewString()
	_, err = pool.Exec(ctx,
		`INSERT INTO companies (id, name, registration_number, city, subscription_tier, employees_limit)
		 VALUES ($1, $2, $3, $4, 'professional', 100)`,
		companyID, "Malta Tech Solutions Ltd", "C78234", "Valletta")
	if err != nil {
		log.Fatalf("Error creating company: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), 12)
	if err != nil {
		log.Fatalf("Error hashing demo password: %v", err)
	}
	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, company_id, email, password_hash, full_name, role)
		 VALUES ($1, $2, $3, $4, $5, 'admin')`,
		uuid.NewString(), companyID, "demo@maltatech.mt", string(hash), "Josephine Borg")
	if err != nil {
		log.Fatalf("Error creating demo user: %v", err)
	}

	today := time.Now()
	date := func(daysFromNow int) string {
		return today.AddDate(0, 0, daysFromNow).Format("2006-01-02")
	}

	type seedEmployee struct {
		firstName, lastName, nationality, passport, position string
		visaType                                             string
		visaStatus                                           string
		expiryOffsetDays                                     int
		hasVisa                                              bool
	}

	roster := []seedEmployee{
		{"Maria", "Santos", "Philippines", "P1234567A", "Care Worker", "Single Permit", "valid", 240, true},
		{"Rahul", "Sharma", "India", "Z9876543", "Software Developer", "Key Employee Initiative", "valid", 45, true},
		{"Elena", "Petrova", "Serbia", "008765432", "Hotel Supervisor", "Single Permit", "valid", 12, true},
		{"Ahmed", "Hassan", "Egypt", "A11223344", "Chef", "Single Permit", "expired", -30, true},
		{"Nguyen", "Van Minh", "Vietnam", "C55667788", "Welder", "", "", 0, false},
	}

	for _, e := range roster {
		employeeID := uuid.NewString()
		_, err = pool.Exec(ctx,
			`INSERT INTO employees (id, company_id, first_name, last_name, nationality,
			 passport_number, position, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, 'active')`,
			employeeID, companyID, e.firstName, e.lastName, e.nationality, e.passport, e.position)
		if err != nil {
			log.Fatalf("Error creating employee %s %s: %v", e.firstName, e.lastName, err)
		}

		if !e.hasVisa {
			continue
		}

		_, err = pool.Exec(ctx,
			`INSERT INTO visas (id, employee_id, visa_type, country_issued, issue_date,
			 expiry_date, permit_number, status)
			 VALUES ($1, $2, $3, 'Malta', $4, $5, $6, $7)`,
			uuid.NewString(), employeeID, e.visaType,
			date(e.expiryOffsetDays-365), date(e.expiryOffsetDays),
			fmt.Sprintf("SP-%s", e.passport), e.visaStatus)
		if err != nil {
			log.Fatalf("Error creating visa for %s %s: %v", e.firstName, e.lastName, err)
		}
	}

	log.Printf("Seeded company %s with %d employees", companyID, len(roster))
	log.Println("Demo login: demo@maltatech.mt / demo1234")
}

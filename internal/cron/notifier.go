// Package cron runs the background compliance monitor: a daily sweep
// that raises expiry alerts for visas inside the renewal window and
// missing-document alerts for active employees with no visa on file.
package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Gbun420/visatrack-malta/internal/compliance"
	"github.com/Gbun420/visatrack-malta/internal/database"
	"github.com/Gbun420/visatrack-malta/internal/models"
)

// StartNotifier launches the daily sweep goroutine. It runs once at
// startup and then every 24 hours until ctx is canceled.
func StartNotifier(ctx context.Context, db database.Service) {
	go func() {
		log.Println("[cron] expiry notifier started")
		run(ctx, db)

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[cron] expiry notifier stopped")
				return
			case <-ticker.C:
				run(ctx, db)
			}
		}
	}()
}

func run(ctx context.Context, db database.Service) {
	runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	now := time.Now()
	created := 0
	created += sweepExpiring(runCtx, db, now)
	created += sweepMissingDocuments(runCtx, db, now)
	log.Printf("[cron] sweep complete, %d alert(s) created", created)
}

// sweepExpiring raises an expiry alert for every visa whose renewal
// deadline is inside the window or already past. The notifier only
// considers visas still marked valid; lapsed lifecycle records already
// had their alert raised when they expired.
func sweepExpiring(ctx context.Context, db database.Service, now time.Time) int {
	rows, err := db.GetPool().Query(ctx,
		`SELECT e.company_id, e.id, e.first_name || ' ' || e.last_name,
		 v.id, v.employee_id, v.visa_type, v.issue_date::text, v.expiry_date::text,
		 v.status, v.application_status
		 FROM visas v
		 JOIN employees e ON e.id = v.employee_id
		 WHERE e.status = 'active'
		 ORDER BY e.id, v.created_at`)
	if err != nil {
		log.Printf("[cron] error fetching visas: %v", err)
		return 0
	}
	defer rows.Close()

	type employeeRef struct {
		companyID string
		id        string
		name      string
	}
	refs := map[string]employeeRef{}
	visasByEmployee := map[string][]models.Visa{}

	for rows.Next() {
		var ref employeeRef
		var v models.Visa
		err := rows.Scan(&ref.companyID, &ref.id, &ref.name,
			&v.ID, &v.EmployeeID, &v.VisaType, &v.IssueDate, &v.ExpiryDate,
			&v.Status, &v.ApplicationStatus)
		if err != nil {
			log.Printf("[cron] error scanning visa: %v", err)
			return 0
		}
		refs[ref.id] = ref
		visasByEmployee[ref.id] = append(visasByEmployee[ref.id], v)
	}
	if err := rows.Err(); err != nil {
		log.Printf("[cron] error iterating visas: %v", err)
		return 0
	}

	created := 0
	for employeeID, visas := range visasByEmployee {
		active := compliance.SelectActive(visas, compliance.StrictValid)
		if active == nil {
			continue
		}

		status := compliance.ClassifyDate(active.ExpiryDate, now)
		if status != compliance.StatusExpiringSoon && status != compliance.StatusExpired {
			continue
		}

		ref := refs[employeeID]
		days := compliance.DaysUntilDate(active.ExpiryDate, now)

		var title string
		if status == compliance.StatusExpired {
			title = fmt.Sprintf("%s for %s has expired", active.VisaType, ref.name)
		} else {
			title = fmt.Sprintf("%s for %s expires in %d day(s)", active.VisaType, ref.name, *days)
		}

		if insertAlert(ctx, db, ref.companyID, employeeID, "expiry", title, active.ExpiryDate, now) {
			created++
		}
	}
	return created
}

// sweepMissingDocuments raises a missing_document alert for every
// active employee with no visa on file at all.
func sweepMissingDocuments(ctx context.Context, db database.Service, now time.Time) int {
	rows, err := db.GetPool().Query(ctx,
		`SELECT e.company_id, e.id, e.first_name || ' ' || e.last_name
		 FROM employees e
		 WHERE e.status = 'active'
		 AND NOT EXISTS (SELECT 1 FROM visas v WHERE v.employee_id = e.id)`)
	if err != nil {
		log.Printf("[cron] error fetching employees without visas: %v", err)
		return 0
	}
	defer rows.Close()

	type missing struct {
		companyID, employeeID, name string
	}
	var found []missing
	for rows.Next() {
		var m missing
		if err := rows.Scan(&m.companyID, &m.employeeID, &m.name); err != nil {
			log.Printf("[cron] error scanning employee: %v", err)
			return 0
		}
		found = append(found, m)
	}
	if err := rows.Err(); err != nil {
		log.Printf("[cron] error iterating employees: %v", err)
		return 0
	}

	created := 0
	for _, m := range found {
		title := fmt.Sprintf("No visa on file for %s", m.name)
		if insertAlert(ctx, db, m.companyID, m.employeeID, "missing_document", title, "", now) {
			created++
		}
	}
	return created
}

// insertAlert creates an alert unless the same (company, employee, type)
// already got one today. The dedup keeps a daily ticker from piling up
// duplicate alerts for the same visa.
func insertAlert(ctx context.Context, db database.Service, companyID, employeeID, alertType, title, dueDate string, now time.Time) bool {
	var exists bool
	err := db.GetPool().QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM compliance_alerts
		   WHERE company_id = $1 AND employee_id = $2 AND alert_type = $3
		   AND created_at::date = $4::date
		 )`,
		companyID, employeeID, alertType, now.Format("2006-01-02")).Scan(&exists)
	if err != nil {
		log.Printf("[cron] error checking for existing alert: %v", err)
		return false
	}
	if exists {
		return false
	}

	var due interface{}
	if dueDate != "" {
		due = dueDate
	}

	_, err = db.GetPool().Exec(ctx,
		`INSERT INTO compliance_alerts (company_id, employee_id, alert_type, title, due_date, status)
		 VALUES ($1, $2, $3, $4, $5, 'open')`,
		companyID, employeeID, alertType, title, due)
	if err != nil {
		log.Printf("[cron] error creating alert: %v", err)
		return false
	}

	log.Printf("[cron] alert created: %s", title)
	return true
}

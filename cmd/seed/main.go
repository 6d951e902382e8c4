package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"sort"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saurabh8101998/HMS/internal/db"
	"github.com/saurabh8101998/HMS/internal/schedule"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedProviders(context.Background(), pool, 25); err != nil {
		log.Fatalf("seed providers: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 2000); err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	log.Println("seed complete")
}

var specialties = []string{
	"General Practice",
	"Cardiology",
	"Dermatology",
	"Pediatrics",
	"Neurology",
	"Orthopedics",
	"Endocrinology",
	"Psychiatry",
}

var hospitals = []string{
	"City General Hospital",
	"Community Health Center",
	"Skin & Care Clinic",
	"Neuro Institute",
	"Riverside Medical Center",
}

func seedProviders(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d providers", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	weekStart := schedule.TruncateHour(time.Now().UTC().AddDate(0, 0, 1))

	for i := 0; i < count; i++ {
		id := uuid.New()
		tpl := randomTemplate()

		templateJSON, err := json.Marshal(tpl)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO providers (id, name, specialty, hospital, bio, template, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		`,
			id,
			"Dr. "+gofakeit.Name(),
			specialties[gofakeit.Number(0, len(specialties)-1)],
			hospitals[gofakeit.Number(0, len(hospitals)-1)],
			gofakeit.Sentence(12),
			templateJSON,
		)
		if err != nil {
			return err
		}

		for _, slot := range schedule.ExpandTemplate(tpl, weekStart, 7) {
			if _, err := tx.Exec(ctx, `
				INSERT INTO provider_slots (provider_id, slot_time)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, id, slot); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("providers seeded")
	return nil
}

// randomTemplate builds a plausible working week: a handful of morning and
// afternoon hours on weekdays, nothing on weekends.
func randomTemplate() schedule.WeeklyTemplate {
	return schedule.WeeklyTemplate{
		Monday:    randomHours(),
		Tuesday:   randomHours(),
		Wednesday: randomHours(),
		Thursday:  randomHours(),
		Friday:    randomHours(),
	}
}

func randomHours() []int {
	picked := make(map[int]struct{})
	n := gofakeit.Number(2, 6)
	for i := 0; i < n; i++ {
		picked[gofakeit.Number(8, 17)] = struct{}{}
	}

	hours := make([]int, 0, len(picked))
	for h := range picked {
		hours = append(hours, h)
	}
	sort.Ints(hours)
	return hours
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			name := gofakeit.Name()
			email := gofakeit.Email()

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, email, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, id, name, email)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return nil
}

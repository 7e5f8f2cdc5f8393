package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebridge/booking-platform/internal/db"
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

	doctorIDs, err := seedDoctors(context.Background(), pool, 50)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedAvailability(context.Background(), pool, doctorIDs, 14); err != nil {
		log.Fatalf("seed availability: %v", err)
	}

	log.Println("seed complete")
}

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var consultationModes = [][]string{
	{"video"},
	{"clinic"},
	{"video", "clinic"},
	{"video", "clinic", "home"},
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d doctors", count)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()

		_, err := pool.Exec(ctx, `
			INSERT INTO doctor_accounts
				(id, email, full_name, qualification, license_number, specialty,
				 consultation_modes, follow_up_fee_cents, general_checkup_fee_cents,
				 specialist_fee_cents, profile_image_url, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
		`,
			id,
			gofakeit.Email(),
			"Dr. "+gofakeit.Name(),
			"MBBS, MD",
			fmt.Sprintf("LIC-%d", gofakeit.Number(100000, 999999)),
			specialties[i%len(specialties)],
			consultationModes[i%len(consultationModes)],
			int64(gofakeit.Number(2000, 5000)),
			int64(gofakeit.Number(5000, 10000)),
			int64(gofakeit.Number(10000, 30000)),
			gofakeit.ImageURL(200, 200),
		)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func seedAvailability(ctx context.Context, pool *pgxpool.Pool, doctorIDs []uuid.UUID, days int) error {
	log.Printf("seeding %d days of availability for %d doctors", days, len(doctorIDs))

	slots := []string{
		"09:00-09:30", "09:30-10:00", "10:00-10:30", "10:30-11:00",
		"11:00-11:30", "14:00-14:30", "14:30-15:00", "15:00-15:30",
	}

	for _, doctorID := range doctorIDs {
		for d := 1; d <= days; d++ {
			date := time.Now().AddDate(0, 0, d).Format("2006-01-02")

			// Leave some days open-but-empty to exercise the reconciler's
			// non-empty filter.
			daySlots := slots
			if gofakeit.Number(0, 9) == 0 {
				daySlots = []string{}
			}

			_, err := pool.Exec(ctx, `
				INSERT INTO availability_slots (doctor_id, date, slots)
				VALUES ($1, $2::date, $3)
				ON CONFLICT (doctor_id, date) DO NOTHING
			`, doctorID, date, daySlots)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

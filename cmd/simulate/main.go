// Command simulate fires concurrent booking attempts for the same slot at a
// running api-server and reports the outcome split. Expected result: exactly
// one 201, the rest 409.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/carebridge/booking-platform/internal/identity"
)

type bookingRequest struct {
	DoctorID         string `json:"doctor_id"`
	Date             string `json:"date"`
	Time             string `json:"time"`
	ConsultationType string `json:"consultation_type"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func main() {
	var (
		baseURL  = flag.String("url", "http://127.0.0.1:8080", "api-server base URL")
		doctorID = flag.String("doctor", "", "doctor UUID to book against (required)")
		date     = flag.String("date", time.Now().AddDate(0, 0, 1).Format("2006-01-02"), "appointment date")
		slot     = flag.String("slot", "10:00-10:30", "time range to fight over")
		patients = flag.Int("patients", 20, "number of concurrent booking attempts")
	)
	flag.Parse()

	if *doctorID == "" {
		log.Fatal("-doctor is required")
	}
	if _, err := uuid.Parse(*doctorID); err != nil {
		log.Fatalf("-doctor is not a valid UUID: %v", err)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required to mint patient tokens")
	}
	verifier := identity.NewTokenVerifier(secret)

	log.Printf("simulating %d patients racing for %s %s (doctor %s)", *patients, *date, *slot, *doctorID)

	client := &http.Client{Timeout: 15 * time.Second}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		byStatus = make(map[int]int)
		byCode   = make(map[string]int)
	)

	start := time.Now()
	for i := 0; i < *patients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			token, err := verifier.Issue(uuid.New(), identity.RolePatient)
			if err != nil {
				log.Printf("patient %d: mint token: %v", i, err)
				return
			}

			body, _ := json.Marshal(bookingRequest{
				DoctorID:         *doctorID,
				Date:             *date,
				Time:             *slot,
				ConsultationType: "general",
			})

			req, err := http.NewRequest(http.MethodPost, *baseURL+"/bookings", bytes.NewReader(body))
			if err != nil {
				log.Printf("patient %d: build request: %v", i, err)
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := client.Do(req)
			if err != nil {
				log.Printf("patient %d: request failed: %v", i, err)
				return
			}
			defer resp.Body.Close()

			var errResp errorResponse
			_ = json.NewDecoder(resp.Body).Decode(&errResp)

			mu.Lock()
			byStatus[resp.StatusCode]++
			if errResp.Error != "" {
				byCode[errResp.Error]++
			}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	log.Printf("done in %s", time.Since(start))
	for status, count := range byStatus {
		log.Printf("  HTTP %d: %d", status, count)
	}
	for code, count := range byCode {
		log.Printf("  error %q: %d", code, count)
	}

	if byStatus[http.StatusCreated] != 1 {
		log.Printf("WARNING: expected exactly one successful booking, got %d", byStatus[http.StatusCreated])
		fmt.Println("FAIL")
		os.Exit(1)
	}
	fmt.Println("OK")
}

package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// A stand-in for the external schedule service: every user gets a 09:00-17:00
// day shift on the requested date. Odd user ids get a 404 to exercise the
// no-schedule path.
type shiftResponse struct {
	UserID    int64     `json:"userId"`
	ShiftName string    `json:"shiftName"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

func scheduleHandler(w http.ResponseWriter, r *http.Request) {
	rawID := strings.TrimPrefix(r.URL.Path, "/schedule/")
	userID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if userID%2 == 1 {
		http.NotFound(w, r)
		return
	}

	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		date = time.Now().UTC()
	}

	resp := shiftResponse{
		UserID:    userID,
		ShiftName: "Day Shift",
		StartTime: time.Date(date.Year(), date.Month(), date.Day(), 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(date.Year(), date.Month(), date.Day(), 17, 0, 0, 0, time.UTC),
	}

	log.Printf("Serving schedule for user %d on %s", userID, date.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func main() {
	http.HandleFunc("/schedule/", scheduleHandler)
	log.Println("Schedule API mock server starting on port 8081...")
	log.Fatal(http.ListenAndServe(":8081", nil))
}

package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/dental-reception/internal/nlu"
)

type TurnRequest struct {
	Turn       int        `json:"turn,omitempty"` // monotonic per-session counter; 0 = next
	Text       string     `json:"text"`
	Intent     string     `json:"intent"`
	Confidence float64    `json:"confidence"`
	Fields     nlu.Fields `json:"fields"`
}

type TurnResponse struct {
	SessionID string `json:"session_id"`
	Turn      int    `json:"turn"`
	Reply     string `json:"reply"`
	Stage     string `json:"stage"`
}

type RegisterPatientRequest struct {
	FullName string `json:"full_name"`
	Contact  string `json:"contact"`
}

type PatientResponse struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Contact  string    `json:"contact"`
}

type BookAppointmentRequest struct {
	PatientID string    `json:"patient_id"`
	Resource  string    `json:"resource,omitempty"`
	SlotStart time.Time `json:"slot_start"`
	SlotEnd   time.Time `json:"slot_end,omitempty"` // empty = default span
	Reason    string    `json:"reason,omitempty"`
}

type AppointmentResponse struct {
	ID        uuid.UUID  `json:"id"`
	PatientID uuid.UUID  `json:"patient_id"`
	Resource  string     `json:"resource"`
	SlotStart time.Time  `json:"slot_start"`
	SlotEnd   time.Time  `json:"slot_end"`
	Reason    string     `json:"reason,omitempty"`
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type AvailabilityResponse struct {
	Available     bool       `json:"available"`
	ConflictStart *time.Time `json:"conflict_start,omitempty"`
	ConflictEnd   *time.Time `json:"conflict_end,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/dental-reception/internal/dispatcher"
	"github.com/hackgods/dental-reception/internal/ledger"
	"github.com/hackgods/dental-reception/internal/nlu"
	"github.com/hackgods/dental-reception/internal/patient"
)

func turnHandler(d *dispatcher.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
		if sessionID == "" {
			writeError(w, http.StatusBadRequest, "invalid_session_id", "session id is required")
			return
		}

		var req TurnRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		turn := nlu.Turn{
			Text:       req.Text,
			Intent:     nlu.ParseIntent(req.Intent),
			Confidence: req.Confidence,
			Fields:     req.Fields,
		}

		reply := d.Handle(r.Context(), sessionID, req.Turn, turn)

		writeJSON(w, http.StatusOK, TurnResponse{
			SessionID: reply.SessionID,
			Turn:      reply.Turn,
			Reply:     reply.Text,
			Stage:     string(reply.Stage),
		})
	}
}

func registerPatientHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterPatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		p, err := svc.Register(r.Context(), req.FullName, req.Contact)
		if err != nil {
			switch {
			case errors.Is(err, patient.ErrNameRequired):
				writeError(w, http.StatusBadRequest, "name_required", err.Error())
			case errors.Is(err, patient.ErrContactRequired):
				writeError(w, http.StatusBadRequest, "contact_required", err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			}
			return
		}

		writeJSON(w, http.StatusCreated, toPatientResponse(p))
	}
}

func lookupPatientHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contact := r.URL.Query().Get("contact")

		p, err := svc.FindByContact(r.Context(), contact)
		if err != nil {
			switch {
			case errors.Is(err, patient.ErrPatientNotFound):
				writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
			case errors.Is(err, patient.ErrContactRequired):
				writeError(w, http.StatusBadRequest, "contact_required", err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			}
			return
		}

		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func listAppointmentsHandler(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, err := uuid.Parse(chi.URLParam(r, "patientID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient id must be a valid UUID")
			return
		}

		appts, err := svc.ListByPatient(r.Context(), patientID, 20)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		out := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			out = append(out, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func availabilityHandler(svc *ledger.Service, defaultResource string, defaultSpan time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		start, err := time.Parse(time.RFC3339, q.Get("start"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start", "start must be RFC3339")
			return
		}

		end := start.Add(defaultSpan)
		if rawEnd := q.Get("end"); rawEnd != "" {
			end, err = time.Parse(time.RFC3339, rawEnd)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_end", "end must be RFC3339")
				return
			}
		}

		resource := q.Get("resource")
		if resource == "" {
			resource = defaultResource
		}

		err = svc.CheckAvailability(r.Context(), resource, start, end)
		var conflict *ledger.ConflictError
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, AvailabilityResponse{Available: true})
		case errors.As(err, &conflict):
			writeJSON(w, http.StatusOK, AvailabilityResponse{
				Available:     false,
				ConflictStart: &conflict.Existing.SlotStart,
				ConflictEnd:   &conflict.Existing.SlotEnd,
			})
		case errors.Is(err, ledger.ErrInvalidWindow):
			writeError(w, http.StatusBadRequest, "invalid_window", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
	}
}

func bookAppointmentHandler(svc *ledger.Service, defaultResource string, defaultSpan time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		resource := req.Resource
		if resource == "" {
			resource = defaultResource
		}
		end := req.SlotEnd
		if end.IsZero() {
			end = req.SlotStart.Add(defaultSpan)
		}

		appt, err := svc.Book(r.Context(), patientID, resource, req.SlotStart, end, req.Reason)
		if err != nil {
			handleBookError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func confirmAppointmentHandler(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.Confirm(r.Context(), id)
		if err != nil {
			handleStatusError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.Cancel(r.Context(), id)
		if err != nil {
			handleStatusError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleStatusError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func handleBookError(w http.ResponseWriter, err error) {
	var conflict *ledger.ConflictError
	switch {
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, "slot_conflict", err.Error())
	case errors.Is(err, ledger.ErrSlotBeingBooked):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, ledger.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, "invalid_window", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleStatusError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, ledger.ErrAppointmentExpired):
		writeError(w, http.StatusConflict, "appointment_expired", err.Error())
	case errors.Is(err, ledger.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func toPatientResponse(p *patient.Patient) PatientResponse {
	return PatientResponse{
		ID:       p.ID,
		FullName: p.FullName,
		Contact:  p.Contact,
	}
}

func toAppointmentResponse(a *ledger.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		PatientID: a.PatientID,
		Resource:  a.ResourceID,
		SlotStart: a.SlotStart,
		SlotEnd:   a.SlotEnd,
		Reason:    a.Reason,
		Status:    string(a.Status),
		ExpiresAt: a.ExpiresAt,
	}
}

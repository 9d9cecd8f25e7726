// internal/adapters/http_server/handlers.go
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"summerhouse/internal/adapters/observability"
	"summerhouse/internal/app"
	"summerhouse/internal/domain"
)

type Handlers struct {
	B *app.BookingService
	Q *app.QueryService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post("/v1/reservations", h.createReservation)
	s.mux.Post("/v1/reservations/{id}/confirm", h.confirmReservation)
	s.mux.Patch("/v1/reservations/{id}", h.modifyReservation)
	s.mux.Delete("/v1/reservations/{id}", h.cancelReservation)
	s.mux.Get("/v1/reservations/{id}", h.getReservation)
	s.mux.Get("/v1/reservations", h.listReservations)
	s.mux.Get("/v1/availability", h.checkAvailability)
	s.mux.Get("/v1/rates", h.seasonalRates)
}

// ---- wire DTOs ----

type createReservationReq struct {
	CheckIn         string  `json:"check_in"`
	CheckOut        string  `json:"check_out"`
	Adults          int     `json:"adults"`
	Children        int     `json:"children"`
	SpecialRequests *string `json:"special_requests,omitempty"`
}

type modifyReservationReq struct {
	CheckIn         *string `json:"check_in,omitempty"`
	CheckOut        *string `json:"check_out,omitempty"`
	Adults          *int    `json:"adults,omitempty"`
	Children        *int    `json:"children,omitempty"`
	SpecialRequests *string `json:"special_requests,omitempty"`
}

type cancelReservationReq struct {
	Reason string `json:"reason,omitempty"`
}

type reservationResp struct {
	ID                 string  `json:"reservation_id"`
	OwnerID            string  `json:"owner_id"`
	CheckIn            string  `json:"check_in"`
	CheckOut           string  `json:"check_out"`
	Adults             int     `json:"adults"`
	Children           int     `json:"children"`
	Status             string  `json:"status"`
	PaymentStatus      string  `json:"payment_status"`
	Nights             int     `json:"nights"`
	NightlyRate        int     `json:"nightly_rate"`
	CleaningFee        int     `json:"cleaning_fee"`
	TotalAmount        int     `json:"total_amount"`
	SpecialRequests    *string `json:"special_requests,omitempty"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
	CancelledAt        *string `json:"cancelled_at,omitempty"`
	CancellationReason *string `json:"cancellation_reason,omitempty"`
	RefundAmount       *int    `json:"refund_amount,omitempty"`
}

type modifyResp struct {
	Reservation     reservationResp `json:"reservation"`
	OldTotal        int             `json:"old_total"`
	NewTotal        int             `json:"new_total"`
	PriceDifference int             `json:"price_difference"`
}

type cancelResp struct {
	Reservation      reservationResp `json:"reservation"`
	RefundAmount     int             `json:"refund_amount"`
	RefundPercentage int             `json:"refund_percentage"`
	DaysUntilCheckIn int             `json:"days_until_check_in"`
}

type summaryResp struct {
	ID          string `json:"reservation_id"`
	CheckIn     string `json:"check_in"`
	CheckOut    string `json:"check_out"`
	Status      string `json:"status"`
	TotalAmount int    `json:"total_amount"`
}

type availabilityResp struct {
	StartDate        string   `json:"start_date"`
	EndDate          string   `json:"end_date"`
	Available        bool     `json:"available"`
	UnavailableDates []string `json:"unavailable_dates,omitempty"`
	TotalNights      int      `json:"total_nights"`
	NightlyRate      int      `json:"nightly_rate"`
	CleaningFee      int      `json:"cleaning_fee"`
	TotalAmount      int      `json:"total_amount"`
	SeasonName       string   `json:"season_name"`
}

type seasonResp struct {
	ID            string `json:"season_id"`
	Name          string `json:"name"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	NightlyRate   int    `json:"nightly_rate"`
	MinimumNights int    `json:"minimum_nights"`
	CleaningFee   int    `json:"cleaning_fee"`
}

func toReservationResp(res domain.Reservation) reservationResp {
	out := reservationResp{
		ID:                 res.ID,
		OwnerID:            res.OwnerID,
		CheckIn:            domain.DateKey(res.CheckIn),
		CheckOut:           domain.DateKey(res.CheckOut),
		Adults:             res.Adults,
		Children:           res.Children,
		Status:             string(res.Status),
		PaymentStatus:      string(res.PaymentStatus),
		Nights:             res.Nights,
		NightlyRate:        res.NightlyRate,
		CleaningFee:        res.CleaningFee,
		TotalAmount:        res.TotalAmount,
		SpecialRequests:    res.SpecialRequests,
		CreatedAt:          res.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          res.UpdatedAt.UTC().Format(time.RFC3339),
		CancellationReason: res.CancellationReason,
		RefundAmount:       res.RefundAmount,
	}
	if res.CancelledAt != nil {
		s := res.CancelledAt.UTC().Format(time.RFC3339)
		out.CancelledAt = &s
	}
	return out
}

// ---- helpers ----

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// ownerID extracts the caller identity. Auth is out of scope; the gateway in
// front of this service sets X-Owner-ID after verifying the session.
func ownerID(r *http.Request) string {
	return r.Header.Get("X-Owner-ID")
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}

// writeDomainError maps the closed error taxonomy onto HTTP statuses and
// records the booking outcome metric for the given operation.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	var ve *domain.ValidationError
	var ms *domain.MinimumStayError
	var du *domain.DatesUnavailableError
	switch {
	case errors.As(err, &ve):
		observability.ObserveBooking(op, "rejected")
		writeProblem(w, http.StatusBadRequest, "Invalid Request", ve.Error())
	case errors.As(err, &ms):
		observability.ObserveBooking(op, "rejected")
		writeProblem(w, http.StatusUnprocessableEntity, "Minimum Stay Not Met", ms.Error())
	case errors.As(err, &du):
		observability.ObserveBooking(op, "conflict")
		writeProblem(w, http.StatusConflict, "Dates Unavailable", du.Error())
	case errors.Is(err, domain.ErrNoPricing):
		observability.ObserveBooking(op, "rejected")
		writeProblem(w, http.StatusUnprocessableEntity, "No Pricing", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		observability.ObserveBooking(op, "rejected")
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		observability.ObserveBooking(op, "rejected")
		writeProblem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		observability.ObserveBooking(op, "rejected")
		writeProblem(w, http.StatusConflict, "Invalid State", err.Error())
	case errors.Is(err, domain.ErrAlreadyProcessed):
		observability.ObserveBooking(op, "conflict")
		writeProblem(w, http.StatusConflict, "Already Processed", err.Error())
	default:
		observability.ObserveBooking(op, "error")
		log.Error().Err(err).Str("operation", op).Msg("booking operation failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "unexpected failure")
	}
}

// ---- handlers ----

func (h *Handlers) createReservation(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeProblem(w, http.StatusForbidden, "Forbidden", "missing X-Owner-ID")
		return
	}
	var req createReservationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	checkIn, err := parseDate(req.CheckIn)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "check_in must be YYYY-MM-DD")
		return
	}
	checkOut, err := parseDate(req.CheckOut)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "check_out must be YYYY-MM-DD")
		return
	}

	res, err := h.B.CreateReservation(r.Context(), owner, app.CreateReservationInput{
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Adults:          req.Adults,
		Children:        req.Children,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		writeDomainError(w, "create", err)
		return
	}
	observability.ObserveBooking("create", "ok")
	writeJSON(w, http.StatusCreated, toReservationResp(res))
}

func (h *Handlers) confirmReservation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := h.B.ConfirmReservation(r.Context(), id)
	if err != nil {
		writeDomainError(w, "confirm", err)
		return
	}
	observability.ObserveBooking("confirm", "ok")
	writeJSON(w, http.StatusOK, toReservationResp(res))
}

func (h *Handlers) modifyReservation(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeProblem(w, http.StatusForbidden, "Forbidden", "missing X-Owner-ID")
		return
	}
	id := chi.URLParam(r, "id")
	var req modifyReservationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	in := app.ModifyReservationInput{
		Adults:          req.Adults,
		Children:        req.Children,
		SpecialRequests: req.SpecialRequests,
	}
	if req.CheckIn != nil {
		d, err := parseDate(*req.CheckIn)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid Request", "check_in must be YYYY-MM-DD")
			return
		}
		in.CheckIn = &d
	}
	if req.CheckOut != nil {
		d, err := parseDate(*req.CheckOut)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid Request", "check_out must be YYYY-MM-DD")
			return
		}
		in.CheckOut = &d
	}

	out, err := h.B.ModifyReservation(r.Context(), owner, id, in)
	if err != nil {
		writeDomainError(w, "modify", err)
		return
	}
	observability.ObserveBooking("modify", "ok")
	writeJSON(w, http.StatusOK, modifyResp{
		Reservation:     toReservationResp(out.Reservation),
		OldTotal:        out.OldTotal,
		NewTotal:        out.NewTotal,
		PriceDifference: out.PriceDifference,
	})
}

func (h *Handlers) cancelReservation(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeProblem(w, http.StatusForbidden, "Forbidden", "missing X-Owner-ID")
		return
	}
	id := chi.URLParam(r, "id")
	var req cancelReservationReq
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
			return
		}
	}

	out, err := h.B.CancelReservation(r.Context(), owner, id, req.Reason)
	if err != nil {
		writeDomainError(w, "cancel", err)
		return
	}
	observability.ObserveBooking("cancel", "ok")
	writeJSON(w, http.StatusOK, cancelResp{
		Reservation:      toReservationResp(out.Reservation),
		RefundAmount:     out.RefundAmount,
		RefundPercentage: out.RefundPercentage,
		DaysUntilCheckIn: out.DaysUntilCheckIn,
	})
}

func (h *Handlers) getReservation(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeProblem(w, http.StatusForbidden, "Forbidden", "missing X-Owner-ID")
		return
	}
	id := chi.URLParam(r, "id")
	res, err := h.Q.GetReservation(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "reservation not found")
			return
		}
		log.Error().Err(err).Str("id", id).Msg("get reservation failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "unexpected failure")
		return
	}
	if res.OwnerID != owner {
		writeProblem(w, http.StatusForbidden, "Forbidden", "caller does not own this reservation")
		return
	}
	writeJSON(w, http.StatusOK, toReservationResp(res))
}

func (h *Handlers) listReservations(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeProblem(w, http.StatusForbidden, "Forbidden", "missing X-Owner-ID")
		return
	}
	upcoming := r.URL.Query().Get("upcoming") == "true"
	items, err := h.Q.ListReservationsForOwner(r.Context(), owner, upcoming)
	if err != nil {
		log.Error().Err(err).Str("owner", owner).Msg("list reservations failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "unexpected failure")
		return
	}
	out := make([]summaryResp, 0, len(items))
	for _, it := range items {
		out = append(out, summaryResp{
			ID:          it.ID,
			CheckIn:     domain.DateKey(it.CheckIn),
			CheckOut:    domain.DateKey(it.CheckOut),
			Status:      string(it.Status),
			TotalAmount: it.TotalAmount,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) checkAvailability(w http.ResponseWriter, r *http.Request) {
	start, err := parseDate(r.URL.Query().Get("start"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "start must be YYYY-MM-DD")
		return
	}
	end, err := parseDate(r.URL.Query().Get("end"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "end must be YYYY-MM-DD")
		return
	}

	rep, err := h.Q.CheckAvailability(r.Context(), start, end)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeProblem(w, http.StatusBadRequest, "Invalid Request", ve.Error())
			return
		}
		log.Error().Err(err).Msg("availability check failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "unexpected failure")
		return
	}
	resp := availabilityResp{
		StartDate:   domain.DateKey(rep.StartDate),
		EndDate:     domain.DateKey(rep.EndDate),
		Available:   rep.Available,
		TotalNights: rep.TotalNights,
		NightlyRate: rep.NightlyRate,
		CleaningFee: rep.CleaningFee,
		TotalAmount: rep.TotalAmount,
		SeasonName:  rep.SeasonName,
	}
	for _, d := range rep.UnavailableDates {
		resp.UnavailableDates = append(resp.UnavailableDates, domain.DateKey(d))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) seasonalRates(w http.ResponseWriter, r *http.Request) {
	seasons, err := h.Q.SeasonalRates(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("seasonal rates failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "unexpected failure")
		return
	}
	out := make([]seasonResp, 0, len(seasons))
	for _, s := range seasons {
		out = append(out, seasonResp{
			ID:            s.ID,
			Name:          s.Name,
			StartDate:     domain.DateKey(s.StartDate),
			EndDate:       domain.DateKey(s.EndDate),
			NightlyRate:   s.NightlyRate,
			MinimumNights: s.MinimumNights,
			CleaningFee:   s.CleaningFee,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/broker-roster/internal/adapters/primary/validation"
	"github.com/lorrc/broker-roster/internal/core/domain"
	"github.com/lorrc/broker-roster/internal/core/ports"
)

// BrokerHandler handles HTTP requests for the broker roster
type BrokerHandler struct {
	brokerService ports.BrokerService
	errorHandler  *ErrorHandler
	logger        *slog.Logger
}

// NewBrokerHandler creates a new broker handler
func NewBrokerHandler(
	brokerService ports.BrokerService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *BrokerHandler {
	return &BrokerHandler{
		brokerService: brokerService,
		errorHandler:  errorHandler,
		logger:        logger.With("handler", "broker"),
	}
}

// Router sets up a new chi Router for all broker routes.
func (h *BrokerHandler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes sets up the routing for all broker endpoints.
func (h *BrokerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListBrokers)
	r.Post("/", h.HandleCreateBroker)
	r.Get("/stats", h.HandleStats)

	r.Route("/{brokerID}", func(r chi.Router) {
		r.Get("/", h.HandleGetBroker)
		r.Patch("/", h.HandleUpdateBroker)
		r.Delete("/", h.HandleDeleteBroker)
		r.Patch("/status", h.HandleSetStatus)
	})
}

// --- Request/Response DTOs ---

// CreateBrokerRequest defines the expected JSON body for creating a broker
type CreateBrokerRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	PhotoURL *string `json:"photoUrl"`
}

// Validate validates the create broker request
func (r *CreateBrokerRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("name", r.Name).
		MaxLength("name", r.Name, domain.MaxNameLength)

	v.Required("email", r.Email).
		MaxLength("email", r.Email, domain.MaxEmailLength).
		Email("email", r.Email)

	v.Required("phone", r.Phone).
		MaxLength("phone", r.Phone, domain.MaxPhoneLength)

	if r.PhotoURL != nil {
		v.MaxLength("photoUrl", *r.PhotoURL, domain.MaxPhotoURLLength).
			HTTPURL("photoUrl", *r.PhotoURL)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateBrokerRequest defines the expected JSON body for a partial update.
// Absent fields are left unchanged; an empty photoUrl removes the photo.
type UpdateBrokerRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	PhotoURL *string `json:"photoUrl"`
}

// Validate validates the update broker request
func (r *UpdateBrokerRequest) Validate() error {
	v := validation.NewValidator()

	if r.Name != nil {
		v.Required("name", *r.Name).
			MaxLength("name", *r.Name, domain.MaxNameLength)
	}
	if r.Email != nil {
		v.Required("email", *r.Email).
			MaxLength("email", *r.Email, domain.MaxEmailLength).
			Email("email", *r.Email)
	}
	if r.Phone != nil {
		v.Required("phone", *r.Phone).
			MaxLength("phone", *r.Phone, domain.MaxPhoneLength)
	}
	if r.PhotoURL != nil {
		v.MaxLength("photoUrl", *r.PhotoURL, domain.MaxPhotoURLLength).
			HTTPURL("photoUrl", *r.PhotoURL)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// SetStatusRequest defines the expected JSON body for toggling availability
type SetStatusRequest struct {
	IsOnline *bool `json:"isOnline"`
}

// Validate validates the set status request
func (r *SetStatusRequest) Validate() error {
	v := validation.NewValidator()

	v.RequiredBool("isOnline", r.IsOnline)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// BrokerDTO defines the JSON response for brokers.
type BrokerDTO struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	PhotoURL *string `json:"photoUrl"`
	IsOnline bool    `json:"isOnline"`
}

// BrokerStatsDTO defines the JSON response for roster counts.
type BrokerStatsDTO struct {
	Total   int `json:"total"`
	Online  int `json:"online"`
	Offline int `json:"offline"`
}

func toBrokerDTO(broker *domain.Broker) BrokerDTO {
	return BrokerDTO{
		ID:       broker.ID,
		Name:     broker.Name,
		Email:    broker.Email,
		Phone:    broker.Phone,
		PhotoURL: broker.PhotoURL,
		IsOnline: broker.IsOnline,
	}
}

func toBrokerDTOs(brokers []*domain.Broker) []BrokerDTO {
	response := make([]BrokerDTO, 0, len(brokers))
	for _, broker := range brokers {
		response = append(response, toBrokerDTO(broker))
	}
	return response
}

// --- Handlers ---

// HandleListBrokers handles GET /brokers
func (h *BrokerHandler) HandleListBrokers(w http.ResponseWriter, r *http.Request) {
	filter := domain.FilterAll
	if status := validation.ParseStringQueryParam(r, "status"); status != nil {
		parsed, err := domain.ParseStatusFilter(*status)
		if err != nil {
			h.errorHandler.Handle(w, r, err)
			return
		}
		filter = parsed
	}

	brokers, err := h.brokerService.ListBrokers(r.Context(), filter)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	// Clients consume the list as a bare array
	WriteJSON(w, http.StatusOK, toBrokerDTOs(brokers))
}

// HandleStats handles GET /brokers/stats
func (h *BrokerHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.brokerService.Stats(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, BrokerStatsDTO{
		Total:   stats.Total,
		Online:  stats.Online,
		Offline: stats.Offline,
	})
}

// HandleCreateBroker handles POST /brokers
func (h *BrokerHandler) HandleCreateBroker(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeJSON[CreateBrokerRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	broker, err := h.brokerService.CreateBroker(r.Context(), domain.BrokerParams{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		PhotoURL: req.PhotoURL,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("broker created",
		"broker_id", broker.ID,
		"request_id", GetRequestID(r.Context()),
	)

	WriteCreated(w, toBrokerDTO(broker))
}

// HandleGetBroker handles GET /brokers/{brokerID}
func (h *BrokerHandler) HandleGetBroker(w http.ResponseWriter, r *http.Request) {
	broker, err := h.brokerService.GetBroker(r.Context(), chi.URLParam(r, "brokerID"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toBrokerDTO(broker))
}

// HandleUpdateBroker handles PATCH /brokers/{brokerID}
func (h *BrokerHandler) HandleUpdateBroker(w http.ResponseWriter, r *http.Request) {
	brokerID := chi.URLParam(r, "brokerID")

	req, err := validation.DecodeJSON[UpdateBrokerRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	broker, err := h.brokerService.UpdateBroker(r.Context(), ports.UpdateBrokerParams{
		BrokerID: brokerID,
		Update: domain.BrokerUpdate{
			Name:     req.Name,
			Email:    req.Email,
			Phone:    req.Phone,
			PhotoURL: req.PhotoURL,
		},
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("broker updated",
		"broker_id", broker.ID,
		"request_id", GetRequestID(r.Context()),
	)

	WriteJSON(w, http.StatusOK, toBrokerDTO(broker))
}

// HandleSetStatus handles PATCH /brokers/{brokerID}/status
func (h *BrokerHandler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	brokerID := chi.URLParam(r, "brokerID")

	req, err := validation.DecodeJSON[SetStatusRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	broker, err := h.brokerService.SetStatus(r.Context(), ports.SetStatusParams{
		BrokerID: brokerID,
		IsOnline: *req.IsOnline,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("broker status changed",
		"broker_id", broker.ID,
		"is_online", broker.IsOnline,
		"request_id", GetRequestID(r.Context()),
	)

	WriteJSON(w, http.StatusOK, toBrokerDTO(broker))
}

// HandleDeleteBroker handles DELETE /brokers/{brokerID}
func (h *BrokerHandler) HandleDeleteBroker(w http.ResponseWriter, r *http.Request) {
	brokerID := chi.URLParam(r, "brokerID")

	if err := h.brokerService.DeleteBroker(r.Context(), brokerID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("broker deleted",
		"broker_id", brokerID,
		"request_id", GetRequestID(r.Context()),
	)

	WriteNoContent(w)
}

package bridge

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	apperrors "github.com/lueurxax/proactive-notifier/internal/core/errors"
	"github.com/lueurxax/proactive-notifier/internal/platform/observability"
	"github.com/lueurxax/proactive-notifier/internal/platform/textutil"
)

// Ingest routes.
const (
	RouteEvents   = "POST /v1/bridge/events"
	RouteReceipts = "POST /v1/bridge/receipts"
	RouteRooms    = "POST /v1/bridge/rooms"
	RouteEmails   = "POST /v1/emails"

	// MountPattern is the prefix the handler is mounted under.
	MountPattern = "/v1/"
)

const (
	maxRequestBody = 1 << 20
	bearerPrefix   = "Bearer "

	kindMessage    = "message"
	kindOwn        = "own"
	kindManagement = "management"
	kindReceipt    = "receipt"
	kindRoom       = "room"
	kindEmail      = "email"
	unknownService = "unknown"
)

// Store is the persistence the ingest API writes to.
type Store interface {
	SaveBridgeEvent(ctx context.Context, ev domain.BridgeEvent, needsTriage bool) (bool, error)
	UpsertReadReceipt(ctx context.Context, userID int64, roomID string, receipt domain.ReadReceipt) error
	UpsertRoom(ctx context.Context, room domain.BridgeRoom) error
	SaveEmail(ctx context.Context, email domain.Email) error
}

// Handler serves the ingest API.
type Handler struct {
	store  Store
	token  string
	logger *zerolog.Logger
	now    func() time.Time
}

// NewHandler creates the ingest handler. An empty token disables authentication.
func NewHandler(store Store, token string, logger *zerolog.Logger) *Handler {
	return &Handler{store: store, token: token, logger: logger, now: time.Now}
}

// Routes returns the ingest mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(RouteEvents, h.authorized(h.handleEvent))
	mux.HandleFunc(RouteReceipts, h.authorized(h.handleReceipt))
	mux.HandleFunc(RouteRooms, h.authorized(h.handleRoom))
	mux.HandleFunc(RouteEmails, h.authorized(h.handleEmail))

	return mux
}

type eventRequest struct {
	EventID           string `json:"event_id"`
	UserID            int64  `json:"user_id"`
	RoomID            string `json:"room_id"`
	RoomName          string `json:"room_name"`
	Service           string `json:"service"`
	Sender            string `json:"sender"`
	SenderDisplayName string `json:"sender_display_name"`
	IsOwn             bool   `json:"is_own"`
	MsgType           string `json:"msgtype"`
	Body              string `json:"body"`
	FormattedBody     string `json:"formatted_body"`
	TimestampMS       int64  `json:"timestamp_ms"`
	MemberCount       int    `json:"member_count"`
	MentionsUser      bool   `json:"mentions_user"`
	IsManagementRoom  bool   `json:"is_management_room"`
}

type receiptRequest struct {
	UserID      int64  `json:"user_id"`
	RoomID      string `json:"room_id"`
	EventID     string `json:"event_id"`
	TimestampMS int64  `json:"timestamp_ms"`
}

type roomRequest struct {
	UserID       int64  `json:"user_id"`
	RoomID       string `json:"room_id"`
	DisplayName  string `json:"display_name"`
	Service      string `json:"service"`
	Muted        bool   `json:"muted"`
	LastActivity int64  `json:"last_activity_ms"`
}

type emailRequest struct {
	UserID    int64  `json:"user_id"`
	MessageID string `json:"message_id"`
	From      string `json:"from"`
	Subject   string `json:"subject"`
	Snippet   string `json:"snippet"`
	Date      string `json:"date"`
}

type eventResponse struct {
	Stored  bool `json:"stored"`
	Queued  bool `json:"queued"`
	Ignored bool `json:"ignored,omitempty"`
}

func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !h.decode(w, r, &req) {
		return
	}

	if req.EventID == "" || req.UserID == 0 || req.RoomID == "" || req.Sender == "" {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: event_id, user_id, room_id and sender are required", apperrors.ErrInvalidInput))
		return
	}

	ev := eventFromRequest(req)
	if ev.Service == "" {
		if service, ok := InferService(ev.RoomName, ev.Sender); ok {
			ev.Service = service
		}
	}

	kind := kindMessage

	switch {
	case ev.IsManagementRoom:
		kind = kindManagement
	case ev.IsOwn:
		kind = kindOwn
	}

	// Own events are kept for the reply check but never triaged.
	needsTriage := !ev.IsOwn

	stored, err := h.store.SaveBridgeEvent(r.Context(), ev, needsTriage)
	if err != nil {
		h.logger.Error().Err(err).Str("event_id", ev.EventID).Msg("failed to store bridge event")
		h.writeError(w, http.StatusInternalServerError, err)

		return
	}

	if stored {
		observability.EventsIngested.WithLabelValues(serviceLabel(ev.Service), kind).Inc()
	}

	h.writeJSON(w, http.StatusAccepted, eventResponse{Stored: stored, Queued: stored && needsTriage, Ignored: !stored})
}

func eventFromRequest(req eventRequest) domain.BridgeEvent {
	msgType := req.MsgType
	if msgType == "" {
		msgType = MsgTypeText
	}

	return domain.BridgeEvent{
		EventID:           req.EventID,
		UserID:            req.UserID,
		RoomID:            req.RoomID,
		RoomName:          req.RoomName,
		Service:           domain.Service(strings.ToLower(req.Service)),
		Sender:            req.Sender,
		SenderDisplayName: req.SenderDisplayName,
		IsOwn:             req.IsOwn,
		MsgType:           msgType,
		Body:              req.Body,
		FormattedBody:     req.FormattedBody,
		Timestamp:         time.UnixMilli(req.TimestampMS).UTC(),
		MemberCount:       req.MemberCount,
		MentionsUser:      req.MentionsUser,
		IsManagementRoom:  req.IsManagementRoom,
	}
}

func (h *Handler) handleReceipt(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if !h.decode(w, r, &req) {
		return
	}

	if req.UserID == 0 || req.RoomID == "" || req.TimestampMS <= 0 {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: user_id, room_id and timestamp_ms are required", apperrors.ErrInvalidInput))
		return
	}

	receipt := domain.ReadReceipt{EventID: req.EventID, Timestamp: time.UnixMilli(req.TimestampMS).UTC()}

	if err := h.store.UpsertReadReceipt(r.Context(), req.UserID, req.RoomID, receipt); err != nil {
		h.logger.Error().Err(err).Str("room_id", req.RoomID).Msg("failed to store read receipt")
		h.writeError(w, http.StatusInternalServerError, err)

		return
	}

	observability.EventsIngested.WithLabelValues(unknownService, kindReceipt).Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRoom(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if !h.decode(w, r, &req) {
		return
	}

	if req.UserID == 0 || req.RoomID == "" {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: user_id and room_id are required", apperrors.ErrInvalidInput))
		return
	}

	service := domain.Service(strings.ToLower(req.Service))
	if service == "" {
		inferred, ok := InferService(req.DisplayName, "")
		if !ok {
			h.writeError(w, http.StatusUnprocessableEntity, apperrors.ErrUnknownService)
			return
		}

		service = inferred
	}

	room := domain.BridgeRoom{
		UserID:       req.UserID,
		RoomID:       req.RoomID,
		DisplayName:  req.DisplayName,
		Service:      service,
		Muted:        req.Muted,
		LastActivity: h.now().UTC(),
	}

	if req.LastActivity > 0 {
		room.LastActivity = time.UnixMilli(req.LastActivity).UTC()
	}

	if err := h.store.UpsertRoom(r.Context(), room); err != nil {
		h.logger.Error().Err(err).Str("room_id", req.RoomID).Msg("failed to store room")
		h.writeError(w, http.StatusInternalServerError, err)

		return
	}

	observability.EventsIngested.WithLabelValues(string(service), kindRoom).Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleEmail(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !h.decode(w, r, &req) {
		return
	}

	if req.UserID == 0 || req.MessageID == "" {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: user_id and message_id are required", apperrors.ErrInvalidInput))
		return
	}

	email := domain.Email{
		UserID:    req.UserID,
		MessageID: req.MessageID,
		From:      req.From,
		Subject:   req.Subject,
		Snippet:   textutil.HTMLToText(req.Snippet),
	}

	if req.Date != "" {
		date, err := dateparse.ParseAny(req.Date)
		if err != nil {
			h.logger.Warn().Err(err).Str("date", req.Date).Msg("unparseable email date")
		} else {
			email.Date = date.UTC()
		}
	}

	if err := h.store.SaveEmail(r.Context(), email); err != nil {
		h.logger.Error().Err(err).Str("message_id", req.MessageID).Msg("failed to store email")
		h.writeError(w, http.StatusInternalServerError, err)

		return
	}

	observability.EventsIngested.WithLabelValues(string(domain.ServiceEmail), kindEmail).Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.token != "" {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
				h.writeError(w, http.StatusUnauthorized, apperrors.ErrUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(w, http.StatusRequestEntityTooLarge, err)
			return false
		}

		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err))

		return false
	}

	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Debug().Err(err).Msg("failed to write response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func serviceLabel(s domain.Service) string {
	if s == "" {
		return unknownService
	}

	return string(s)
}

// Package calendar reads upcoming events from the user's Google Calendar.
package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	apperrors "github.com/lueurxax/proactive-notifier/internal/core/errors"
	db "github.com/lueurxax/proactive-notifier/internal/storage"
)

const (
	primaryCalendar = "primary"
	orderByStart    = "startTime"
	allDayLayout    = "2006-01-02"
	maxResults      = 50
)

// TokenStore loads and persists OAuth tokens.
type TokenStore interface {
	HasActiveCalendar(ctx context.Context, userID int64) (bool, error)
	GetCalendarToken(ctx context.Context, userID int64) (*db.CalendarToken, error)
	SaveCalendarToken(ctx context.Context, t db.CalendarToken) error
}

// Config holds the OAuth client. Endpoint overrides the API base URL.
type Config struct {
	ClientID     string
	ClientSecret string
	Endpoint     string
}

// GoogleProvider implements ports.CalendarProvider over the Calendar API.
type GoogleProvider struct {
	tokens TokenStore
	oauth  *oauth2.Config
	cfg    Config
	logger *zerolog.Logger
}

// NewGoogleProvider creates a provider.
func NewGoogleProvider(tokens TokenStore, cfg Config, logger *zerolog.Logger) *GoogleProvider {
	return &GoogleProvider{
		tokens: tokens,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{gcal.CalendarReadonlyScope},
		},
		cfg:    cfg,
		logger: logger,
	}
}

// HasActiveCalendar reports whether the user connected a calendar.
func (p *GoogleProvider) HasActiveCalendar(ctx context.Context, userID int64) (bool, error) {
	return p.tokens.HasActiveCalendar(ctx, userID)
}

// FetchEvents lists single events starting in [start, end] on the primary calendar.
func (p *GoogleProvider) FetchEvents(ctx context.Context, userID int64, start, end time.Time) ([]domain.CalendarEvent, error) {
	stored, err := p.tokens.GetCalendarToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load calendar token: %w", err)
	}

	ts := &persistingSource{
		base: p.oauth.TokenSource(ctx, &oauth2.Token{
			AccessToken:  stored.AccessToken,
			RefreshToken: stored.RefreshToken,
			TokenType:    stored.TokenType,
			Expiry:       stored.Expiry,
		}),
		last:   stored.AccessToken,
		userID: userID,
		store:  p.tokens,
		ctx:    ctx,
		logger: p.logger,
	}

	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, ts))}
	if p.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.cfg.Endpoint))
	}

	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	resp, err := svc.Events.List(primaryCalendar).
		TimeMin(start.UTC().Format(time.RFC3339)).
		TimeMax(end.UTC().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy(orderByStart).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}

	return ToCalendarEvents(resp.Items), nil
}

// ToCalendarEvents maps API events, dropping untitled or undated ones.
func ToCalendarEvents(items []*gcal.Event) []domain.CalendarEvent {
	out := make([]domain.CalendarEvent, 0, len(items))

	for _, item := range items {
		if item == nil || item.Summary == "" {
			continue
		}

		start, err := eventTime(item.Start)
		if err != nil {
			continue
		}

		minutes := 0
		if end, err := eventTime(item.End); err == nil && end.After(start) {
			minutes = int(end.Sub(start).Minutes())
		}

		out = append(out, domain.CalendarEvent{
			Title:           item.Summary,
			StartTime:       start.Format(time.RFC3339),
			DurationMinutes: minutes,
		})
	}

	return out
}

func eventTime(t *gcal.EventDateTime) (time.Time, error) {
	if t == nil {
		return time.Time{}, apperrors.ErrInvalidInput
	}

	if t.DateTime != "" {
		return time.Parse(time.RFC3339, t.DateTime)
	}

	if t.Date != "" {
		return time.Parse(allDayLayout, t.Date)
	}

	return time.Time{}, apperrors.ErrInvalidInput
}

// persistingSource saves refreshed tokens back to the store.
type persistingSource struct {
	mu     sync.Mutex
	base   oauth2.TokenSource
	last   string
	userID int64
	store  TokenStore
	ctx    context.Context
	logger *zerolog.Logger
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh calendar token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tok.AccessToken == s.last {
		return tok, nil
	}

	s.last = tok.AccessToken

	err = s.store.SaveCalendarToken(s.ctx, db.CalendarToken{
		UserID:       s.userID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	})
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", s.userID).Msg("failed to persist refreshed calendar token")
	}

	return tok, nil
}

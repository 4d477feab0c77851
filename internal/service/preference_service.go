package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
)

var ErrClientIDRequired = errors.New("client id is required")

// PreferenceStore persists client preferences.
type PreferenceStore interface {
	GetExamMode(ctx context.Context, clientID string) (bool, error)
	SetExamMode(ctx context.Context, clientID string, enabled bool) error
}

// PreferenceService reads and writes the exam mode preference of anonymous clients.
type PreferenceService struct {
	store PreferenceStore
	log   zerolog.Logger
}

// NewPreferenceService creates a new PreferenceService.
func NewPreferenceService(store PreferenceStore, log zerolog.Logger) *PreferenceService {
	return &PreferenceService{
		store: store,
		log:   log.With().Str("component", "preference_service").Logger(),
	}
}

// ExamMode returns the client's exam mode. Lookup failures fall back to enabled.
func (s *PreferenceService) ExamMode(ctx context.Context, clientID string) bool {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return true
	}
	enabled, err := s.store.GetExamMode(ctx, clientID)
	if err != nil {
		s.log.Warn().Err(err).Str("client_id", clientID).Msg("Failed to read exam mode, using default")
		return true
	}
	return enabled
}

// SetExamMode stores the client's exam mode.
func (s *PreferenceService) SetExamMode(ctx context.Context, clientID string, enabled bool) error {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return ErrClientIDRequired
	}
	return s.store.SetExamMode(ctx, clientID, enabled)
}

// ForClient binds the service to one client for a session host.
func (s *PreferenceService) ForClient(clientID string) *ClientPreferences {
	return &ClientPreferences{svc: s, clientID: clientID}
}

// ClientPreferences is a PreferenceService bound to one client.
type ClientPreferences struct {
	svc      *PreferenceService
	clientID string
}

// SetExamMode stores the bound client's exam mode.
func (p *ClientPreferences) SetExamMode(ctx context.Context, enabled bool) error {
	return p.svc.SetExamMode(ctx, p.clientID, enabled)
}

package service

import (
	"context"
	"regexp"

	"github.com/tims-exe/secure-chat/internal/idgen"
	"github.com/tims-exe/secure-chat/internal/repo"
)

// botAgentPattern matches link-preview crawlers and similar automated
// clients. They are let through without a token so a pasted room link
// does not burn one of the two admission slots on a preview fetch.
var botAgentPattern = regexp.MustCompile(`(?i)(facebook|whatsapp|discord|twitter|linkedin|telegram|bot|crawler|spider|preview)`)

// AdmitDecision is the outcome of an admission attempt.
type AdmitDecision int

const (
	// AdmitPassThrough lets the request through without touching the
	// token set (automated preview clients).
	AdmitPassThrough AdmitDecision = iota
	// AdmitReadmitted means the presented token already holds a slot.
	AdmitReadmitted
	// AdmitNewToken means a fresh token was minted and bound to a slot.
	AdmitNewToken
)

// AdmissionService gates entry to a room: it enforces the two-participant
// cap and binds each participant to an opaque session token. The capacity
// check and token insertion run as one atomic store operation, so two
// simultaneous strangers cannot both take the last slot.
type AdmissionService struct {
	repo repo.RoomRepo
}

func NewAdmissionService(r repo.RoomRepo) *AdmissionService {
	return &AdmissionService{repo: r}
}

// IsBot reports whether the declared client-agent string looks like an
// automated preview/crawler client.
func (s *AdmissionService) IsBot(userAgent string) bool {
	return botAgentPattern.MatchString(userAgent)
}

// Admit runs the admission sequence for a room-entry request. presented is
// the token the client already carries, or empty. On AdmitNewToken the
// returned token must be handed to the client as its session credential.
func (s *AdmissionService) Admit(ctx context.Context, roomID, presented, userAgent string) (AdmitDecision, string, error) {
	exists, err := s.repo.RoomExists(ctx, roomID)
	if err != nil {
		return 0, "", err
	}
	if !exists {
		return 0, "", ErrRoomNotFound
	}

	if s.IsBot(userAgent) {
		return AdmitPassThrough, "", nil
	}

	if presented != "" {
		member, err := s.repo.HasToken(ctx, roomID, presented)
		if err != nil {
			return 0, "", err
		}
		if member {
			return AdmitReadmitted, presented, nil
		}
	}

	token := idgen.NewToken()
	res, err := s.repo.AdmitToken(ctx, roomID, token)
	if err != nil {
		return 0, "", err
	}
	switch res {
	case repo.AdmitOK:
		return AdmitNewToken, token, nil
	case repo.AdmitRoomFull:
		return 0, "", ErrRoomFull
	default:
		return 0, "", ErrRoomNotFound
	}
}

// Authenticate checks that token holds one of the room's slots. Tokens
// die with the room: once the records expire or are destroyed, every
// previously-issued token is invalid. Returns ErrRoomNotFound or
// ErrInvalidSession on failure.
func (s *AdmissionService) Authenticate(ctx context.Context, roomID, token string) error {
	exists, err := s.repo.RoomExists(ctx, roomID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrRoomNotFound
	}
	if token == "" {
		return ErrInvalidSession
	}
	member, err := s.repo.HasToken(ctx, roomID, token)
	if err != nil {
		return err
	}
	if !member {
		return ErrInvalidSession
	}
	return nil
}

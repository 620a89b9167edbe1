package services

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-community-store/internal/domain"
	"github.com/tbourn/go-community-store/internal/repo"
)

// ModerationService keeps moderation records: warnings, the names members
// have used, and channels restricted to bot commands.
type ModerationService struct {
	DB  *gorm.DB
	Now func() time.Time
}

// NewModerationService constructs a ModerationService.
func NewModerationService(db *gorm.DB) *ModerationService {
	return &ModerationService{DB: db, Now: time.Now}
}

func (s *ModerationService) now() domain.Timestamp {
	if s.Now == nil {
		return domain.Now()
	}
	return domain.NewTimestamp(s.Now())
}

// ---- Warnings ----

// Warn records a warning for userID. An empty reason is stored as NULL.
func (s *ModerationService) Warn(ctx context.Context, userID, reason string) (*domain.MemberWarning, error) {
	tr := otel.Tracer("services/ModerationService")
	ctx, span := tr.Start(ctx, "Warn", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrEmptyID
	}
	w := &domain.MemberWarning{UserID: userID, Timestamp: s.now()}
	if r := strings.TrimSpace(reason); r != "" {
		w.Reason = &r
	}
	if err := repo.CreateWarning(ctx, s.DB, w); err != nil {
		return nil, err
	}
	return w, nil
}

// RemoveWarning deletes one warning.
func (s *ModerationService) RemoveWarning(ctx context.Context, id int64) error {
	if err := repo.DeleteWarning(ctx, s.DB, id); err != nil {
		if isNotFound(err) {
			return ErrWarningNotFound
		}
		return err
	}
	return nil
}

// RemoveAllWarnings deletes every warning of userID and returns the count.
func (s *ModerationService) RemoveAllWarnings(ctx context.Context, userID string) (int64, error) {
	return repo.DeleteWarningsForUser(ctx, s.DB, userID)
}

// Warnings lists the warnings of userID, oldest first.
func (s *ModerationService) Warnings(ctx context.Context, userID string) ([]domain.MemberWarning, error) {
	return repo.ListWarnings(ctx, s.DB, userID)
}

// WarningOwner returns the member a warning was issued to.
func (s *ModerationService) WarningOwner(ctx context.Context, id int64) (string, error) {
	w, err := repo.GetWarning(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return "", ErrWarningNotFound
		}
		return "", err
	}
	return w.UserID, nil
}

// ---- Name history ----

// RecordName stores that userID used name until now.
func (s *ModerationService) RecordName(ctx context.Context, userID, name string) (*domain.MemberNameHistory, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrEmptyID
	}
	h := &domain.MemberNameHistory{UserID: userID, Name: name, Timestamp: s.now()}
	if err := repo.CreateNameHistory(ctx, s.DB, h); err != nil {
		if isDuplicate(err) {
			return nil, ErrNameAlreadyRecorded
		}
		return nil, err
	}
	return h, nil
}

// Names lists the names userID has used, oldest first.
func (s *ModerationService) Names(ctx context.Context, userID string) ([]domain.MemberNameHistory, error) {
	return repo.ListNameHistory(ctx, s.DB, userID)
}

// ---- Bot-only channels ----

// ActivateBotOnly restricts a channel to bot commands and reports whether it
// was newly restricted.
func (s *ModerationService) ActivateBotOnly(ctx context.Context, channelID string) (bool, error) {
	return addMember(ctx, s.DB, repo.BotOnlyChannels, channelID)
}

// DeactivateBotOnly lifts the restriction and reports whether it was set.
func (s *ModerationService) DeactivateBotOnly(ctx context.Context, channelID string) (bool, error) {
	return repo.BotOnlyChannels.Remove(ctx, s.DB, channelID)
}

// IsBotOnly reports whether a channel is restricted to bot commands.
func (s *ModerationService) IsBotOnly(ctx context.Context, channelID string) (bool, error) {
	return repo.BotOnlyChannels.Contains(ctx, s.DB, channelID)
}

// BotOnlyChannels lists the restricted channels.
func (s *ModerationService) BotOnlyChannels(ctx context.Context) ([]string, error) {
	return repo.BotOnlyChannels.List(ctx, s.DB)
}

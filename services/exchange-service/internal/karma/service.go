package karma

import (
	"context"
	"log/slog"
)

// PlateauCrossing reports that an award pushed an actor's total over a
// plateau boundary.
type PlateauCrossing struct {
	ActorGUID     string
	UserID        string
	QualifiedName string
	Public        bool
	Plateau       int64
	TotalPoints   int64
}

type Service struct {
	store     Store
	increment int64
	threshold int64
	logger    *slog.Logger
}

// NewService configures awarding. increment <= 0 disables awards entirely;
// threshold <= 0 disables plateau announcements while still counting points.
func NewService(store Store, increment, threshold int64, logger *slog.Logger) *Service {
	return &Service{store: store, increment: increment, threshold: threshold, logger: logger}
}

// AwardForChange credits the contributing user for one metadata change and
// returns a non-nil crossing when the award moved the actor onto a new
// plateau. Users without an actor profile are skipped silently.
func (s *Service) AwardForChange(ctx context.Context, userID string) (*PlateauCrossing, error) {
	if s.increment <= 0 || userID == "" {
		return nil, nil
	}

	profile, err := s.store.ProfileForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, nil
	}

	newTotal, err := s.store.AddPoints(ctx, profile.GUID, s.increment)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("karma awarded", "user_id", userID, "points", s.increment, "total", newTotal)

	if s.threshold <= 0 {
		return nil, nil
	}

	// The before-value is derived from the atomic result rather than the
	// earlier profile read, so concurrent awards each see a consistent
	// before/after pair.
	oldTotal := newTotal - s.increment
	newPlateau := newTotal / s.threshold
	if newPlateau <= oldTotal/s.threshold {
		return nil, nil
	}
	return &PlateauCrossing{
		ActorGUID:     profile.GUID,
		UserID:        profile.UserID,
		QualifiedName: profile.QualifiedName,
		Public:        profile.Public,
		Plateau:       newPlateau,
		TotalPoints:   newTotal,
	}, nil
}

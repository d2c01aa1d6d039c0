// Package karma keeps the contribution ledger: every metadata change credits
// its author with points, and crossing a configured plateau is announced to
// the community.
package karma

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/metabridge-io/metabridge/libs/db"
)

// ActorProfile is the ledger's view of a contributing user.
type ActorProfile struct {
	GUID          string
	UserID        string
	QualifiedName string
	KarmaPoints   int64
	// Public controls whether plateau announcements may name the actor.
	Public bool
}

// Store is the ledger persistence contract. AddPoints must apply the
// increment atomically and return the resulting total; concurrent awards for
// the same actor are serialized at this boundary, not by the caller.
type Store interface {
	ProfileForUser(ctx context.Context, userID string) (*ActorProfile, error)
	AddPoints(ctx context.Context, actorGUID string, points int64) (int64, error)
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) ProfileForUser(ctx context.Context, userID string) (*ActorProfile, error) {
	var p ActorProfile
	err := r.pool.QueryRow(ctx, `
		SELECT guid::text, user_id, qualified_name, karma_points, karma_is_public
		FROM actor_profiles
		WHERE user_id = $1
	`, userID).Scan(&p.GUID, &p.UserID, &p.QualifiedName, &p.KarmaPoints, &p.Public)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) AddPoints(ctx context.Context, actorGUID string, points int64) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `
		UPDATE actor_profiles
		SET karma_points = karma_points + $2,
			updated_at = now()
		WHERE guid = $1
		RETURNING karma_points
	`, actorGUID, points).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

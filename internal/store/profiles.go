package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"mediadesk.io/courier/internal/domain"
)

var profileColumns = []string{"id", "email", "full_name", "phone", "locale", "project_updates", "downloads", "updated_at"}

// ProfileStore reads and writes client profiles.
type ProfileStore struct {
	db DBTX
}

// NewProfileStore creates a ProfileStore.
func NewProfileStore(db DBTX) *ProfileStore {
	return &ProfileStore{db: db}
}

// GetUserProfile loads a profile by id.
func (s *ProfileStore) GetUserProfile(ctx context.Context, id string) (*domain.UserProfile, error) {
	query, args := pg().
		Select(profileColumns...).
		From(entsql.Table(tableProfiles)).
		Where(entsql.EQ("id", id)).
		Query()

	p, err := scanProfile(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", id, notFound(err))
	}
	return p, nil
}

// UpsertProfile creates or replaces a profile.
func (s *ProfileStore) UpsertProfile(ctx context.Context, p *domain.UserProfile) error {
	p.UpdatedAt = time.Now().UTC()
	query, args := pg().
		Insert(tableProfiles).
		Columns(profileColumns...).
		Values(p.ID, p.Email, p.FullName, nullable(p.Phone), nullable(p.Locale), p.ProjectUpdates, p.Downloads, p.UpdatedAt).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert profile %s: %w", p.ID, err)
	}
	return nil
}

// UpdatePreferences sets the given opt-out flags; a nil flag keeps its
// stored value. With both nil it returns the current profile.
func (s *ProfileStore) UpdatePreferences(ctx context.Context, id string, projectUpdates, downloads *bool) (*domain.UserProfile, error) {
	if projectUpdates == nil && downloads == nil {
		return s.GetUserProfile(ctx, id)
	}

	update := pg().Update(tableProfiles)
	if projectUpdates != nil {
		update.Set("project_updates", *projectUpdates)
	}
	if downloads != nil {
		update.Set("downloads", *downloads)
	}
	query, args := update.
		Set("updated_at", time.Now().UTC()).
		Where(entsql.EQ("id", id)).
		Query()

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update preferences %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("update preferences %s: %w", id, ErrNotFound)
	}
	return s.GetUserProfile(ctx, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*domain.UserProfile, error) {
	var (
		p             domain.UserProfile
		phone, locale *string
	)
	if err := row.Scan(&p.ID, &p.Email, &p.FullName, &phone, &locale, &p.ProjectUpdates, &p.Downloads, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if phone != nil {
		p.Phone = *phone
	}
	if locale != nil {
		p.Locale = *locale
	}
	return &p, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

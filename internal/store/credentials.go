package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type credentialRepo struct {
	db *sql.DB
}

func (r *credentialRepo) Load(ctx context.Context) (*Credentials, error) {
	query, args := builder().
		Select("access_token", "refresh_token", "user_id", "user_name", "user_email", "roles", "updated_at").
		From(entsql.Table("credentials")).
		Where(entsql.EQ("id", 1)).
		Query()

	var (
		c       Credentials
		roles   string
		updated int64
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&c.AccessToken, &c.RefreshToken, &c.UserID, &c.UserName, &c.UserEmail, &roles, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	if err := json.Unmarshal([]byte(roles), &c.Roles); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}
	c.UpdatedAt = time.UnixMilli(updated)
	return &c, nil
}

func (r *credentialRepo) Save(ctx context.Context, c Credentials) error {
	roles := c.Roles
	if roles == nil {
		roles = []string{}
	}
	rolesJSON, err := json.Marshal(roles)
	if err != nil {
		return fmt.Errorf("encode roles: %w", err)
	}

	query, args := builder().
		Insert("credentials").
		Columns("id", "access_token", "refresh_token", "user_id", "user_name", "user_email", "roles", "updated_at").
		Values(1, c.AccessToken, c.RefreshToken, c.UserID, c.UserName, c.UserEmail, string(rolesJSON), time.Now().UnixMilli()).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

func (r *credentialRepo) UpdateTokens(ctx context.Context, access, refresh string) error {
	query, args := builder().
		Update("credentials").
		Set("access_token", access).
		Set("refresh_token", refresh).
		Set("updated_at", time.Now().UnixMilli()).
		Where(entsql.EQ("id", 1)).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update tokens: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New("update tokens: not signed in")
	}
	return nil
}

func (r *credentialRepo) Clear(ctx context.Context) error {
	query, args := builder().Delete("credentials").Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

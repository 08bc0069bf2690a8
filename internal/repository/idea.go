package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/shadoom/entitlement-server-go/internal/model"
)

type IdeaRepository interface {
	FindByID(ctx context.Context, id string) (*model.Idea, error)
	FindByAccountID(ctx context.Context, accountID string, limit int) ([]model.Idea, error)
	Create(ctx context.Context, params model.CreateIdeaParams) (*model.Idea, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type ideaRepo struct {
	db sqlxDB
}

func NewIdeaRepository(db *sqlx.DB) IdeaRepository {
	return &ideaRepo{db: db}
}

func (r *ideaRepo) FindByID(ctx context.Context, id string) (*model.Idea, error) {
	var idea model.Idea
	err := r.db.GetContext(ctx, &idea, `
		SELECT * FROM ideas WHERE id = $1
	`, id)
	return HandleNotFound(&idea, err)
}

func (r *ideaRepo) FindByAccountID(ctx context.Context, accountID string, limit int) ([]model.Idea, error) {
	var ideas []model.Idea
	err := r.db.SelectContext(ctx, &ideas, `
		SELECT * FROM ideas
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	return ideas, nil
}

func (r *ideaRepo) Create(ctx context.Context, params model.CreateIdeaParams) (*model.Idea, error) {
	var idea model.Idea
	err := r.db.GetContext(ctx, &idea, `
		INSERT INTO ideas (account_id, topic, content_type, title, script, hashtags)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, params.AccountID, params.Topic, params.ContentType, params.Title,
		params.Script, pq.Array(params.Hashtags))
	if err != nil {
		return nil, err
	}
	return &idea, nil
}

func (r *ideaRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM ideas WHERE id = $1`, id)
	return err
}

func (r *ideaRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM ideas`)
	return count, err
}

package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"complaint-chat/internal/domain"
)

type FAQRepository interface {
	ListCategories(ctx context.Context) ([]domain.FAQCategory, error)
	ListByCategory(ctx context.Context, categoryID string) ([]domain.FAQ, error)
	Search(ctx context.Context, query string, limit int) ([]domain.FAQ, error)
}

type PgFAQRepository struct {
	pool *pgxpool.Pool
}

func NewPgFAQRepository(pool *pgxpool.Pool) *PgFAQRepository {
	return &PgFAQRepository{pool: pool}
}

func (r *PgFAQRepository) ListCategories(ctx context.Context) ([]domain.FAQCategory, error) {
	const query = `
		SELECT c.id, c.name, COALESCE(c.description, ''), COUNT(f.id)
		FROM faq_categories c
		LEFT JOIN faqs f ON f.category_id = c.id
		GROUP BY c.id, c.name, c.description
		ORDER BY c.name ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []domain.FAQCategory{}
	for rows.Next() {
		var c domain.FAQCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Count); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *PgFAQRepository) ListByCategory(ctx context.Context, categoryID string) ([]domain.FAQ, error) {
	const query = `
		SELECT id, category_id, question, answer, keywords
		FROM faqs
		WHERE category_id = $1
		ORDER BY position ASC, question ASC
	`
	rows, err := r.pool.Query(ctx, query, categoryID)
	if err != nil {
		return nil, err
	}
	return collectFAQs(rows)
}

// Search busca por pregunta, respuesta o palabras clave (ILIKE).
func (r *PgFAQRepository) Search(ctx context.Context, query string, limit int) ([]domain.FAQ, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.FAQ{}, nil
	}
	if limit <= 0 {
		limit = 5
	}
	const sql = `
		SELECT id, category_id, question, answer, keywords
		FROM faqs
		WHERE question ILIKE $1
		   OR answer ILIKE $1
		   OR EXISTS (SELECT 1 FROM unnest(keywords) k WHERE $2 ILIKE '%' || k || '%')
		ORDER BY position ASC
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, sql, "%"+query+"%", query, limit)
	if err != nil {
		return nil, err
	}
	return collectFAQs(rows)
}

func collectFAQs(rows pgx.Rows) ([]domain.FAQ, error) {
	defer rows.Close()

	faqs := []domain.FAQ{}
	for rows.Next() {
		var f domain.FAQ
		if err := rows.Scan(&f.ID, &f.CategoryID, &f.Question, &f.Answer, &f.Keywords); err != nil {
			return nil, err
		}
		faqs = append(faqs, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return faqs, nil
}

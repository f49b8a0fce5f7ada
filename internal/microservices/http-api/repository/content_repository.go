package repository

import (
	"context"
	"fmt"
	"strings"

	"afriotv/internal/changefeed"
	"afriotv/internal/docpath"
	"afriotv/internal/microservices/http-api/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ContentFilter narrows a catalog listing. Zero values do not filter.
type ContentFilter struct {
	Type     string
	Genre    string
	Trending bool
	Limit    int
}

type ContentRepository interface {
	List(ctx context.Context, f ContentFilter) ([]models.Content, error)
	GetByID(ctx context.Context, id string) (*models.Content, error)
	Create(ctx context.Context, c *models.Content) error
	Search(ctx context.Context, query string, limit int) ([]models.Content, error)
	Related(ctx context.Context, c *models.Content, limit int) ([]models.Content, error)
}

type contentRepository struct {
	db   *gorm.DB
	feed changefeed.Feed
}

func NewContentRepository(db *gorm.DB, feed changefeed.Feed) ContentRepository {
	return &contentRepository{db: db, feed: feed}
}

// List returns the catalog newest first.
func (r *contentRepository) List(ctx context.Context, f ContentFilter) ([]models.Content, error) {
	var list []models.Content
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Genre != "" {
		q = q.Where("EXISTS (SELECT 1 FROM unnest(genres) g WHERE lower(g) = lower(?))", f.Genre)
	}
	if f.Trending {
		q = q.Where("is_trending = ?", true)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	return list, nil
}

func (r *contentRepository) GetByID(ctx context.Context, id string) (*models.Content, error) {
	var c models.Content
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contentRepository) Create(ctx context.Context, c *models.Content) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create content: %w", err)
	}
	publish(ctx, r.feed, docpath.Content(), docpath.ContentDoc(c.ID))
	return nil
}

// Search performs a case-insensitive substring match on title, description,
// genres and cast.
func (r *contentRepository) Search(ctx context.Context, query string, limit int) ([]models.Content, error) {
	var list []models.Content
	query = strings.TrimSpace(query)
	if query == "" {
		return list, nil
	}

	p := "%" + escapeLike(query) + "%"
	q := r.db.WithContext(ctx).
		Where("title ILIKE ? OR description ILIKE ? OR array_to_string(genres, ' ') ILIKE ? OR array_to_string(cast_members, ' ') ILIKE ?", p, p, p, p).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("search content: %w", err)
	}
	return list, nil
}

// Related returns items sharing at least one genre with c, excluding c.
func (r *contentRepository) Related(ctx context.Context, c *models.Content, limit int) ([]models.Content, error) {
	var list []models.Content
	if len(c.Genres) == 0 {
		return list, nil
	}
	q := r.db.WithContext(ctx).
		Where("id <> ? AND genres && CAST(? AS text[])", c.ID, pq.StringArray(c.Genres)).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("related content: %w", err)
	}
	return list, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

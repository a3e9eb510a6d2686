package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/calpoly-csai/nimbus-transformer/internal/fetch"
)

// GetPageByURL retrieves a cached page by URL
func (db *DB) GetPageByURL(ctx context.Context, pageURL string) (*Page, error) {
	var p Page
	err := db.pool.QueryRow(ctx,
		`SELECT id, url, html, text, content_type, content_hash, http_status,
		        fetched_at, created_at, updated_at
		 FROM pages WHERE url = $1`,
		pageURL,
	).Scan(&p.ID, &p.URL, &p.HTML, &p.Text, &p.ContentType, &p.ContentHash, &p.HTTPStatus,
		&p.FetchedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	return &p, nil
}

// UpsertPage inserts or refreshes a cached page
func (db *DB) UpsertPage(ctx context.Context, page *Page) error {
	var contentHash *string
	if page.Text != "" {
		hash := HashContent(page.Text)
		contentHash = &hash
	}

	err := db.pool.QueryRow(ctx,
		`INSERT INTO pages (url, html, text, content_type, content_hash, http_status, fetched_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())
		 ON CONFLICT (url) DO UPDATE SET
		     html = $2,
		     text = $3,
		     content_type = $4,
		     content_hash = $5,
		     http_status = $6,
		     fetched_at = NOW(),
		     updated_at = NOW()
		 RETURNING id, fetched_at, created_at, updated_at`,
		page.URL, page.HTML, page.Text, page.ContentType, contentHash, page.HTTPStatus,
	).Scan(&page.ID, &page.FetchedAt, &page.CreatedAt, &page.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert page: %w", err)
	}
	page.ContentHash = contentHash
	return nil
}

// DeleteExpiredPages removes pages fetched more than maxAge ago
func (db *DB) DeleteExpiredPages(ctx context.Context, maxAge time.Duration) (int64, error) {
	result, err := db.pool.Exec(ctx,
		`DELETE FROM pages WHERE fetched_at < $1`,
		time.Now().Add(-maxAge),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired pages: %w", err)
	}
	return result.RowsAffected(), nil
}

// PageStore adapts DB to fetch.PageStore.
type PageStore struct {
	db *DB
}

// Pages returns the page cache view of db.
func (db *DB) Pages() *PageStore {
	return &PageStore{db: db}
}

var _ fetch.PageStore = (*PageStore)(nil)

// GetFreshPage returns the cached page for url if it was fetched within ttl.
func (s *PageStore) GetFreshPage(ctx context.Context, url string, ttl time.Duration) (*fetch.Result, error) {
	page, err := s.db.GetPageByURL(ctx, url)
	if err != nil || page == nil {
		return nil, err
	}
	if !page.IsFresh(ttl) {
		return nil, nil
	}
	return pageToResult(page), nil
}

// SavePage stores a fetch result.
func (s *PageStore) SavePage(ctx context.Context, result *fetch.Result) error {
	return s.db.UpsertPage(ctx, resultToPage(result))
}

func pageToResult(p *Page) *fetch.Result {
	return &fetch.Result{
		URL:         p.URL,
		HTML:        derefString(p.HTML),
		Text:        p.Text,
		ContentType: derefString(p.ContentType),
		StatusCode:  p.HTTPStatus,
		FetchedAt:   p.FetchedAt,
	}
}

func resultToPage(r *fetch.Result) *Page {
	return &Page{
		URL:         r.URL,
		HTML:        stringPtr(r.HTML),
		Text:        r.Text,
		ContentType: stringPtr(r.ContentType),
		HTTPStatus:  r.StatusCode,
	}
}

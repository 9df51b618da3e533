// Package sqlite provides a SQLite-backed distribution storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/takehome/internal/id"
	sqlitemigrate "github.com/louisbranch/takehome/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/takehome/internal/services/distribution/domain"
	"github.com/louisbranch/takehome/internal/services/distribution/storage"
	"github.com/louisbranch/takehome/internal/services/distribution/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists distribution state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite distribution store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// InsertCandidate stores a new candidate row.
func (s *Store) InsertCandidate(ctx context.Context, candidate domain.Candidate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(candidate.ID) == "" {
		return fmt.Errorf("candidate id is required")
	}
	if strings.TrimSpace(candidate.Token) == "" {
		return fmt.Errorf("candidate token is required")
	}

	var downloadedAt any
	if !candidate.DownloadedAt.IsZero() {
		downloadedAt = toMillis(candidate.DownloadedAt)
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO candidates (id, email, token, status, created_at, downloaded_at, download_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		candidate.ID,
		candidate.Email,
		candidate.Token,
		candidate.Status.String(),
		toMillis(candidate.CreatedAt),
		downloadedAt,
		candidate.DownloadCount,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert candidate %s: %w", candidate.ID, storage.ErrDuplicate)
		}
		return fmt.Errorf("insert candidate %s: %w", candidate.ID, err)
	}
	return nil
}

// GetCandidateByToken returns the candidate holding the given download token.
func (s *Store) GetCandidateByToken(ctx context.Context, token string) (domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return domain.Candidate{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Candidate{}, fmt.Errorf("storage is not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Candidate{}, storage.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, email, token, status, created_at, downloaded_at, download_count
		 FROM candidates
		 WHERE token = ?`,
		token,
	)
	return scanCandidate(row)
}

// GetCandidateByID returns one candidate by record identifier.
func (s *Store) GetCandidateByID(ctx context.Context, candidateID string) (domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return domain.Candidate{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Candidate{}, fmt.Errorf("storage is not configured")
	}
	candidateID = strings.TrimSpace(candidateID)
	if candidateID == "" {
		return domain.Candidate{}, storage.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, email, token, status, created_at, downloaded_at, download_count
		 FROM candidates
		 WHERE id = ?`,
		candidateID,
	)
	return scanCandidate(row)
}

// ListCandidates returns all candidates ordered by creation time, newest first.
func (s *Store) ListCandidates(ctx context.Context) ([]domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, email, token, status, created_at, downloaded_at, download_count
		 FROM candidates
		 ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		candidate, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("list candidates: %w", err)
		}
		candidates = append(candidates, candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return candidates, nil
}

// UpdateCandidateDownloadState writes status, downloaded_at and
// download_count for an existing candidate row.
func (s *Store) UpdateCandidateDownloadState(ctx context.Context, candidate domain.Candidate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(candidate.ID) == "" {
		return fmt.Errorf("candidate id is required")
	}

	var downloadedAt any
	if !candidate.DownloadedAt.IsZero() {
		downloadedAt = toMillis(candidate.DownloadedAt)
	}
	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE candidates
		 SET status = ?, downloaded_at = ?, download_count = ?
		 WHERE id = ?`,
		candidate.Status.String(),
		downloadedAt,
		candidate.DownloadCount,
		candidate.ID,
	)
	if err != nil {
		return fmt.Errorf("update candidate %s: %w", candidate.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update candidate %s: %w", candidate.ID, err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// InsertRelease stores a new release row with a store-assigned identifier.
func (s *Store) InsertRelease(ctx context.Context, descriptor domain.ReleaseDescriptor) (domain.Release, error) {
	if err := ctx.Err(); err != nil {
		return domain.Release{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Release{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(descriptor.TagName) == "" {
		return domain.Release{}, fmt.Errorf("release tag name is required")
	}

	releaseID, err := id.NewID()
	if err != nil {
		return domain.Release{}, fmt.Errorf("generate release id: %w", err)
	}

	var zipAssetURL any
	if descriptor.ZipAssetURL != "" {
		zipAssetURL = descriptor.ZipAssetURL
	}
	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO releases (id, tag_name, name, download_url, zip_asset_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		releaseID,
		descriptor.TagName,
		descriptor.Name,
		descriptor.DownloadURL,
		zipAssetURL,
		toMillis(descriptor.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Release{}, fmt.Errorf("insert release %s: %w", descriptor.TagName, storage.ErrDuplicate)
		}
		return domain.Release{}, fmt.Errorf("insert release %s: %w", descriptor.TagName, err)
	}

	return domain.Release{
		ID:          releaseID,
		TagName:     descriptor.TagName,
		Name:        descriptor.Name,
		DownloadURL: descriptor.DownloadURL,
		ZipAssetURL: descriptor.ZipAssetURL,
		CreatedAt:   descriptor.CreatedAt.UTC(),
	}, nil
}

// GetReleaseByTag returns the stored release with the given tag.
func (s *Store) GetReleaseByTag(ctx context.Context, tagName string) (domain.Release, error) {
	if err := ctx.Err(); err != nil {
		return domain.Release{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Release{}, fmt.Errorf("storage is not configured")
	}
	tagName = strings.TrimSpace(tagName)
	if tagName == "" {
		return domain.Release{}, storage.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, tag_name, name, download_url, zip_asset_url, created_at
		 FROM releases
		 WHERE tag_name = ?`,
		tagName,
	)
	return scanRelease(row)
}

// LatestRelease returns the most recently created stored release.
func (s *Store) LatestRelease(ctx context.Context) (domain.Release, error) {
	if err := ctx.Err(); err != nil {
		return domain.Release{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Release{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, tag_name, name, download_url, zip_asset_url, created_at
		 FROM releases
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
	)
	return scanRelease(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (domain.Candidate, error) {
	var candidate domain.Candidate
	var statusText string
	var createdAt int64
	var downloadedAt sql.NullInt64
	err := row.Scan(
		&candidate.ID,
		&candidate.Email,
		&candidate.Token,
		&statusText,
		&createdAt,
		&downloadedAt,
		&candidate.DownloadCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Candidate{}, storage.ErrNotFound
		}
		return domain.Candidate{}, fmt.Errorf("scan candidate: %w", err)
	}
	status, err := domain.ParseStatus(statusText)
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("scan candidate: %w", err)
	}
	candidate.Status = status
	candidate.CreatedAt = fromMillis(createdAt)
	if downloadedAt.Valid {
		candidate.DownloadedAt = fromMillis(downloadedAt.Int64)
	}
	return candidate, nil
}

func scanRelease(row rowScanner) (domain.Release, error) {
	var release domain.Release
	var zipAssetURL sql.NullString
	var createdAt int64
	err := row.Scan(
		&release.ID,
		&release.TagName,
		&release.Name,
		&release.DownloadURL,
		&zipAssetURL,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Release{}, storage.ErrNotFound
		}
		return domain.Release{}, fmt.Errorf("scan release: %w", err)
	}
	if zipAssetURL.Valid {
		release.ZipAssetURL = zipAssetURL.String
	}
	release.CreatedAt = fromMillis(createdAt)
	return release, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ storage.CandidateStore = (*Store)(nil)
var _ storage.ReleaseStore = (*Store)(nil)

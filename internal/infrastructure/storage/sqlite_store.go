// Package storage persists the review and snapshot collections in a
// single-restaurant SQLite file. Every mutating call runs inside one
// transaction, so readers never observe a half-written collection.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"reviewpulse/internal/domain"
	"reviewpulse/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS reviews (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	review_id TEXT NOT NULL,
	author TEXT NOT NULL DEFAULT '',
	rating REAL,
	review_text TEXT NOT NULL DEFAULT '',
	review_date TEXT NOT NULL DEFAULT '',
	helpful_votes INTEGER NOT NULL DEFAULT 0,
	owner_response TEXT NOT NULL DEFAULT '',
	owner_response_date TEXT NOT NULL DEFAULT '',
	verified INTEGER NOT NULL DEFAULT 0,
	language TEXT NOT NULL DEFAULT 'en',
	photos_attached INTEGER NOT NULL DEFAULT 0,
	fetched_at TEXT NOT NULL DEFAULT '',
	restaurant_id TEXT NOT NULL DEFAULT '',
	enrichment TEXT,
	processed_at TEXT NOT NULL DEFAULT '',
	failed_attempts INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_reviews_key ON reviews (source, review_id);

CREATE TABLE IF NOT EXISTS snapshots (
	snapshot_id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	status TEXT NOT NULL,
	restaurant_id TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

var reviewColumns = []string{
	"source", "review_id", "author", "rating", "review_text", "review_date",
	"helpful_votes", "owner_response", "owner_response_date", "verified",
	"language", "photos_attached", "fetched_at", "restaurant_id",
	"enrichment", "processed_at", "failed_attempts",
}

// Open prepares a SQLite handle for the dataset file at path. The design
// assumes a single active writer, so the pool is capped at one connection.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	return db, nil
}

// SQLiteStore implements both the review and snapshot store ports.
type SQLiteStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.ReviewStore = (*SQLiteStore)(nil)
var _ ports.SnapshotStore = (*SQLiteStore)(nil)

// New migrates the schema and wires a store over db.
func New(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &SQLiteStore{db: db, sb: sq.StatementBuilder.PlaceholderFormat(sq.Question)}, nil
}

// SaveReviews persists the batch. Overwrite replaces the whole collection;
// append merges on composite-key collisions, keeping stored enrichment
// when the incoming record carries none.
func (s *SQLiteStore) SaveReviews(ctx context.Context, reviews []domain.Review, mode ports.SaveMode) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if mode == ports.SaveOverwrite {
		if _, err := tx.ExecContext(ctx, "DELETE FROM reviews"); err != nil {
			return fmt.Errorf("clear reviews: %w", err)
		}
	}

	for _, review := range reviews {
		if mode == ports.SaveAppend {
			merged, err := s.mergeExisting(ctx, tx, review)
			if err != nil {
				return err
			}
			if merged {
				continue
			}
		}
		if err := s.insertReview(ctx, tx, review); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// mergeExisting applies the append collision policy. It reports whether
// the incoming review collided with stored rows.
func (s *SQLiteStore) mergeExisting(ctx context.Context, tx *sql.Tx, review domain.Review) (bool, error) {
	query, args, err := s.sb.Select("id", "enrichment", "processed_at", "failed_attempts").
		From("reviews").
		Where(sq.Eq{"source": review.Source, "review_id": review.ReviewID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build collision query: %w", err)
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("query collisions: %w", err)
	}

	type existing struct {
		id             int64
		enrichment     sql.NullString
		processedAt    string
		failedAttempts int
	}
	var found []existing
	for rows.Next() {
		var e existing
		if err := rows.Scan(&e.id, &e.enrichment, &e.processedAt, &e.failedAttempts); err != nil {
			_ = rows.Close()
			return false, fmt.Errorf("scan collision: %w", err)
		}
		found = append(found, e)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return false, fmt.Errorf("iterate collisions: %w", err)
	}
	if err := rows.Close(); err != nil {
		return false, fmt.Errorf("close collision rows: %w", err)
	}

	if len(found) == 0 {
		return false, nil
	}

	for _, e := range found {
		merged := review
		if merged.Enrichment == nil && e.enrichment.Valid {
			// Re-scraped raw record: refresh raw fields, keep the paid-for
			// enrichment already on file.
			enr, err := decodeEnrichment(e.enrichment)
			if err != nil {
				return false, err
			}
			merged.Enrichment = enr
			merged.ProcessedAt = parseTime(e.processedAt)
			merged.FailedAttempts = e.failedAttempts
		}
		if err := s.updateReviewRow(ctx, tx, e.id, merged); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (s *SQLiteStore) insertReview(ctx context.Context, tx *sql.Tx, review domain.Review) error {
	values, err := reviewValues(review)
	if err != nil {
		return err
	}
	query, args, err := s.sb.Insert("reviews").Columns(reviewColumns...).Values(values...).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert review %s: %w", review.Key(), err)
	}
	return nil
}

func (s *SQLiteStore) updateReviewRow(ctx context.Context, tx *sql.Tx, id int64, review domain.Review) error {
	values, err := reviewValues(review)
	if err != nil {
		return err
	}
	update := s.sb.Update("reviews").Where(sq.Eq{"id": id})
	for i, col := range reviewColumns {
		update = update.Set(col, values[i])
	}
	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update review %s: %w", review.Key(), err)
	}
	return nil
}

// AllReviews returns the collection in insertion order.
func (s *SQLiteStore) AllReviews(ctx context.Context) ([]domain.Review, error) {
	return s.queryReviews(ctx, s.selectReviews())
}

// UnprocessedReviews returns reviews without enrichment, insertion order.
// Reviews with failed attempts stay in this set so they are retried.
func (s *SQLiteStore) UnprocessedReviews(ctx context.Context) ([]domain.Review, error) {
	return s.queryReviews(ctx, s.selectReviews().Where("enrichment IS NULL"))
}

// ReviewAt returns the review at position index of the insertion order.
func (s *SQLiteStore) ReviewAt(ctx context.Context, index int) (domain.Review, error) {
	if index < 0 {
		return domain.Review{}, domain.NewNotFoundError("review index", fmt.Sprint(index))
	}
	reviews, err := s.queryReviews(ctx, s.selectReviews().Limit(1).Offset(uint64(index)))
	if err != nil {
		return domain.Review{}, err
	}
	if len(reviews) == 0 {
		return domain.Review{}, domain.NewNotFoundError("review index", fmt.Sprint(index))
	}
	return reviews[0], nil
}

// DeleteReview removes every copy under the composite key.
func (s *SQLiteStore) DeleteReview(ctx context.Context, source domain.Source, reviewID string) error {
	query, args, err := s.sb.Delete("reviews").
		Where(sq.Eq{"source": source, "review_id": reviewID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	if affected == 0 {
		return domain.NewNotFoundError("review", string(source)+"/"+reviewID)
	}
	return nil
}

// UpdateReview rewrites every stored copy of the review in place. Row ids
// are untouched, so insertion order survives enrichment writes.
func (s *SQLiteStore) UpdateReview(ctx context.Context, review domain.Review) error {
	values, err := reviewValues(review)
	if err != nil {
		return err
	}
	update := s.sb.Update("reviews").
		Where(sq.Eq{"source": review.Source, "review_id": review.ReviewID})
	for i, col := range reviewColumns {
		update = update.Set(col, values[i])
	}
	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update review %s: %w", review.Key(), err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update result: %w", err)
	}
	if affected == 0 {
		return domain.NewNotFoundError("review", review.Key())
	}
	return nil
}

// RemoveDuplicates drops extra copies per composite key. The enriched copy
// wins; among equally-enriched copies the first seen is kept. Running it
// twice removes nothing on the second pass.
func (s *SQLiteStore) RemoveDuplicates(ctx context.Context) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin dedup: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, "SELECT id, source, review_id, enrichment IS NOT NULL FROM reviews ORDER BY id")
	if err != nil {
		return 0, fmt.Errorf("query keys: %w", err)
	}

	type candidate struct {
		id       int64
		enriched bool
	}
	keeper := map[string]candidate{}
	var ids []int64
	keyByID := map[int64]string{}

	for rows.Next() {
		var (
			id       int64
			source   string
			reviewID string
			enriched bool
		)
		if err := rows.Scan(&id, &source, &reviewID, &enriched); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("scan key: %w", err)
		}
		key := source + "/" + reviewID
		ids = append(ids, id)
		keyByID[id] = key
		if best, seen := keeper[key]; !seen {
			keeper[key] = candidate{id, enriched}
		} else if !best.enriched && enriched {
			keeper[key] = candidate{id, enriched}
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return 0, fmt.Errorf("iterate keys: %w", err)
	}
	if err := rows.Close(); err != nil {
		return 0, fmt.Errorf("close key rows: %w", err)
	}

	removed := 0
	for _, id := range ids {
		if keeper[keyByID[id]].id == id {
			continue
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM reviews WHERE id = ?", id); err != nil {
			return 0, fmt.Errorf("delete duplicate %d: %w", id, err)
		}
		removed++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit dedup: %w", err)
	}
	return removed, nil
}

// SaveSnapshot upserts the snapshot by id. Snapshots are audit records
// and are never deleted.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snapshot domain.Snapshot) error {
	now := time.Now().UTC()
	createdAt := snapshot.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	query, args, err := s.sb.Insert("snapshots").
		Columns("snapshot_id", "source", "status", "restaurant_id", "created_at", "updated_at").
		Values(snapshot.ID, snapshot.Source, snapshot.Status, snapshot.RestaurantID,
			createdAt.Format(time.RFC3339), now.Format(time.RFC3339)).
		Suffix("ON CONFLICT (snapshot_id) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build snapshot upsert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", snapshot.ID, err)
	}
	return nil
}

// Snapshot looks up one snapshot by id.
func (s *SQLiteStore) Snapshot(ctx context.Context, id string) (domain.Snapshot, error) {
	query, args, err := s.sb.Select("snapshot_id", "source", "status", "restaurant_id", "created_at", "updated_at").
		From("snapshots").
		Where(sq.Eq{"snapshot_id": id}).
		ToSql()
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("build snapshot query: %w", err)
	}
	snapshot, err := scanSnapshot(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return domain.Snapshot{}, domain.NewNotFoundError("snapshot", id)
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("query snapshot %s: %w", id, err)
	}
	return snapshot, nil
}

// AllSnapshots returns every snapshot in registration order.
func (s *SQLiteStore) AllSnapshots(ctx context.Context) ([]domain.Snapshot, error) {
	query, args, err := s.sb.Select("snapshot_id", "source", "status", "restaurant_id", "created_at", "updated_at").
		From("snapshots").
		OrderBy("created_at", "snapshot_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build snapshots query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}

	var snapshots []domain.Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("close snapshot rows: %w", err)
	}
	return snapshots, nil
}

func (s *SQLiteStore) selectReviews() sq.SelectBuilder {
	cols := append([]string{"id"}, reviewColumns...)
	return s.sb.Select(cols...).From("reviews").OrderBy("id")
}

func (s *SQLiteStore) queryReviews(ctx context.Context, builder sq.SelectBuilder) ([]domain.Review, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build review query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}

	var reviews []domain.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("close review rows: %w", err)
	}
	return reviews, nil
}

func reviewValues(review domain.Review) ([]any, error) {
	var rating any
	if review.Rating != nil {
		rating = *review.Rating
	}
	var enrichment any
	if review.Enrichment != nil {
		raw, err := json.Marshal(review.Enrichment)
		if err != nil {
			return nil, fmt.Errorf("encode enrichment %s: %w", review.Key(), err)
		}
		enrichment = string(raw)
	}
	fetchedAt := ""
	if !review.FetchedAt.IsZero() {
		fetchedAt = review.FetchedAt.UTC().Format(time.RFC3339)
	}
	processedAt := ""
	if !review.ProcessedAt.IsZero() {
		processedAt = review.ProcessedAt.UTC().Format(time.RFC3339)
	}
	return []any{
		review.Source, review.ReviewID, review.Author, rating, review.Text,
		review.ReviewDate, review.HelpfulVotes, review.OwnerResponse,
		review.OwnerResponseDate, review.Verified, review.Language,
		review.PhotosAttached, fetchedAt, review.RestaurantID,
		enrichment, processedAt, review.FailedAttempts,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReview(row rowScanner) (domain.Review, error) {
	var (
		review      domain.Review
		id          int64
		rating      sql.NullFloat64
		enrichment  sql.NullString
		fetchedAt   string
		processedAt string
	)
	err := row.Scan(&id, &review.Source, &review.ReviewID, &review.Author, &rating,
		&review.Text, &review.ReviewDate, &review.HelpfulVotes, &review.OwnerResponse,
		&review.OwnerResponseDate, &review.Verified, &review.Language,
		&review.PhotosAttached, &fetchedAt, &review.RestaurantID,
		&enrichment, &processedAt, &review.FailedAttempts)
	if err != nil {
		return domain.Review{}, fmt.Errorf("scan review: %w", err)
	}
	if rating.Valid {
		value := rating.Float64
		review.Rating = &value
	}
	review.FetchedAt = parseTime(fetchedAt)
	review.ProcessedAt = parseTime(processedAt)
	enr, err := decodeEnrichment(enrichment)
	if err != nil {
		return domain.Review{}, err
	}
	review.Enrichment = enr
	return review, nil
}

func scanSnapshot(row rowScanner) (domain.Snapshot, error) {
	var (
		snapshot  domain.Snapshot
		createdAt string
		updatedAt string
	)
	err := row.Scan(&snapshot.ID, &snapshot.Source, &snapshot.Status,
		&snapshot.RestaurantID, &createdAt, &updatedAt)
	if err != nil {
		return domain.Snapshot{}, err
	}
	snapshot.CreatedAt = parseTime(createdAt)
	snapshot.UpdatedAt = parseTime(updatedAt)
	return snapshot, nil
}

func decodeEnrichment(value sql.NullString) (*domain.Enrichment, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	var enr domain.Enrichment
	if err := json.Unmarshal([]byte(value.String), &enr); err != nil {
		return nil, fmt.Errorf("decode stored enrichment: %w", err)
	}
	return &enr, nil
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"example.com/notes-api/internal/mathx"
)

// maxTxAttempts bounds how often a transaction is replayed after losing a
// race on the tag name constraint.
const maxTxAttempts = 3

// snapshotTx is used by reads that issue more than one statement.
var snapshotTx = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

const noteColumns = "n.id, n.title, n.content, n.created_at, n.updated_at"

// Repository stores notes and tags in Postgres.
type Repository struct {
	db *sql.DB

	stmtGet      *sql.Stmt
	stmtDelete   *sql.Stmt
	stmtListTags *sql.Stmt
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func NewRepository(ctx context.Context, db *sql.DB) (*Repository, error) {
	r := &Repository{db: db}

	var err error
	if r.stmtGet, err = db.PrepareContext(ctx, `
		SELECT `+noteColumns+`
		FROM notes n
		WHERE n.id = $1
	`); err != nil {
		return nil, err
	}

	if r.stmtDelete, err = db.PrepareContext(ctx, `DELETE FROM notes WHERE id = $1`); err != nil {
		_ = r.Close()
		return nil, err
	}

	if r.stmtListTags, err = db.PrepareContext(ctx, `SELECT id, name FROM tags ORDER BY name COLLATE "C"`); err != nil {
		_ = r.Close()
		return nil, err
	}

	return r, nil
}

func (r *Repository) Close() error {
	for _, s := range []*sql.Stmt{r.stmtGet, r.stmtDelete, r.stmtListTags} {
		if s != nil {
			_ = s.Close()
		}
	}
	return nil
}

// CreateNote inserts the note and links its tags in one transaction.
// title, content and tags must already be normalized.
func (r *Repository) CreateNote(ctx context.Context, title, content string, tags []string) (Note, error) {
	var n Note
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO notes (title, content) VALUES ($1, $2)
			RETURNING id, title, content, created_at, updated_at
		`, title, content)
		if err := scanNote(row, &n); err != nil {
			return fmt.Errorf("insert note: %w", err)
		}

		linked, err := replaceNoteTags(ctx, tx, n.ID, tags)
		if err != nil {
			return err
		}
		n.Tags = linked
		return nil
	})
	if err != nil {
		return Note{}, err
	}
	return n, nil
}

// GetNote reads the note and its tags from one snapshot, so a concurrent
// update is seen either whole or not at all.
func (r *Repository) GetNote(ctx context.Context, id int64) (Note, error) {
	tx, err := r.db.BeginTx(ctx, snapshotTx)
	if err != nil {
		return Note{}, err
	}
	defer tx.Rollback()

	var n Note
	err = scanNote(tx.StmtContext(ctx, r.stmtGet).QueryRowContext(ctx, id), &n)
	if errors.Is(err, sql.ErrNoRows) {
		return Note{}, ErrNotFound
	}
	if err != nil {
		return Note{}, err
	}

	byNote, err := loadTagNames(ctx, tx, []int64{id})
	if err != nil {
		return Note{}, err
	}
	n.Tags = tagsOrEmpty(byNote[id])

	if err := tx.Commit(); err != nil {
		return Note{}, err
	}
	return n, nil
}

// UpdateNote replaces title, content and the whole tag set. updated_at always
// moves forward by at least a microsecond.
func (r *Repository) UpdateNote(ctx context.Context, id int64, title, content string, tags []string) (Note, error) {
	var n Note
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			UPDATE notes
			SET title = $1,
			    content = $2,
			    updated_at = GREATEST(now(), updated_at + interval '1 microsecond')
			WHERE id = $3
			RETURNING id, title, content, created_at, updated_at
		`, title, content, id)
		if err := scanNote(row, &n); errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		} else if err != nil {
			return fmt.Errorf("update note: %w", err)
		}

		linked, err := replaceNoteTags(ctx, tx, n.ID, tags)
		if err != nil {
			return err
		}
		n.Tags = linked
		return nil
	})
	if err != nil {
		return Note{}, err
	}
	return n, nil
}

// DeleteNote removes the note; its tag links go with it, the tags stay.
func (r *Repository) DeleteNote(ctx context.Context, id int64) error {
	res, err := r.stmtDelete.ExecContext(ctx, id)
	if err != nil {
		return err
	}
	a, _ := res.RowsAffected()
	if a == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchNotes counts and pages the matching notes inside one snapshot so that
// total and items agree.
func (r *Repository) SearchNotes(ctx context.Context, f Filter, req PageRequest) (Page, error) {
	var args []any
	where := f.Normalize().where(&args)

	tx, err := r.db.BeginTx(ctx, snapshotTx)
	if err != nil {
		return Page{}, err
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM notes n WHERE `+where, args...).Scan(&total); err != nil {
		return Page{}, fmt.Errorf("count notes: %w", err)
	}

	items := []Note{}
	if !mathx.PastEnd(total, req.Page, req.PageSize) {
		pageArgs := append(args, req.PageSize, req.Offset())
		rows, err := tx.QueryContext(ctx, fmt.Sprintf(`
			SELECT %s
			FROM notes n
			WHERE %s
			ORDER BY %s
			LIMIT $%d OFFSET $%d
		`, noteColumns, where, orderBy, len(args)+1, len(args)+2), pageArgs...)
		if err != nil {
			return Page{}, fmt.Errorf("search notes: %w", err)
		}
		items, err = scanNotes(rows)
		rows.Close()
		if err != nil {
			return Page{}, err
		}

		if err := hydrateTags(ctx, tx, items); err != nil {
			return Page{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Page{}, err
	}
	return NewPage(items, total, req), nil
}

// ListTags returns every tag ordered by name in byte order.
func (r *Repository) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := r.stmtListTags.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Tag, 0, 32)
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetOrCreateTag returns the tag with the normalized form of name, creating it
// if needed. created reports whether this call inserted the row.
func (r *Repository) GetOrCreateTag(ctx context.Context, name string) (tag Tag, created bool, err error) {
	name, err = TagName(name)
	if err != nil {
		return Tag{}, false, err
	}

	err = r.inTx(ctx, func(tx *sql.Tx) error {
		tag, created, err = resolveTag(ctx, tx, name)
		return err
	})
	if err != nil {
		return Tag{}, false, err
	}
	return tag, created, nil
}

// inTx runs fn in a read-committed transaction, replaying it when it lost a
// uniqueness or serialization race.
func (r *Repository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = r.tryTx(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", maxTxAttempts, err)
}

func (r *Repository) tryTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation, pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return true
	}
	return false
}

// resolveTag finds or inserts the tag named name (already normalized).
// ON CONFLICT DO NOTHING waits out a concurrent insert of the same name, after
// which the next lookup sees the winner's row.
func resolveTag(ctx context.Context, q querier, name string) (Tag, bool, error) {
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		t := Tag{Name: name}
		err := q.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = $1`, name).Scan(&t.ID)
		if err == nil {
			return t, false, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return Tag{}, false, fmt.Errorf("lookup tag %q: %w", name, err)
		}

		err = q.QueryRowContext(ctx, `
			INSERT INTO tags (name) VALUES ($1)
			ON CONFLICT (name) DO NOTHING
			RETURNING id
		`, name).Scan(&t.ID)
		if err == nil {
			return t, true, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return Tag{}, false, fmt.Errorf("insert tag %q: %w", name, err)
		}
	}
	return Tag{}, false, fmt.Errorf("resolve tag %q: conflicting inserts did not settle", name)
}

// replaceNoteTags swaps the note's tag links for exactly names, in order, and
// returns the linked names.
func replaceNoteTags(ctx context.Context, q querier, noteID int64, names []string) ([]string, error) {
	names = NormalizeTagNames(names)
	if _, err := q.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = $1`, noteID); err != nil {
		return nil, fmt.Errorf("clear note tags: %w", err)
	}

	linked := make([]string, 0, len(names))
	for i, name := range names {
		tag, _, err := resolveTag(ctx, q, name)
		if err != nil {
			return nil, err
		}
		if _, err := q.ExecContext(ctx, `
			INSERT INTO note_tags (note_id, tag_id, position) VALUES ($1, $2, $3)
		`, noteID, tag.ID, i); err != nil {
			return nil, fmt.Errorf("link tag %q: %w", name, err)
		}
		linked = append(linked, tag.Name)
	}
	return linked, nil
}

func hydrateTags(ctx context.Context, q querier, items []Note) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, len(items))
	for i, n := range items {
		ids[i] = n.ID
	}

	byNote, err := loadTagNames(ctx, q, ids)
	if err != nil {
		return err
	}
	for i := range items {
		items[i].Tags = tagsOrEmpty(byNote[items[i].ID])
	}
	return nil
}

// loadTagNames fetches tag names for many notes with one query (ANY($1)).
func loadTagNames(ctx context.Context, q querier, ids []int64) (map[int64][]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT nt.note_id, t.name
		FROM note_tags nt
		JOIN tags t ON t.id = nt.tag_id
		WHERE nt.note_id = ANY($1)
		ORDER BY nt.note_id, nt.position
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("load note tags: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]string, len(ids))
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = append(out[id], name)
	}
	return out, rows.Err()
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner, n *Note) error {
	return row.Scan(&n.ID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt)
}

func scanNotes(rows *sql.Rows) ([]Note, error) {
	out := make([]Note, 0, 32)
	for rows.Next() {
		var n Note
		if err := scanNote(rows, &n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}


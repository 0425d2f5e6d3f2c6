package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// BookRegistry covers catalog operations. Availability changes made by the
// LoanLedger go through SetAvailability inside the ledger's transaction;
// nothing else mutates the flag.
type BookRegistry struct {
	store *Store
}

func NewBookRegistry(store *Store) *BookRegistry { return &BookRegistry{store: store} }

// Create adds a book to the catalog. New books are available by default.
func (r *BookRegistry) Create(ctx context.Context, title, author string, year int) (int64, error) {
	if strings.TrimSpace(title) == "" {
		return 0, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(author) == "" {
		return 0, fmt.Errorf("%w: author is required", ErrValidation)
	}
	id, err := r.store.insertID(ctx, r.store.db,
		`INSERT INTO books(title,author,year,available) VALUES(?,?,?,?)`, title, author, year, true)
	if err != nil {
		return 0, r.store.fail("create book", err)
	}
	return id, nil
}

func (r *BookRegistry) Find(ctx context.Context, id int64) (*Book, error) {
	var b Book
	err := r.store.db.GetContext(ctx, &b,
		r.store.db.Rebind(`SELECT id,title,author,year,available FROM books WHERE id=?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, r.store.fail("find book", err)
	}
	return &b, nil
}

// Search matches a title substring. The empty substring matches everything;
// an empty result is not an error.
func (r *BookRegistry) Search(ctx context.Context, titleSubstring string) ([]*Book, error) {
	books := []*Book{}
	err := r.store.db.SelectContext(ctx, &books,
		r.store.db.Rebind(`SELECT id,title,author,year,available FROM books WHERE title LIKE ? ORDER BY title`),
		"%"+titleSubstring+"%")
	if err != nil {
		return nil, r.store.fail("search books", err)
	}
	return books, nil
}

// List returns the whole catalog ordered by title.
func (r *BookRegistry) List(ctx context.Context) ([]*Book, error) {
	books := []*Book{}
	err := r.store.db.SelectContext(ctx, &books,
		`SELECT id,title,author,year,available FROM books ORDER BY title`)
	if err != nil {
		return nil, r.store.fail("list books", err)
	}
	return books, nil
}

// SetAvailability is idempotent: setting the current value again succeeds
// silently.
func (r *BookRegistry) SetAvailability(ctx context.Context, id int64, available bool) error {
	res, err := r.store.db.ExecContext(ctx,
		r.store.db.Rebind(`UPDATE books SET available=? WHERE id=?`), available, id)
	if err != nil {
		return r.store.fail("set availability", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return r.store.fail("set availability", err)
	}
	if n == 0 {
		return ErrBookNotFound
	}
	return nil
}

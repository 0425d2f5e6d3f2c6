package library

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// LoanLedger owns the available/loaned state transition and the loan history.
// Issue and Return pair the loan write with the availability flip inside a
// single transaction; a partial application never commits.
type LoanLedger struct {
	store *Store
}

func NewLoanLedger(store *Store) *LoanLedger { return &LoanLedger{store: store} }

// today truncates the clock to a calendar date, matching the DATE columns.
func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Issue lends a book to a user and records the loan. It fails without state
// change when the user or book is unknown, or when the book is already out.
func (l *LoanLedger) Issue(ctx context.Context, userID, bookID int64) (int64, error) {
	tx, err := l.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, l.store.fail("issue loan", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.GetContext(ctx, &exists,
		tx.Rebind(`SELECT EXISTS(SELECT 1 FROM users WHERE id=?)`), userID); err != nil {
		return 0, l.store.fail("issue loan", err)
	}
	if !exists {
		return 0, ErrUserNotFound
	}

	var available bool
	err = tx.GetContext(ctx, &available,
		tx.Rebind(`SELECT available FROM books WHERE id=?`), bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrBookNotFound
	}
	if err != nil {
		return 0, l.store.fail("issue loan", err)
	}
	if !available {
		return 0, ErrBookUnavailable
	}

	loanID, err := l.store.insertID(ctx, tx,
		`INSERT INTO loans(user_id,book_id,loan_date) VALUES(?,?,?)`, userID, bookID, today())
	if err != nil {
		return 0, l.store.fail("issue loan", err)
	}
	if _, err := tx.ExecContext(ctx,
		tx.Rebind(`UPDATE books SET available=? WHERE id=?`), false, bookID); err != nil {
		return 0, l.store.fail("issue loan", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, l.store.fail("issue loan", err)
	}
	return loanID, nil
}

// Return closes the loan and makes the book available again.
func (l *LoanLedger) Return(ctx context.Context, loanID int64) error {
	tx, err := l.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return l.store.fail("return loan", err)
	}
	defer tx.Rollback()

	var ln Loan
	err = tx.GetContext(ctx, &ln,
		tx.Rebind(`SELECT id,user_id,book_id,loan_date,return_date FROM loans WHERE id=?`), loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrLoanNotFound
	}
	if err != nil {
		return l.store.fail("return loan", err)
	}
	if !ln.Active() {
		return ErrLoanAlreadyReturned
	}

	if _, err := tx.ExecContext(ctx,
		tx.Rebind(`UPDATE loans SET return_date=? WHERE id=?`), today(), loanID); err != nil {
		return l.store.fail("return loan", err)
	}
	if _, err := tx.ExecContext(ctx,
		tx.Rebind(`UPDATE books SET available=? WHERE id=?`), true, ln.BookID); err != nil {
		return l.store.fail("return loan", err)
	}

	if err := tx.Commit(); err != nil {
		return l.store.fail("return loan", err)
	}
	return nil
}

// Find fetches a single loan.
func (l *LoanLedger) Find(ctx context.Context, loanID int64) (*Loan, error) {
	var ln Loan
	err := l.store.db.GetContext(ctx, &ln,
		l.store.db.Rebind(`SELECT id,user_id,book_id,loan_date,return_date FROM loans WHERE id=?`), loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLoanNotFound
	}
	if err != nil {
		return nil, l.store.fail("find loan", err)
	}
	return &ln, nil
}

// ActiveLoans returns a user's open loans, oldest first.
func (l *LoanLedger) ActiveLoans(ctx context.Context, userID int64) ([]*Loan, error) {
	loans := []*Loan{}
	err := l.store.db.SelectContext(ctx, &loans,
		l.store.db.Rebind(`SELECT id,user_id,book_id,loan_date,return_date FROM loans
            WHERE user_id=? AND return_date IS NULL ORDER BY loan_date, id`), userID)
	if err != nil {
		return nil, l.store.fail("list active loans", err)
	}
	return loans, nil
}

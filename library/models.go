package library

import (
	"database/sql"
	"time"
)

// Book represents a catalog entry. Availability is mutated only by the
// LoanLedger; everything else is set once at creation.
type Book struct {
	ID        int64  `db:"id"`
	Title     string `db:"title"`
	Author    string `db:"author"`
	Year      int    `db:"year"`
	Available bool   `db:"available"`
}

// User represents a registered account. CredentialHash and Salt are opaque
// hex blobs produced by the PasswordHasher; the plaintext password is never
// stored or logged.
type User struct {
	ID             int64  `db:"id"`
	Name           string `db:"name"`
	Role           string `db:"role"`
	CredentialHash string `db:"credential_hash"`
	Salt           string `db:"salt"`
}

// Loan records one borrowing of one book. A null return date marks the loan
// as active; loans are never deleted.
type Loan struct {
	ID         int64        `db:"id"`
	UserID     int64        `db:"user_id"`
	BookID     int64        `db:"book_id"`
	LoanDate   time.Time    `db:"loan_date"`
	ReturnDate sql.NullTime `db:"return_date"`
}

// Active reports whether the loan has not been returned yet.
func (l *Loan) Active() bool { return !l.ReturnDate.Valid }

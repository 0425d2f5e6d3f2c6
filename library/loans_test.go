package library

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countLoans(t *testing.T, s *Store) int {
	t.Helper()
	var n int
	if err := s.db.Get(&n, `SELECT COUNT(*) FROM loans`); err != nil {
		t.Fatalf("count loans: %v", err)
	}
	return n
}

func TestIssueAndReturn(t *testing.T) {
	s := tempStore(t)
	books := NewBookRegistry(s)
	users := NewUserRegistry(s, fastHasher())
	loans := NewLoanLedger(s)
	ctx := context.Background()

	bookID, err := books.Create(ctx, "Dune", "Herbert", 1965)
	require.NoError(t, err)
	userID, err := users.Create(ctx, "alice", "student", "pw1")
	require.NoError(t, err)

	loanID, err := loans.Issue(ctx, userID, bookID)
	require.NoError(t, err)

	b, err := books.Find(ctx, bookID)
	require.NoError(t, err)
	assert.False(t, b.Available, "book should be loaned out")

	ln, err := loans.Find(ctx, loanID)
	require.NoError(t, err)
	assert.True(t, ln.Active())
	assert.Equal(t, userID, ln.UserID)
	assert.Equal(t, bookID, ln.BookID)

	require.NoError(t, loans.Return(ctx, loanID))

	b, err = books.Find(ctx, bookID)
	require.NoError(t, err)
	assert.True(t, b.Available, "book should be available again")

	ln, err = loans.Find(ctx, loanID)
	require.NoError(t, err)
	assert.False(t, ln.Active(), "loan should carry a return date")
}

func TestIssueUnavailableBookLeavesNoOrphanRow(t *testing.T) {
	s := tempStore(t)
	books := NewBookRegistry(s)
	users := NewUserRegistry(s, fastHasher())
	loans := NewLoanLedger(s)
	ctx := context.Background()

	bookID, _ := books.Create(ctx, "Dune", "Herbert", 1965)
	alice, _ := users.Create(ctx, "alice", "student", "pw1")
	bob, _ := users.Create(ctx, "bob", "student", "pw2")

	_, err := loans.Issue(ctx, alice, bookID)
	require.NoError(t, err)
	before := countLoans(t, s)

	_, err = loans.Issue(ctx, bob, bookID)
	assert.ErrorIs(t, err, ErrBookUnavailable)
	assert.Equal(t, before, countLoans(t, s), "failed issue must not write a loan row")
}

func TestIssueUnknownUserAndBook(t *testing.T) {
	s := tempStore(t)
	books := NewBookRegistry(s)
	users := NewUserRegistry(s, fastHasher())
	loans := NewLoanLedger(s)
	ctx := context.Background()

	bookID, _ := books.Create(ctx, "Dune", "Herbert", 1965)
	userID, _ := users.Create(ctx, "alice", "student", "pw1")

	_, err := loans.Issue(ctx, 99999, bookID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = loans.Issue(ctx, userID, 99999)
	assert.ErrorIs(t, err, ErrBookNotFound)
	assert.Equal(t, 0, countLoans(t, s))
}

func TestAvailabilityRoundTrips(t *testing.T) {
	s := tempStore(t)
	books := NewBookRegistry(s)
	users := NewUserRegistry(s, fastHasher())
	loans := NewLoanLedger(s)
	ctx := context.Background()

	bookID, _ := books.Create(ctx, "Dune", "Herbert", 1965)
	userID, _ := users.Create(ctx, "alice", "student", "pw1")

	// Available -> Loaned -> Available -> Loaned.
	first, err := loans.Issue(ctx, userID, bookID)
	require.NoError(t, err)
	require.NoError(t, loans.Return(ctx, first))
	second, err := loans.Issue(ctx, userID, bookID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	b, _ := books.Find(ctx, bookID)
	assert.False(t, b.Available)
}

func TestDoubleReturn(t *testing.T) {
	s := tempStore(t)
	books := NewBookRegistry(s)
	users := NewUserRegistry(s, fastHasher())
	loans := NewLoanLedger(s)
	ctx := context.Background()

	bookID, _ := books.Create(ctx, "Dune", "Herbert", 1965)
	userID, _ := users.Create(ctx, "alice", "student", "pw1")

	loanID, err := loans.Issue(ctx, userID, bookID)
	require.NoError(t, err)

	require.NoError(t, loans.Return(ctx, loanID))
	assert.ErrorIs(t, loans.Return(ctx, loanID), ErrLoanAlreadyReturned)

	assert.ErrorIs(t, loans.Return(ctx, 99999), ErrLoanNotFound)
}

func TestActiveLoans(t *testing.T) {
	s := tempStore(t)
	books := NewBookRegistry(s)
	users := NewUserRegistry(s, fastHasher())
	loans := NewLoanLedger(s)
	ctx := context.Background()

	b1, _ := books.Create(ctx, "Dune", "Herbert", 1965)
	b2, _ := books.Create(ctx, "1984", "Orwell", 1949)
	userID, _ := users.Create(ctx, "alice", "student", "pw1")

	l1, err := loans.Issue(ctx, userID, b1)
	require.NoError(t, err)
	_, err = loans.Issue(ctx, userID, b2)
	require.NoError(t, err)

	active, err := loans.ActiveLoans(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	require.NoError(t, loans.Return(ctx, l1))
	active, err = loans.ActiveLoans(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Equal(t, b2, active[0].BookID)
}

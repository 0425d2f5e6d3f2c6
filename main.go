package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-system/library"
)

// app holds the console session state. user is nil while anonymous.
type app struct {
	books *library.BookRegistry
	users *library.UserRegistry
	loans *library.LoanLedger

	in   *bufio.Scanner
	user *library.User
	eof  bool
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "library-system",
		Short:        "Console library management system",
		SilenceUsage: true,
		RunE:         runConsole,
	}
	rootCmd.Flags().String("db", "", "SQLite database path (overrides LIBRARY_DB_PATH)")
	rootCmd.Flags().String("driver", "", "store driver: sqlite3 or postgres (overrides LIBRARY_DB_DRIVER)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runConsole(cmd *cobra.Command, _ []string) error {
	// Best-effort .env load; real env vars win when both are set.
	_ = godotenv.Load()

	cfg := library.ConfigFromEnv()
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.Driver = "sqlite3"
		cfg.DSN = v
	}
	if v, _ := cmd.Flags().GetString("driver"); v != "" {
		cfg.Driver = v
	}

	logger, err := library.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	store, err := library.OpenStore(cfg, sugar)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	sugar.Infow("store ready", "driver", cfg.Driver)

	a := &app{
		books: library.NewBookRegistry(store),
		users: library.NewUserRegistry(store, nil),
		loans: library.NewLoanLedger(store),
		in:    bufio.NewScanner(os.Stdin),
	}
	a.run(cmd.Context())
	return nil
}

func (a *app) run(ctx context.Context) {
	fmt.Println("Welcome to the Library Management System!")
	for !a.eof {
		if a.user == nil {
			if done := a.anonymousMenu(ctx); done {
				return
			}
		} else {
			a.authenticatedMenu(ctx)
		}
	}
}

// ---------------------------------------------------------------------------
// Menus
// ---------------------------------------------------------------------------

// anonymousMenu handles the logged-out state; returns true on exit.
func (a *app) anonymousMenu(ctx context.Context) bool {
	fmt.Println("\n--- Main Menu ---")
	fmt.Println("1. Register a new user")
	fmt.Println("2. Log in")
	fmt.Println("3. Exit")

	choice, ok := a.readInt("Select an option: ")
	if !ok {
		return false
	}
	switch choice {
	case 1:
		a.handleRegister(ctx)
	case 2:
		a.handleLogin(ctx)
	case 3:
		fmt.Println("Goodbye!")
		return true
	default:
		fmt.Println("Invalid option.")
	}
	return false
}

func (a *app) authenticatedMenu(ctx context.Context) {
	fmt.Printf("\n--- Library Menu (%s) ---\n", a.user.Name)
	fmt.Println("1. List all books")
	fmt.Println("2. Search books by title")
	fmt.Println("3. Add a book")
	fmt.Println("4. Borrow a book")
	fmt.Println("5. Return a loan")
	fmt.Println("6. My active loans")
	fmt.Println("7. Log out")

	choice, ok := a.readInt("Select an option: ")
	if !ok {
		return
	}
	switch choice {
	case 1:
		a.handleListBooks(ctx)
	case 2:
		a.handleSearchBooks(ctx)
	case 3:
		a.handleAddBook(ctx)
	case 4:
		a.handleBorrow(ctx)
	case 5:
		a.handleReturn(ctx)
	case 6:
		a.handleMyLoans(ctx)
	case 7:
		fmt.Printf("Logging out %s...\n", a.user.Name)
		a.user = nil
	default:
		fmt.Println("Invalid option.")
	}
}

// ---------------------------------------------------------------------------
// Anonymous handlers
// ---------------------------------------------------------------------------

func (a *app) handleRegister(ctx context.Context) {
	fmt.Println("\n[Register New User]")
	name := a.readLine("Name: ")
	role := a.readLine("Role (student/admin): ")
	password, err := readPassword("Password: ")
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}

	id, err := a.users.Create(ctx, name, role, password)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("User '%s' registered with ID %d. You can log in now.\n", name, id)
}

func (a *app) handleLogin(ctx context.Context) {
	fmt.Println("\n[Log In]")
	name := a.readLine("Name: ")
	password, err := readPassword("Password: ")
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}

	user, err := a.users.Authenticate(ctx, name, password)
	if err != nil {
		fmt.Printf("Login failed: %v\n", err)
		return
	}
	a.user = user
	fmt.Printf("Welcome, %s!\n", user.Name)
}

// ---------------------------------------------------------------------------
// Authenticated handlers
// ---------------------------------------------------------------------------

func (a *app) handleListBooks(ctx context.Context) {
	books, err := a.books.List(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	printBooks(books)
}

func (a *app) handleSearchBooks(ctx context.Context) {
	query := a.readLine("Title (or part of it): ")
	books, err := a.books.Search(ctx, query)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(books) == 0 {
		fmt.Printf("No books found matching '%s'.\n", query)
		return
	}
	printBooks(books)
}

func (a *app) handleAddBook(ctx context.Context) {
	fmt.Println("\n[Add New Book]")
	title := a.readLine("Title: ")
	author := a.readLine("Author: ")
	year, ok := a.readInt("Publication year: ")
	if !ok {
		return
	}

	id, err := a.books.Create(ctx, title, author, year)
	if err != nil {
		fmt.Printf("Error adding book: %v\n", err)
		return
	}
	fmt.Printf("Added book '%s' with ID %d.\n", title, id)
}

func (a *app) handleBorrow(ctx context.Context) {
	bookID, ok := a.readInt64("Book ID: ")
	if !ok {
		return
	}

	loanID, err := a.loans.Issue(ctx, a.user.ID, bookID)
	if err != nil {
		fmt.Printf("Error borrowing book: %v\n", err)
		return
	}
	book, _ := a.books.Find(ctx, bookID)
	if book != nil {
		fmt.Printf("Book '%s' loaned to you (loan ID %d).\n", book.Title, loanID)
	} else {
		fmt.Printf("Loan %d registered.\n", loanID)
	}
}

func (a *app) handleReturn(ctx context.Context) {
	loanID, ok := a.readInt64("Loan ID: ")
	if !ok {
		return
	}

	if err := a.loans.Return(ctx, loanID); err != nil {
		fmt.Printf("Error returning loan: %v\n", err)
		return
	}
	fmt.Printf("Loan %d returned. The book is available again.\n", loanID)
}

func (a *app) handleMyLoans(ctx context.Context) {
	loans, err := a.loans.ActiveLoans(ctx, a.user.ID)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(loans) == 0 {
		fmt.Println("You have no active loans.")
		return
	}

	fmt.Printf("%-8s %-30s %-25s %s\n", "Loan ID", "Title", "Author", "Loaned On")
	fmt.Println(strings.Repeat("-", 80))
	for _, ln := range loans {
		title, author := "(unknown)", ""
		if book, err := a.books.Find(ctx, ln.BookID); err == nil {
			title, author = book.Title, book.Author
		}
		fmt.Printf("%-8d %-30s %-25s %s\n",
			ln.ID, truncateString(title, 30), truncateString(author, 25),
			ln.LoanDate.Format("2006-01-02"))
	}
}

// ---------------------------------------------------------------------------
// Input and output helpers
// ---------------------------------------------------------------------------

func printBooks(books []*library.Book) {
	if len(books) == 0 {
		fmt.Println("No books in the catalog.")
		return
	}
	fmt.Printf("%-5s %-35s %-25s %-6s %s\n", "ID", "Title", "Author", "Year", "Status")
	fmt.Println(strings.Repeat("-", 85))
	for _, b := range books {
		status := "Available"
		if !b.Available {
			status = "Loaned"
		}
		fmt.Printf("%-5d %-35s %-25s %-6d %s\n",
			b.ID, truncateString(b.Title, 35), truncateString(b.Author, 25), b.Year, status)
	}
}

func (a *app) readLine(prompt string) string {
	fmt.Print(prompt)
	if !a.in.Scan() {
		a.eof = true
		return ""
	}
	return strings.TrimSpace(a.in.Text())
}

// readInt reports and aborts on non-numeric input instead of retrying.
func (a *app) readInt(prompt string) (int, bool) {
	raw := a.readLine(prompt)
	if a.eof {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		fmt.Printf("'%s' is not a number.\n", raw)
		return 0, false
	}
	return n, true
}

func (a *app) readInt64(prompt string) (int64, bool) {
	raw := a.readLine(prompt)
	if a.eof {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		fmt.Printf("'%s' is not a number.\n", raw)
		return 0, false
	}
	return n, true
}

// readPassword securely reads a password with masking.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(bytePassword)), nil
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength-3] + "..."
}

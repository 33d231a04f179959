package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"personal-tracker/internal/logging"
	"personal-tracker/internal/storage"
	"personal-tracker/internal/tracker"
)

const defaultDBPath = "tracker.db"

func main() {
	_ = godotenv.Load()

	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "Username")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	dsn := fs.String("db", "", "SQLite file path or PostgreSQL URL (default $DB_PATH, $DATABASE_URL or "+defaultDBPath+")")
	driver := fs.String("driver", "", "Database driver: sqlite or postgres (default $DB_DRIVER or sqlite)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" {
		fmt.Fprintln(stdout, "Usage: adduser -user <username> [-password <password>] [-db <dsn>] [-driver sqlite|postgres]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: user")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout) // Print newline after password input
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	opts := resolveDatabase(*driver, *dsn)
	db, err := storage.Open(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	svc := tracker.NewService(db, logging.New(stderr, "warn", "text"))
	user, err := svc.Register(ctx, *username, password)
	if err != nil {
		if errors.Is(err, tracker.ErrUsernameTaken) {
			return fmt.Errorf("user %s already exists", *username)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %d\n", user.Username, user.ID)
	return nil
}

// resolveDatabase fills unset flags from DB_DRIVER, DB_PATH and DATABASE_URL.
func resolveDatabase(driver, dsn string) storage.Options {
	if driver == "" {
		driver = os.Getenv("DB_DRIVER")
	}
	if driver == "" {
		driver = string(storage.DialectSQLite)
	}
	if dsn == "" {
		if driver == string(storage.DialectPostgres) {
			dsn = os.Getenv("DATABASE_URL")
		} else if path := os.Getenv("DB_PATH"); path != "" {
			dsn = path
		} else {
			dsn = defaultDBPath
		}
	}
	return storage.Options{Dialect: storage.Dialect(driver), DSN: dsn}
}

func readPassword(stdin io.Reader) (string, error) {
	// Check if stdin is a terminal
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

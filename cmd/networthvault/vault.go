package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	sqliteadapter "github.com/ericfisherdev/networthvault/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/networthvault/internal/application"
	"github.com/ericfisherdev/networthvault/internal/config"
)

// vault bundles the opened database and the services commands run against.
type vault struct {
	cfg *config.Config
	db  *sqliteadapter.DB

	auth      *application.AuthService
	accounts  *application.AccountService
	history   *application.HistoryService
	backup    *application.BackupService
	watchlist *application.WatchlistService
	demo      *application.DemoService
}

// openVault loads configuration, opens the vault database, applies pending
// migrations, and wires every service. Callers must Close the result.
func openVault() (*vault, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		db.Close()
		return nil, err
	}

	accountRepo := sqliteadapter.NewAccountRepo(db)
	snapshotRepo := sqliteadapter.NewSnapshotRepo(db)
	positionRepo := sqliteadapter.NewPositionRepo(db)
	settingRepo := sqliteadapter.NewSettingRepo(db)
	watchlistRepo := sqliteadapter.NewWatchlistRepo(db)
	rekeyRepo := sqliteadapter.NewRekeyRepo(db)

	return &vault{
		cfg:       cfg,
		db:        db,
		auth:      application.NewAuthService(settingRepo, rekeyRepo, cfg.KDFIterations, cfg.SessionTTL),
		accounts:  application.NewAccountService(accountRepo, positionRepo),
		history:   application.NewHistoryService(snapshotRepo),
		backup:    application.NewBackupService(accountRepo, snapshotRepo, watchlistRepo, settingRepo),
		watchlist: application.NewWatchlistService(watchlistRepo),
		demo:      application.NewDemoService(accountRepo, watchlistRepo),
	}, nil
}

func (v *vault) Close() {
	if err := v.db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "error closing vault: %v\n", err)
	}
}

// login resolves the master password and opens an authenticated session.
// NETWORTHVAULT_PASSWORD skips the prompt for scripted use.
func (v *vault) login(ctx context.Context) (*application.Session, error) {
	password, err := v.password("Master password: ")
	if err != nil {
		return nil, err
	}
	return v.auth.Authenticate(ctx, password)
}

func (v *vault) password(prompt string) (string, error) {
	if v.cfg.HasPassword() {
		return v.cfg.Password, nil
	}
	return readPassword(prompt)
}

// newPassword resolves the password for a fresh vault. The environment
// password is honored so init can run unattended; otherwise the user types
// it twice.
func (v *vault) newPassword() (string, error) {
	if v.cfg.HasPassword() {
		return v.cfg.Password, nil
	}
	return readNewPassword()
}

// stdin is shared across prompts so a piped password list is consumed one
// line at a time instead of being swallowed by a throwaway buffer.
var stdin = bufio.NewReader(os.Stdin)

// readPassword prompts on stderr and reads without echo when stdin is a
// terminal, falling back to a plain line read for piped input.
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}

	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readNewPassword prompts twice and verifies both entries match.
func readNewPassword() (string, error) {
	first, err := readPassword("New master password: ")
	if err != nil {
		return "", err
	}
	second, err := readPassword("Repeat new master password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}

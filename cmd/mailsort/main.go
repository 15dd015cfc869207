package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/nhle/mailsort/internal/app"
	"github.com/nhle/mailsort/internal/auth"
	"github.com/nhle/mailsort/internal/backend"
	"github.com/nhle/mailsort/internal/credential"
	"github.com/nhle/mailsort/internal/logging"
	"github.com/nhle/mailsort/internal/model"
	"github.com/nhle/mailsort/internal/source/imap"
	"github.com/nhle/mailsort/internal/store"
	appsync "github.com/nhle/mailsort/internal/sync"
	"github.com/nhle/mailsort/internal/theme"
	"github.com/nhle/mailsort/internal/triage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "mailsort:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := pflag.StringP("config", "c", model.DefaultConfigPath(), "path to the config file")
	setSecret := pflag.String("set-secret", "", "store a secret in the keyring and exit: google or imap")
	writeConfig := pflag.Bool("write-config", false, "write the effective config to the config path and exit")
	pflag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	if *writeConfig {
		if err := model.SaveConfig(*configPath, cfg); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", *configPath)
		return nil
	}

	if err := theme.Apply(cfg.Display.Theme); err != nil {
		return err
	}

	vault, err := credential.Open()
	if err != nil {
		return err
	}

	if *setSecret != "" {
		return storeSecret(vault, cfg, *setSecret)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	st, err := store.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	client, err := backend.NewClient(
		cfg.Backend.BaseURL,
		time.Duration(cfg.Backend.TimeoutSec)*time.Second,
		backend.WithSessionStore(vault),
		backend.WithLogger(logger.Named("backend")),
	)
	if err != nil {
		return err
	}

	engine := triage.NewEngine(st, triage.DefaultEnv(), logger.Named("engine"))
	reconciler := appsync.NewReconciler(client, engine, *cfg, logger.Named("sync"))
	keepAlive := appsync.NewKeepAlive(
		client,
		time.Duration(cfg.Backend.HealthIntervalSec)*time.Second,
		logger.Named("keepalive"),
	)
	defer keepAlive.Stop()

	deps := app.Deps{
		Engine:     engine,
		Reconciler: reconciler,
		KeepAlive:  keepAlive,
		Logger:     logger.Named("app"),
	}

	if cfg.Google.ClientID != "" {
		secret, err := vault.Get(credential.GoogleClientSecretKey)
		if err != nil && !credential.IsNotFound(err) {
			logger.Warn("reading google client secret", zap.Error(err))
		}
		deps.Device = auth.NewDeviceLogin(cfg.Google.ClientID, secret)
	}

	if cfg.IMAP.Enabled {
		password, err := vault.Get(credential.IMAPPasswordKey(cfg.IMAP.Username))
		if err != nil {
			logger.Warn("imap enabled but no password stored; run with --set-secret imap",
				zap.String("username", cfg.IMAP.Username),
				zap.Error(err),
			)
		} else {
			deps.Mailbox = imap.NewClient(cfg.IMAP, password)
			deps.MailboxLimit = cfg.IMAP.Limit
		}
	}

	logger.Info("starting",
		zap.String("backend", client.BaseURL()),
		zap.String("db", cfg.Storage.DBPath),
		zap.Bool("google", deps.Device != nil),
		zap.Bool("imap", deps.Mailbox != nil),
	)

	p := tea.NewProgram(app.New(deps), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}

// storeSecret prompts for a secret and saves it in the keyring.
func storeSecret(vault *credential.Vault, cfg *model.AppConfig, name string) error {
	var key string
	switch name {
	case "google":
		key = credential.GoogleClientSecretKey
	case "imap":
		if cfg.IMAP.Username == "" {
			return errors.New("set imap.username in the config first")
		}
		key = credential.IMAPPasswordKey(cfg.IMAP.Username)
	default:
		return fmt.Errorf("unknown secret %q: want google or imap", name)
	}

	fmt.Fprintf(os.Stderr, "Enter %s secret: ", name)
	value, err := readSecret()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("reading secret: %w", err)
	}
	if value == "" {
		return errors.New("empty secret")
	}

	if err := vault.Set(key, value); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Stored %s secret in the keyring.\n", name)
	return nil
}

// readSecret reads a line from stdin without echo when stdin is a
// terminal.
func readSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		return strings.TrimSpace(string(b)), err
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

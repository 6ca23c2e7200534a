// The mailpdf command answers mail from allowed senders with their
// image attachments converted to PDF, then trashes the answered mail.
// Each invocation processes the mailbox once; run it periodically.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/matta/mailpdf/internal/config"
	"github.com/matta/mailpdf/internal/gmail"
	"github.com/matta/mailpdf/internal/gmailhttp"
	"github.com/matta/mailpdf/internal/homedir"
	"github.com/matta/mailpdf/internal/imagepdf"
	"github.com/matta/mailpdf/internal/logging"
	"github.com/matta/mailpdf/internal/persist"
	"github.com/matta/mailpdf/internal/responder"
	"github.com/matta/mailpdf/internal/tracehttp"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	_ "github.com/mattn/go-sqlite3"
)

var (
	flagConfig = flag.String("config", "", "optional config file (yaml, json or toml)")
	flagTrace  = flag.Bool("T", false, "request debug tracing")
	flagDryRun = flag.Bool("n", false, "dry run: log replies and trashes instead of doing them")
)

func tokenStore(cfg *config.Config) (gmailhttp.TokenStore, error) {
	if cfg.TokenStore == config.TokenStoreKeyring {
		return gmailhttp.OpenKeyring(filepath.Join(homedir.ConfigDir(), "keyring"))
	}
	return gmailhttp.FileStore{Path: cfg.TokenFile}, nil
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, err := tokenStore(cfg)
	if err != nil {
		return errors.Wrap(err, "unable to open token store")
	}
	client, err := gmailhttp.New(ctx, gmailhttp.Options{
		CredentialsFile: cfg.CredentialsFile,
		Store:           store,
		Scopes:          []string{gmail.Scope},
		Log:             logger,
	})
	if err != nil {
		return errors.Wrap(err, "unable to initialize GMail HTTP client")
	}

	s, err := gmail.New(ctx, client, logger)
	if err != nil {
		return errors.Wrap(err, "unable to initialize GMail")
	}

	var mailbox responder.Mailbox = s
	var opts []responder.Option
	if *flagDryRun {
		logger.Info("dry run; no mail will be sent or trashed")
		mailbox = responder.DryRun(s, logger)
	} else if cfg.Journal != "" {
		db, err := persist.Open(ctx, cfg.Journal, logger)
		if err != nil {
			return errors.Wrap(err, "unable to initialize journal")
		}
		defer db.Close()
		opts = append(opts, responder.WithJournal(db))
	}

	p := responder.New(responder.Settings{
		BotAddress:        cfg.BotAddress,
		MaintainerAddress: cfg.MaintainerAddress,
		AllowList:         cfg.AllowList(),
		Query:             cfg.Query,
	}, mailbox, imagepdf.Converter{Resolution: imagepdf.DefaultResolution}, logger, opts...)

	if _, err := p.Run(ctx); err != nil {
		return errors.Wrap(err, "unable to process mail")
	}
	return nil
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		log.Fatalf("Failed: %v\n", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed: %v\n", err)
	}
	defer logger.Sync()

	if *flagTrace {
		tracehttp.WrapDefaultTransport(logger.Named("http"))
	}
	if len(cfg.ExtraSenders) == 0 {
		logger.Warn("no extra allowed senders configured; only the bot and maintainer will be answered")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

// ABOUTME: Builds the session, connection, cache and studio shared by all commands
// ABOUTME: Restores a saved login so commands act as the stored identity

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/caffeinepub/crocheting-app/cli/internal/blob"
	"github.com/caffeinepub/crocheting-app/cli/internal/client"
	"github.com/caffeinepub/crocheting-app/cli/internal/config"
	"github.com/caffeinepub/crocheting-app/cli/internal/connection"
	"github.com/caffeinepub/crocheting-app/cli/internal/identity"
	"github.com/caffeinepub/crocheting-app/cli/internal/querycache"
	"github.com/caffeinepub/crocheting-app/cli/internal/studio"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/debuglog"
	"github.com/caffeinepub/crocheting-app/cli/internal/upload"
)

var errNotLoggedIn = errors.New(`not logged in: run "crochet login" first`)

// environment is everything a command needs to talk to the studio.
type environment struct {
	cfg      *config.Config
	url      string
	logger   *slog.Logger
	client   *client.Client
	store    *identity.FileStore
	session  *identity.Session
	studio   *studio.Studio
	closeLog func() error
}

// newEnvironment wires the client stack. approve is asked before a key is
// used to log in; nil approves silently.
func newEnvironment(ctx context.Context, approve identity.ApproveFunc) (*environment, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	url := resolveAPIURL(cfg)

	logger, closeLog, err := debuglog.Open(cfg.DebugLog)
	if err != nil {
		return nil, fmt.Errorf("opening debug log: %w", err)
	}

	fetcher := blob.NewFetcher(nil, cfg.Blobs.CacheSize, cfg.Blobs.CacheTTL, logger)
	c := client.New(url, client.WithBlobFetcher(fetcher))
	store := identity.NewFileStore(cfg.ConfigDir)
	auth := identity.NewKeyAuthenticator(store, c, approve, logger)
	session := identity.NewSession(auth,
		identity.WithRetryDelay(cfg.Login.RetryDelay),
		identity.WithSessionLogger(logger),
	)
	provider := connection.NewProvider(session, connection.HTTPDialer(url, fetcher), connection.WithLogger(logger))
	cache := querycache.New(querycache.WithLogger(logger))
	st := studio.New(session, provider, cache,
		studio.WithLogger(logger),
		studio.WithUploadLimits(cfg.Upload.Limit, cfg.Upload.Concurrency),
	)

	return &environment{
		cfg:      cfg,
		url:      url,
		logger:   logger,
		client:   c,
		store:    store,
		session:  session,
		studio:   st,
		closeLog: closeLog,
	}, nil
}

// resume restores the saved login and waits for its connection.
func (e *environment) resume(ctx context.Context) error {
	id, err := e.session.Restore(ctx)
	if err != nil {
		return err
	}
	if id == nil {
		return errNotLoggedIn
	}
	return e.studio.Ready(ctx)
}

func (e *environment) close() {
	e.studio.Close()
	e.closeLog()
}

// report prints err and returns the exit code for it. Input the studio
// rejected exits 1; everything else exits 2.
func report(w io.Writer, err error) int {
	var ve *studio.ValidationError
	if errors.As(err, &ve) {
		fmt.Fprintf(w, "Invalid input: %s\n", ve.Message)
		return 1
	}
	var qe *upload.QuotaError
	if errors.As(err, &qe) {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	return 2
}

// readImages loads the named files for staging.
func readImages(paths []string) ([]upload.File, error) {
	files := make([]upload.File, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading image: %w", err)
		}
		files = append(files, upload.File{Name: filepath.Base(path), Data: data})
	}
	return files, nil
}

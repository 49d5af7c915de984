// Command server runs the registration approval service. It is stateless:
// every pending registration lives entirely inside the signed tokens in
// the admin's mailbox, so the process keeps nothing but its configuration.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/identitystore"
	"github.com/aws/aws-sdk-go-v2/service/ses"

	"github.com/andre-2112/cloud-cli-access/directory"
	"github.com/andre-2112/cloud-cli-access/notify"
	"github.com/andre-2112/cloud-cli-access/registration"
	"github.com/andre-2112/cloud-cli-access/server"
	"github.com/andre-2112/cloud-cli-access/token"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := server.FromEnv()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dir, notifier, err := buildCollaborators(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup: %v", err)
	}

	codec := token.New(cfg.SecretKey)
	reg := registration.NewService(codec, notifier, logger)
	approvals := registration.NewApprovalHandler(codec, dir, notifier, cfg.CLIGroupID, logger)
	srv := server.New(reg, approvals, cfg.BaseURL, logger)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("approval service listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Fatalf("server error: %v", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("graceful shutdown failed: %v", err)
	}
	logger.Println("server shut down gracefully")
}

// buildCollaborators selects the real AWS-backed directory and notifier,
// or their local stand-ins when the deployment values are absent.
func buildCollaborators(ctx context.Context, cfg server.Config, logger *log.Logger) (registration.Directory, registration.Notifier, error) {
	var (
		dir      registration.Directory
		notifier registration.Notifier
	)

	needsAWS := cfg.IdentityStoreID != "" || cfg.FromEmail != ""
	if needsAWS {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, nil, err
		}
		if cfg.IdentityStoreID != "" {
			dir = directory.NewIdentityStore(identitystore.NewFromConfig(awsCfg), cfg.IdentityStoreID)
		}
		if cfg.FromEmail != "" {
			notifier = notify.NewSES(ses.NewFromConfig(awsCfg), cfg.FromEmail, cfg.AdminEmail, cfg.SSOStartURL)
		}
	}

	if dir == nil {
		logger.Println("IDENTITY_STORE_ID not set, using in-memory directory (dry run)")
		dir = directory.NewMemory()
	}
	if notifier == nil {
		logger.Println("FROM_EMAIL not set, logging notifications instead of sending (dry run)")
		notifier = notify.NewLog(logger)
	}
	return dir, notifier, nil
}

// Command roomaccess serves the room access API and carries the
// maintenance commands that share its storage.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/room-access/internal/config"
	"github.com/example/room-access/internal/persistence/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	dsn string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "roomaccess",
		Short:         "Room access resolver for the wellness marketplace",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dsn, "dsn", "", "database DSN (defaults to ROOMACCESS_DATABASE_DSN)")

	root.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newSeedCommand(opts),
		newCheckCommand(opts),
		newHashPasswordCommand(),
	)
	return root
}

// resolveDSN prefers the --dsn flag over the environment.
func (o *rootOptions) resolveDSN() (string, error) {
	if dsn := strings.TrimSpace(o.dsn); dsn != "" {
		return dsn, nil
	}
	return config.DatabaseDSN()
}

// openStore opens and migrates the configured store. Callers close it.
func (o *rootOptions) openStore(ctx context.Context) (storage.Store, storage.Backend, error) {
	dsn, err := o.resolveDSN()
	if err != nil {
		return nil, "", err
	}
	store, backend, err := storage.OpenAndMigrate(ctx, dsn)
	if err != nil {
		return nil, backend, fmt.Errorf("open %s store: %w", backend, err)
	}
	return store, backend, nil
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

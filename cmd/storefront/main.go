// Command storefront is the terminal client for the shop API. It keeps a
// logged-in session and a cart on disk, so commands compose the way a
// browser session would: browse, add to cart as a guest, log in (the guest
// cart merges into the server one), check out.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"storefront/internal/client/api"
	"storefront/internal/client/localstore"
	"storefront/internal/client/session"
	"storefront/internal/client/store"
)

var (
	verbose bool

	logger *zap.Logger

	// wired in rootCmd's PersistentPreRunE
	local     *localstore.Store
	sess      *session.Session
	shop      *api.Client
	cartStore *store.Store
)

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Terminal storefront client",
	Long: `storefront talks to the shop API from the terminal.

Session tokens and the guest cart persist under the data directory
(STOREFRONT_DATA_DIR, default ~/.storefront), so a login survives between
invocations and a guest cart survives until it merges on login.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		local, err = localstore.New(dataDir())
		if err != nil {
			return fmt.Errorf("failed to open data dir: %w", err)
		}

		baseURL := envOr("STOREFRONT_API_URL", "http://localhost:8080")
		mediaURL := envOr("STOREFRONT_MEDIA_URL", baseURL)

		sess = session.New(local, baseURL, &http.Client{Timeout: 15 * time.Second}, logger)
		sess.Rehydrate()

		shop = api.New(baseURL, mediaURL, sess, logger)
		cartStore = store.New(local, shop, sess.IsAuthenticated, func(msg string) {
			fmt.Println("! " + msg)
		}, logger)
		sess.OnLogout(cartStore.ResetLocal)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func dataDir() string {
	if v := os.Getenv("STOREFRONT_DATA_DIR"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".storefront"
	}
	return filepath.Join(home, ".storefront")
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

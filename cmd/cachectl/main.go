package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"media-lightbox/internal/cache"
	"media-lightbox/internal/database"
	"media-lightbox/internal/startup"
)

// Default timeout for cache operations
const defaultTimeout = 30 * time.Second

var errAborted = errors.New("purge aborted")

// options select the cache to operate on.
type options struct {
	backend       string
	cacheDir      string
	redisAddr     string
	redisPassword string
	redisDB       int
}

// maintainer is a cache that can be inspected and emptied.
type maintainer interface {
	Backend() string
	GetStats(ctx context.Context) (cache.Stats, error)
	CleanExpired(ctx context.Context) (int64, error)
	Purge(ctx context.Context) (int64, error)
	Close() error
}

type opener func(ctx context.Context, opts options) (maintainer, error)

type sqliteCache struct {
	*database.Database
}

func (s sqliteCache) CleanExpired(ctx context.Context) (int64, error) {
	return s.CleanExpiredEntries(ctx)
}

// Purge empties the table and gives the space back to the filesystem.
func (s sqliteCache) Purge(ctx context.Context) (int64, error) {
	n, err := s.Database.Purge(ctx)
	if err != nil {
		return n, err
	}
	return n, s.Vacuum(ctx)
}

type redisCache struct {
	*cache.RedisStore
}

func (r redisCache) GetStats(ctx context.Context) (cache.Stats, error) {
	return r.Stats(ctx)
}

// CleanExpired is a no-op: redis expires keys itself.
func (r redisCache) CleanExpired(context.Context) (int64, error) {
	return 0, nil
}

func openCache(ctx context.Context, opts options) (maintainer, error) {
	switch opts.backend {
	case "sqlite":
		path := filepath.Join(opts.cacheDir, startup.DatabaseFile)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("no cache database at %s: %w", path, err)
		}
		db, err := database.New(ctx, path)
		if err != nil {
			return nil, err
		}
		return sqliteCache{db}, nil
	case "redis":
		rs, err := cache.NewRedisStore(ctx, opts.redisAddr, opts.redisPassword, opts.redisDB)
		if err != nil {
			return nil, err
		}
		return redisCache{rs}, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", opts.backend)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) //nolint:gosec // fd fits in int
}

// newRootCmd builds the command tree. open connects to the cache and
// isTerminal decides whether purge may prompt.
func newRootCmd(open opener, isTerminal func() bool) *cobra.Command {
	defaults := startup.DefaultConfig()
	opts := options{}

	root := &cobra.Command{
		Use:           "cachectl",
		Short:         "Inspect and maintain the media lightbox API cache",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.backend, "backend", strings.ToLower(envOr("CACHE_BACKEND", defaults.CacheBackend)), "cache backend (sqlite or redis)")
	flags.StringVar(&opts.cacheDir, "cache-dir", envOr("CACHE_DIR", defaults.CacheDir), "directory holding the sqlite cache")
	flags.StringVar(&opts.redisAddr, "redis-addr", os.Getenv("REDIS_ADDR"), "redis address")
	flags.StringVar(&opts.redisPassword, "redis-password", os.Getenv("REDIS_PASSWORD"), "redis password")
	flags.IntVar(&opts.redisDB, "redis-db", envIntOr("REDIS_DB", 0), "redis database")

	withCache := func(cmd *cobra.Command, fn func(ctx context.Context, c maintainer) error) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), defaultTimeout)
		defer cancel()

		c, err := open(ctx, opts)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer func() {
			if err := c.Close(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to close cache: %v\n", err)
			}
		}()
		return fn(ctx, c)
	}

	root.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show cache entry counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCache(cmd, func(ctx context.Context, c maintainer) error {
				stats, err := c.GetStats(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Backend:  %s\n", c.Backend())
				fmt.Fprintf(out, "Entries:  %d\n", stats.Entries)
				fmt.Fprintf(out, "Expired:  %d\n", stats.ExpiredEntries)
				fmt.Fprintf(out, "Size:     %d bytes\n", stats.Bytes)
				return nil
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "clean",
		Short: "Remove expired cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCache(cmd, func(ctx context.Context, c maintainer) error {
				n, err := c.CleanExpired(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries.\n", n)
				return nil
			})
		},
	})

	var yes bool
	purge := &cobra.Command{
		Use:   "purge",
		Short: "Remove every cache entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				if !isTerminal() {
					return errors.New("refusing to purge without --yes when stdin is not a terminal")
				}
				if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Remove every cached API response?") {
					return errAborted
				}
			}
			return withCache(cmd, func(ctx context.Context, c maintainer) error {
				n, err := c.Purge(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries.\n", n)
				return nil
			})
		},
	}
	purge.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	root.AddCommand(purge)

	return root
}

// confirm asks a yes/no question. Anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(openCache, stdinIsTerminal).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

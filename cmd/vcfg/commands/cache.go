package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-vir-cfg/internal/config"
	"github.com/l3aro/go-vir-cfg/internal/scanner"
	"github.com/l3aro/go-vir-cfg/pkg/cache"
	"github.com/l3aro/go-vir-cfg/pkg/cfg"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the snapshot cache",
		Long: `Manage the cache of encoded graphs kept at cache_path.

The cache holds at most cache_max_entries methods keyed by name; the least
recently used method is evicted first.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached methods, least recently used first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCacheList(cmd.OutOrStdout())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "put <file.yaml|dir>...",
		Short: "Build descriptions and store them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCachePut(cmd.OutOrStdout(), args)
		},
	})
	show := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a cached method",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listing, _ := cmd.Flags().GetBool("listing")
			return a.runCacheShow(cmd.OutOrStdout(), args[0], listing)
		},
	}
	show.Flags().Bool("listing", false, "Print a block listing instead of YAML")
	cmd.AddCommand(show)
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <name>...",
		Short: "Remove methods from the cache",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCacheRemove(cmd.OutOrStdout(), args)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached method",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCacheClear(cmd.OutOrStdout())
		},
	})
	return cmd
}

func (a *app) openCache() (*cache.MethodCache, error) {
	mc := cache.New(cache.Options{MaxEntries: a.cfg.CacheMaxEntries, Logger: a.logger})
	if err := cache.LoadFromFile(mc, a.cfg.CachePath); err != nil {
		return nil, fmt.Errorf("loading cache: %w", err)
	}
	return mc, nil
}

func (a *app) saveCache(mc *cache.MethodCache) error {
	if err := cache.PersistToFile(mc, a.cfg.CachePath); err != nil {
		return fmt.Errorf("saving cache: %w", err)
	}
	return nil
}

func (a *app) runCacheList(w io.Writer) error {
	mc, err := a.openCache()
	if err != nil {
		return err
	}
	entries := mc.Entries()

	if a.cfg.OutputFormat == config.OutputJSON {
		return writeJSON(w, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintf(w, "Cache is empty (%s)\n", a.cfg.CachePath)
		return nil
	}
	fmt.Fprintf(w, "%d cached methods (%s):\n", len(entries), a.cfg.CachePath)
	for _, e := range entries {
		fmt.Fprintf(w, "  %-24s %3d blocks  %s  %s\n", e.Name, e.Blocks, e.Digest[:12], e.StoredAt.Format(time.RFC3339))
	}
	return nil
}

func (a *app) runCachePut(w io.Writer, args []string) error {
	files, err := scanner.Expand(args, scanner.KindDescription)
	if err != nil {
		return err
	}
	mc, err := a.openCache()
	if err != nil {
		return err
	}
	for _, f := range files {
		m, err := a.load(f)
		if err != nil {
			return err
		}
		if err := mc.Put(m); err != nil {
			return err
		}
		fmt.Fprintf(w, "Stored %s (%d blocks)\n", m.Name(), m.Len())
	}
	return a.saveCache(mc)
}

func (a *app) runCacheShow(w io.Writer, name string, listing bool) error {
	mc, err := a.openCache()
	if err != nil {
		return err
	}
	m, err := mc.Get(name, cfg.WithLogger(a.logger))
	if err != nil {
		return err
	}
	if listing {
		printMethod(w, m)
		return nil
	}
	return writeMethod(w, a.cfg.OutputFormat, "", m)
}

func (a *app) runCacheRemove(w io.Writer, names []string) error {
	mc, err := a.openCache()
	if err != nil {
		return err
	}
	for _, name := range names {
		if !mc.Delete(name) {
			return fmt.Errorf("method %s: %w", name, cache.ErrKeyNotFound)
		}
		fmt.Fprintf(w, "Removed %s\n", name)
	}
	return a.saveCache(mc)
}

func (a *app) runCacheClear(w io.Writer) error {
	mc, err := a.openCache()
	if err != nil {
		return err
	}
	n := mc.Len()
	mc.Clear()
	if err := a.saveCache(mc); err != nil {
		return err
	}
	fmt.Fprintf(w, "Removed %d cached methods\n", n)
	return nil
}

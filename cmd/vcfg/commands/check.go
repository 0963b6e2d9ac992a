package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-vir-cfg/internal/config"
	"github.com/l3aro/go-vir-cfg/internal/scanner"
	"github.com/l3aro/go-vir-cfg/pkg/cache"
	"github.com/l3aro/go-vir-cfg/pkg/cfg"
	"github.com/l3aro/go-vir-cfg/pkg/desc"
)

func newCheckCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file.yaml|dir>...",
		Short: "Build method descriptions and report problems",
		Long: `Build each method description and report blocks without a successor,
the cycle verdict and blocks not reachable from the entry block.

Exits non-zero if any description fails to build or leaves a successor
undefined. Cycles and unreachable blocks are reported but do not fail the
check unless --acyclic is given.

Directories are searched recursively for *.yaml and *.yml descriptions,
honoring .vcfgignore files.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acyclic, _ := cmd.Flags().GetBool("acyclic")
			store, _ := cmd.Flags().GetBool("cache")
			return a.runCheck(cmd.OutOrStdout(), args, acyclic, store)
		},
	}
	cmd.Flags().Bool("acyclic", false, "Fail if a graph contains a cycle")
	cmd.Flags().Bool("cache", false, "Store every valid graph in the snapshot cache")
	return cmd
}

// load parses and builds the description at path. Labels reserved in the
// configuration are added to the ones the description reserves itself.
func (a *app) load(path string) (*cfg.Method, error) {
	doc, err := desc.ParseFile(path)
	if err != nil {
		return nil, err
	}
	for _, l := range a.cfg.ReservedLabels {
		if !contains(doc.ReservedLabels, l) {
			doc.ReservedLabels = append(doc.ReservedLabels, l)
		}
	}
	m, err := doc.Build(cfg.WithLogger(a.logger))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.logger.Debug("built method", "file", path, "name", m.Name(), "blocks", m.Len())
	return m, nil
}

func (a *app) runCheck(w io.Writer, args []string, acyclic, store bool) error {
	files, err := scanner.Expand(args, scanner.KindDescription)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no method descriptions found")
	}

	var mc *cache.MethodCache
	if store {
		mc = cache.New(cache.Options{MaxEntries: a.cfg.CacheMaxEntries, Logger: a.logger})
		if err := cache.LoadFromFile(mc, a.cfg.CachePath); err != nil {
			return fmt.Errorf("loading cache: %w", err)
		}
	}

	var reports []methodReport
	failed := 0
	for _, f := range files {
		m, err := a.load(f)
		if err != nil {
			failed++
			reports = append(reports, methodReport{File: f, Error: err.Error()})
			continue
		}
		r := newReport(f, m)
		if r.Error == "" && acyclic && r.HasCycle {
			r.Error = "graph contains a cycle"
		}
		if r.Error != "" {
			failed++
		} else if mc != nil {
			if err := mc.Put(m); err != nil {
				return err
			}
		}
		reports = append(reports, r)
	}

	if mc != nil {
		if err := cache.PersistToFile(mc, a.cfg.CachePath); err != nil {
			return fmt.Errorf("saving cache: %w", err)
		}
		a.logger.Info("cache updated", "path", a.cfg.CachePath, "entries", mc.Len())
	}

	if a.cfg.OutputFormat == config.OutputJSON {
		if err := writeJSON(w, reports); err != nil {
			return err
		}
	} else {
		for _, r := range reports {
			printReport(w, r)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d methods failed the check", failed, len(files))
	}
	return nil
}

func printReport(w io.Writer, r methodReport) {
	if r.Name == "" {
		fmt.Fprintf(w, "✗ %s\n  %s\n", r.File, r.Error)
		return
	}
	icon := "✓"
	if r.Error != "" {
		icon = "✗"
	}
	fmt.Fprintf(w, "%s %s (%s): %d blocks\n", icon, r.Name, r.File, r.Blocks)
	if r.Error != "" {
		fmt.Fprintf(w, "  %s\n", r.Error)
	}
	if r.HasCycle {
		fmt.Fprintln(w, "  cycle: yes")
	} else {
		fmt.Fprintln(w, "  cycle: no")
	}
	for _, l := range r.Unreachable {
		fmt.Fprintf(w, "  unreachable: %s\n", l)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

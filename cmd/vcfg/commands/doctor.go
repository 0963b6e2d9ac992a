package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-vir-cfg/internal/config"
	"github.com/l3aro/go-vir-cfg/internal/healthcheck"
)

func newDoctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run health checks on configuration and cache",
		Long: `Checks the configuration and verifies that the snapshot cache can be
read and that every cached method matches its digest.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, configPath, err := loadConfigWithPath(a.configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			result, err := healthcheck.Check(c, configPath, configPath)
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}

			if a.cfg.OutputFormat == config.OutputJSON {
				if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				displayDoctorResult(cmd.OutOrStdout(), result)
			}

			if !result.OK() {
				return fmt.Errorf("health check failed: configuration or cache needs attention")
			}
			return nil
		},
	}
}

// loadConfigWithPath loads explicit if set, else the project config, else
// the global one.
func loadConfigWithPath(explicit string) (*config.Config, string, error) {
	effectivePath := explicit
	if effectivePath == "" {
		projectConfigPath := config.ProjectConfigPath()
		globalConfigPath := config.GlobalConfigPath()

		switch {
		case fileExists(projectConfigPath):
			effectivePath = projectConfigPath
		case fileExists(globalConfigPath):
			effectivePath = globalConfigPath
		default:
			return nil, "", fmt.Errorf("no configuration found\n"+
				"Checked paths:\n"+
				"  - %s (project)\n"+
				"  - %s (global)\n"+
				"Run 'vcfg init' to create a configuration file",
				projectConfigPath, globalConfigPath)
		}
	}

	c, err := config.LoadFromFile(effectivePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config from %s: %w", effectivePath, err)
	}
	return c, effectivePath, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func displayDoctorResult(w io.Writer, result *healthcheck.HealthCheckResult) {
	fmt.Fprintf(w, "Using config: %s (%s)\n\n", result.EffectivePath, result.EffectiveScope)

	fmt.Fprintln(w, "Reserved labels:")
	if len(result.InvalidLabels) == 0 {
		fmt.Fprintf(w, "  Status: %s ok\n", formatStatusIcon("ready"))
	} else {
		for _, l := range result.InvalidLabels {
			fmt.Fprintf(w, "  %s %q can never be used by a block\n", formatStatusIcon("error"), l)
		}
	}

	fmt.Fprintln(w)
	displayCacheStatus(w, result.Cache)
}

func displayCacheStatus(w io.Writer, s healthcheck.CacheStatus) {
	fmt.Fprintln(w, "Snapshot Cache:")
	fmt.Fprintf(w, "  Path: %s\n", s.Path)
	fmt.Fprintf(w, "  Status: %s %s\n", formatStatusIcon(s.Status), s.Status)
	if s.Status == "ready" {
		fmt.Fprintf(w, "  Entries: %d\n", s.Entries)
	}
	for _, name := range s.Corrupt {
		fmt.Fprintf(w, "  %s %s does not match its digest\n", formatStatusIcon("error"), name)
	}
	if s.Error != "" && s.Status == "error" {
		fmt.Fprintf(w, "  Error: %s\n", s.Error)
	}
}

func formatStatusIcon(status string) string {
	switch status {
	case "ready":
		return "✓"
	case "missing":
		return "○"
	case "error":
		return "✗"
	default:
		return "?"
	}
}

package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-vir-cfg/internal/config"
	"github.com/l3aro/go-vir-cfg/internal/healthcheck"
	"github.com/l3aro/go-vir-cfg/pkg/cfg"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize vcfg configuration interactively",
		Long: `Guides you through setting up vcfg configuration step by step.
Creates a config file with reserved labels, output and cache settings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.OutOrStdout())
		},
	}
}

func runInit(w io.Writer) error {
	c := config.DefaultConfig()

	// === SECTION 1: Graph construction ===
	reserved := ""
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Reserved labels").
				Description("Comma separated labels no block or statement may use (optional)").
				Placeholder("pre, post").
				Validate(validateLabelList).
				Value(&reserved),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	c.ReservedLabels = splitLabels(reserved)

	// === SECTION 2: Output and logging ===
	format := string(c.OutputFormat)
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Output format").
				Description("Default output of decode and cache show").
				Options(
					huh.NewOption("YAML description", string(config.OutputText)),
					huh.NewOption("JSON report", string(config.OutputJSON)),
					huh.NewOption("Graphviz DOT", string(config.OutputDOT)),
				).
				Value(&format),
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("Debug", "debug"),
					huh.NewOption("Info", "info"),
					huh.NewOption("Warn", "warn"),
					huh.NewOption("Error", "error"),
				).
				Value(&c.LogLevel),
			huh.NewConfirm().
				Title("Log as JSON?").
				Value(&c.LogJSON),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	c.OutputFormat = config.OutputFormat(format)

	// === SECTION 3: Snapshot cache ===
	maxEntries := strconv.Itoa(c.CacheMaxEntries)
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Cache file").
				Placeholder(c.CachePath).
				Value(&c.CachePath),
			huh.NewInput().
				Title("Maximum cached methods").
				Placeholder("256").
				Validate(func(s string) error {
					if n, err := strconv.Atoi(s); err != nil || n <= 0 {
						return fmt.Errorf("must be a positive number")
					}
					return nil
				}).
				Value(&maxEntries),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	c.CacheMaxEntries, _ = strconv.Atoi(maxEntries)

	// === SECTION 4: Config Location ===
	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Global (~/.vcfg/config.yaml)", "global"),
					huh.NewOption("Project (./.vcfg/config.yaml)", "project"),
				).
				Value(&saveLocationChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	configPath := config.ProjectConfigPath()
	if saveLocationChoice == "global" {
		configPath = config.GlobalConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Fprintln(w, "Cancelled.")
			return nil
		}
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	fmt.Fprintln(w, "\n=== Configuration Preview ===")
	fmt.Fprintf(w, "Config path: %s\n", configPath)
	if len(c.ReservedLabels) > 0 {
		fmt.Fprintf(w, "Reserved labels: %s\n", strings.Join(c.ReservedLabels, ", "))
	} else {
		fmt.Fprintln(w, "Reserved labels: (none)")
	}
	fmt.Fprintf(w, "Output format: %s\n", c.OutputFormat)
	fmt.Fprintf(w, "Log level: %s (json: %v)\n", c.LogLevel, c.LogJSON)
	fmt.Fprintf(w, "Cache: %s (max %d methods)\n", c.CachePath, c.CacheMaxEntries)
	fmt.Fprintln(w, "================================")

	if err := c.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintf(w, "Configuration saved to: %s\n", configPath)

	// === SECTION 5: Health Check ===
	fmt.Fprintln(w, "\n=== Running Health Check ===")

	loaded, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading saved config: %w", err)
	}
	result, err := healthcheck.Check(loaded, configPath, configPath)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	fmt.Fprintf(w, "\nConfig Scope: %s\n", result.SavedScope)
	if result.SavedScope == "global" {
		fmt.Fprintf(w, "Config Path: %s\n", configPath)
	} else {
		absPath, _ := filepath.Abs(configPath)
		fmt.Fprintf(w, "Config Path: %s\n", absPath)
	}
	displayCacheStatus(w, result.Cache)

	fmt.Fprintln(w, "\n=== Initialization Complete ===")
	return nil
}

func splitLabels(s string) []string {
	var res []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			res = append(res, p)
		}
	}
	return res
}

func validateLabelList(s string) error {
	for _, l := range splitLabels(s) {
		if !cfg.ValidLabel(l) {
			return fmt.Errorf("%q is not a valid label", l)
		}
		if l == cfg.ReturnLabel {
			return fmt.Errorf("%s is always reserved", l)
		}
	}
	return nil
}

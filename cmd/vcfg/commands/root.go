// Package commands provides the CLI commands for the vcfg tool.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-vir-cfg/internal/config"
	"github.com/l3aro/go-vir-cfg/internal/log"
)

// app carries the state shared by every command of one invocation.
type app struct {
	cfg        *config.Config
	configPath string
	logger     log.Logger
}

// NewRootCmd builds the vcfg command tree.
func NewRootCmd() *cobra.Command {
	a := &app{logger: log.Nop()}

	root := &cobra.Command{
		Use:   "vcfg",
		Short: "vcfg - build and inspect method control flow graphs",
		Long: `vcfg builds control flow graphs from YAML method descriptions and
inspects them.

Commands:
  check       Build descriptions and report incomplete or cyclic graphs
  preds       Show the predecessors of blocks
  dot         Render a graph in Graphviz DOT format
  encode      Write a graph snapshot in msgpack format
  decode      Read a graph snapshot back into a description
  cache       Manage the snapshot cache
  init        Create a configuration file interactively
  doctor      Check configuration and cache health

Use "vcfg [command] --help" for more information about a command.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().String("config", "", "Config file path (default: project, then global)")
	root.PersistentFlags().BoolP("json", "j", false, "Output as JSON")
	root.PersistentFlags().BoolP("verbose", "V", false, "Verbose logging")

	root.AddCommand(
		newCheckCmd(a),
		newPredsCmd(a),
		newDotCmd(a),
		newEncodeCmd(a),
		newDecodeCmd(a),
		newCacheCmd(a),
		newInitCmd(a),
		newDoctorCmd(a),
	)
	return root
}

// setup loads the configuration and configures logging.
func (a *app) setup(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")

	var err error
	if path != "" {
		a.cfg, err = config.LoadFromFile(path)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.configPath = path

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		a.cfg.Verbose = true
	}
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		a.cfg.OutputFormat = config.OutputJSON
	}

	a.logger = log.New(log.LoggerConfig{
		Level:      a.cfg.Level(),
		JSONOutput: a.cfg.LogJSON,
		Output:     cmd.ErrOrStderr(),
	})
	a.logger.Debug("config loaded", "path", path, "format", a.cfg.OutputFormat)
	return nil
}

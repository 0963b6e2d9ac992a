package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newDotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dot <file.yaml>",
		Short: "Render a graph in Graphviz DOT format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("output")
			return a.runDot(cmd.OutOrStdout(), args[0], out)
		},
	}
	cmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func (a *app) runDot(w io.Writer, file, out string) error {
	m, err := a.load(file)
	if err != nil {
		return err
	}
	data, err := m.MarshalDOT()
	if err != nil {
		return fmt.Errorf("rendering %s: %w", m.Name(), err)
	}
	data = append(data, '\n')

	if out == "" {
		_, err = w.Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	a.logger.Info("wrote graph", "path", out)
	return nil
}

package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-vir-cfg/internal/config"
	"github.com/l3aro/go-vir-cfg/pkg/cfg"
)

func newPredsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "preds <file.yaml> [label]",
		Short: "Show block predecessors",
		Long: `Show the predecessors of one block, or of every block if no label is
given. A block reached by several edges from the same predecessor is listed
once per edge.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			label := ""
			if len(args) == 2 {
				label = args[1]
			}
			return a.runPreds(cmd.OutOrStdout(), args[0], label)
		},
	}
}

func (a *app) runPreds(w io.Writer, file, label string) error {
	m, err := a.load(file)
	if err != nil {
		return err
	}

	preds := predecessorsByLabel(m)
	if label != "" {
		idx, ok := m.Lookup(label)
		if !ok {
			return fmt.Errorf("no block labeled %q in %s", label, m.Name())
		}
		preds = map[string][]string{label: labels(m, m.PredecessorsOf(idx))}
	}

	if a.cfg.OutputFormat == config.OutputJSON {
		return writeJSON(w, preds)
	}
	for _, l := range m.BlockLabels() {
		ps, ok := preds[l]
		if !ok {
			continue
		}
		if len(ps) == 0 {
			fmt.Fprintf(w, "%s: (none)\n", l)
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", l, strings.Join(ps, ", "))
	}
	return nil
}

func labels(m *cfg.Method, indices []cfg.BlockIndex) []string {
	res := make([]string, 0, len(indices))
	for _, idx := range indices {
		res = append(res, m.BlockLabel(idx))
	}
	return res
}

package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-vir-cfg/pkg/cfg"
)

func newEncodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "encode <file.yaml> <out.msgpack>",
		Short: "Write a graph snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEncode(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func (a *app) runEncode(w io.Writer, in, out string) error {
	m, err := a.load(in)
	if err != nil {
		return err
	}
	data, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Fprintf(w, "Encoded %s (%d blocks, %d bytes) to %s\n", m.Name(), m.Len(), len(data), out)
	return nil
}

func newDecodeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <in.msgpack>",
		Short: "Read a graph snapshot",
		Long: `Read a graph snapshot and print it as a method description, or as a
JSON report with --json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listing, _ := cmd.Flags().GetBool("listing")
			return a.runDecode(cmd.OutOrStdout(), args[0], listing)
		},
	}
	cmd.Flags().Bool("listing", false, "Print a block listing instead of YAML")
	return cmd
}

func (a *app) runDecode(w io.Writer, in string, listing bool) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", in, err)
	}
	m, err := cfg.Unmarshal(data, cfg.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	if listing {
		printMethod(w, m)
		return nil
	}
	return writeMethod(w, a.cfg.OutputFormat, in, m)
}

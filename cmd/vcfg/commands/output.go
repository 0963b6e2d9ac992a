package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/l3aro/go-vir-cfg/internal/config"
	"github.com/l3aro/go-vir-cfg/pkg/cfg"
	"github.com/l3aro/go-vir-cfg/pkg/desc"
)

// methodReport is the JSON shape of a checked method.
type methodReport struct {
	File         string              `json:"file,omitempty"`
	Name         string              `json:"name"`
	Blocks       int                 `json:"blocks"`
	Labels       []string            `json:"labels"`
	Predecessors map[string][]string `json:"predecessors"`
	HasCycle     bool                `json:"has_cycle"`
	Unreachable  []string            `json:"unreachable,omitempty"`
	Error        string              `json:"error,omitempty"`
}

func newReport(file string, m *cfg.Method) methodReport {
	r := methodReport{
		File:         file,
		Name:         m.Name(),
		Blocks:       m.Len(),
		Labels:       m.BlockLabels(),
		Predecessors: predecessorsByLabel(m),
		HasCycle:     m.HasCycle(),
	}
	for _, idx := range m.UnreachableBlocks() {
		r.Unreachable = append(r.Unreachable, m.BlockLabel(idx))
	}
	if err := m.Validate(); err != nil {
		r.Error = err.Error()
	}
	return r
}

// predecessorsByLabel maps every block label to the labels of its
// predecessors, one entry per edge.
func predecessorsByLabel(m *cfg.Method) map[string][]string {
	labels := m.BlockLabels()
	res := make(map[string][]string, len(labels))
	for _, l := range labels {
		res[l] = []string{}
	}
	for target, preds := range m.AllPredecessors() {
		for _, p := range preds {
			res[labels[target]] = append(res[labels[target]], labels[p])
		}
	}
	return res
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// writeMethod prints m in the configured output format.
func writeMethod(w io.Writer, format config.OutputFormat, file string, m *cfg.Method) error {
	switch format {
	case config.OutputJSON:
		return writeJSON(w, newReport(file, m))
	case config.OutputDOT:
		data, err := m.MarshalDOT()
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	}
	doc, err := desc.FromMethod(m)
	if err != nil {
		return err
	}
	data, err := doc.Marshal()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// printMethod prints a human readable listing of m.
func printMethod(w io.Writer, m *cfg.Method) {
	fmt.Fprintf(w, "=== Method: %s ===\n", m.Name())
	fmt.Fprintf(w, "Formal args: %d\n", m.FormalArgCount())
	for _, v := range m.FormalReturns() {
		fmt.Fprintf(w, "Return: %s\n", v)
	}
	for _, v := range m.LocalVariables() {
		fmt.Fprintf(w, "Local: %s\n", v)
	}
	fmt.Fprintf(w, "\nBlocks (%d):\n", m.Len())
	for _, idx := range m.Indices() {
		fmt.Fprintf(w, "  %s %s:\n", idx, m.BlockLabel(idx))
		for _, s := range m.Block(idx).Statements() {
			fmt.Fprintf(w, "    %s\n", s)
		}
		fmt.Fprintf(w, "    -> %s\n", describeSuccessor(m, m.Successor(idx)))
	}
}

func describeSuccessor(m *cfg.Method, s cfg.Successor) string {
	switch s := s.(type) {
	case cfg.Goto:
		return "goto " + m.BlockLabel(s.Target)
	case cfg.GotoSwitch:
		out := "switch {"
		for _, c := range s.Cases {
			out += fmt.Sprintf(" %s => %s;", c.Guard, m.BlockLabel(c.Target))
		}
		return out + " default => " + m.BlockLabel(s.Default) + " }"
	}
	return s.String()
}

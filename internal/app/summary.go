package app

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/vk/dagflow/internal/pipeline"
	"github.com/vk/dagflow/internal/task"
)

// writeSummary prints one row per task in execution order.
func writeSummary(w io.Writer, p *pipeline.Pipeline) error {
	order, err := p.DAG().TopologicalSort()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tFUNC\tSTATUS\tRESULT")
	for _, id := range order {
		for _, t := range p.DAG().Tasks(id) {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", displayName(t), t.FuncName, t.Status(), outcome(t))
		}
	}
	return tw.Flush()
}

func displayName(t *task.Task) string {
	if t.Name != "" {
		return t.Name
	}
	return t.TID
}

func outcome(t *task.Task) string {
	if err := t.Err(); err != nil {
		return "error: " + err.Error()
	}
	if res, ok := t.Result(); ok {
		return fmt.Sprint(res)
	}
	return "-"
}

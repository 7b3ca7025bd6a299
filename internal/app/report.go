package app

import (
	"fmt"
	"os"
	"strings"

	"segrag/internal/rse"
)

// Report is one answered question with its supporting evidence.
type Report struct {
	Question    string
	Evidence    []rse.Evidence
	Answer      string
	ProcessedAt string
}

// appendReport appends a markdown report section to the output file.
func appendReport(r *Report, outputPath string) error {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("# Question: %s\n\n", r.Question))
	buf.WriteString(fmt.Sprintf("**Answered at:** %s\n\n", r.ProcessedAt))

	buf.WriteString("## Evidence\n\n")
	for i, ev := range r.Evidence {
		buf.WriteString(fmt.Sprintf("### %d. %s chunks [%d,%d) (value: %.2f)\n\n", i+1, ev.DocID, ev.Start, ev.End, ev.Value))
		buf.WriteString(ev.Text)
		buf.WriteString("\n\n")
	}

	buf.WriteString("## Answer\n\n")
	buf.WriteString(r.Answer)
	buf.WriteString("\n\n---\n\n")

	f, err := os.OpenFile(outputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(buf.String())
	return err
}

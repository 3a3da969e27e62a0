package insight

import (
	"fmt"
	"strings"
)

const chatSystemPrompt = `You are a helpful data analysis assistant. You help users understand their data, explore it with pivot tables and charts, and interpret the patterns they find.

Explain analysis concepts plainly, suggest next steps (pivots, filters, charts) and keep answers concise but informative. If you lack context about the user's data, ask a clarifying question.`

const documentSystemPrompt = `You are a data analyst. Analyze the dataset described by the user and answer their request.

Always respond with a single valid JSON object with these fields:
- analysis: detailed text analysis (string)
- insights: key findings and patterns (array of strings)
- recommendations: actionable suggestions (array of strings)
- visualData: optional chart or table data (object)
- format: the primary response format ("text", "table", "chart" or "mixed")

visualData uses one of these shapes:
- chart: {"type": "bar|line|pie", "data": [{"name": "Category", "value": 123}]}
- table: {"tableData": {"headers": ["Header1", "Header2"], "rows": [["Data1", "Data2"]]}}`

func documentUserPrompt(req Request, dataContext string) string {
	var b strings.Builder
	command := strings.TrimSpace(req.Command)
	if command == "" {
		command = "Analyze the uploaded data"
	}
	fmt.Fprintf(&b, "User request: %q\n\n", command)
	fmt.Fprintf(&b, "Uploaded files: %d\n", len(req.Files))
	if len(req.Files) == 0 {
		b.WriteString("No files uploaded\n")
	}
	for i, f := range req.Files {
		fmt.Fprintf(&b, "File %d: %s (%s) - %.1fKB\n", i+1, f.Name, f.Type, float64(f.Size)/1024)
	}
	if dataContext != "" {
		b.WriteString("\n")
		b.WriteString(dataContext)
		b.WriteString("\n")
	}
	b.WriteString("\nGive a thorough analysis based on the request. If a chart or table is requested, include the matching visualData.")
	return b.String()
}

// Markdown renders the response for terminal output.
func (r *Response) Markdown() string {
	var b strings.Builder
	if r.Analysis != "" {
		b.WriteString(r.Analysis)
		b.WriteString("\n")
	}
	writeList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n## %s\n", title)
		for _, it := range items {
			fmt.Fprintf(&b, "- %s\n", it)
		}
	}
	writeList("Insights", r.Insights)
	writeList("Recommendations", r.Recommendations)

	if v := r.VisualData; v != nil {
		switch {
		case v.TableData != nil && len(v.TableData.Headers) > 0:
			b.WriteString("\n## Table\n")
			b.WriteString("| " + strings.Join(v.TableData.Headers, " | ") + " |\n")
			b.WriteString("|" + strings.Repeat(" --- |", len(v.TableData.Headers)) + "\n")
			for _, row := range v.TableData.Rows {
				b.WriteString("| " + strings.Join(row, " | ") + " |\n")
			}
		case len(v.Data) > 0:
			kind := v.Type
			if kind == "" {
				kind = "bar"
			}
			fmt.Fprintf(&b, "\n## Chart (%s)\n", kind)
			for _, d := range v.Data {
				fmt.Fprintf(&b, "- %s: %g\n", d.Name, d.Value)
			}
		}
	}
	return b.String()
}

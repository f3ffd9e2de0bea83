package llm

import "fmt"

// Sentinel is the exact literal the model must return, alone, when the
// document contains no tabular data.
const Sentinel = "NO_TABLES_FOUND"

// BuildPrompt creates the table-to-CSV conversion prompt embedding the
// extracted document text.
func BuildPrompt(text string) string {
	return fmt.Sprintf(`You are a data extraction expert. The text below was extracted from a PDF document, page by page.

Find ALL tabular data in the text and convert it to CSV.

RULES:
- Detect every region of the text that represents a table.
- Tables split across page boundaries are one table: merge them.
- Treat the first row of each detected table as its header row.
- Discard all non-tabular prose, headings, footers, and page numbers.
- Follow standard CSV quoting: wrap fields containing commas, newlines, or double quotes in double quotes, and escape embedded double quotes by doubling them.
- Cell contents spanning multiple lines must be quoted.
- Separate multiple distinct tables with exactly one blank line.
- If there is no tabular data anywhere in the text, respond with exactly %s and nothing else.

OUTPUT FORMAT (CRITICAL):
- Respond with ONLY raw CSV (or the %s literal).
- NO commentary, NO explanations, NO markdown code fences.

DOCUMENT TEXT:
%s`, Sentinel, Sentinel, text)
}

package bulk

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/ledgerlens/ledgerlens/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// promptBuilder renders chunk prompts from the embedded template.
type promptBuilder struct {
	tmpl *template.Template
}

func newPromptBuilder() (*promptBuilder, error) {
	funcMap := template.FuncMap{
		"formatAmount": formatAmount,
		"formatDate":   formatDate,
		"join":         strings.Join,
	}

	tmpl, err := template.New("bulk_prompt.tmpl").Funcs(funcMap).ParseFS(templateFS, "templates/bulk_prompt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse bulk prompt template: %w", err)
	}
	return &promptBuilder{tmpl: tmpl}, nil
}

// promptData is the template input for one chunk.
type promptData struct {
	Context      analysisContext
	Taxonomy     model.Taxonomy
	Transactions []model.Transaction
}

// build renders the prompt for one chunk.
func (pb *promptBuilder) build(data promptData) (string, error) {
	var buf bytes.Buffer
	if err := pb.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render bulk prompt: %w", err)
	}
	return buf.String(), nil
}

func formatAmount(amount float64) string {
	if amount < 0 {
		return fmt.Sprintf("-$%.2f", -amount)
	}
	return fmt.Sprintf("$%.2f", amount)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format("2006-01-02")
}

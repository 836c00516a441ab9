package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"github.com/cianhughes/bank-analyzer/internal/domain"
	"github.com/cianhughes/bank-analyzer/internal/extractor"
)

// DefaultModelName is the Gemini model used by the fallback parser.
const DefaultModelName = "gemini-2.5-flash"

const modelPrompt = "You are a parser for bank statements.\n\n" +
	"Task:\n" +
	"- Extract ALL debit (money out) transactions from the attached statement.\n" +
	"- Ignore credits, top-ups, deposits and transfers in.\n" +
	"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
	"- Output a JSON array of objects.\n\n" +
	"Each object must have these fields:\n" +
	"- \"date\": string, ISO format \"YYYY-MM-DD\"\n" +
	"- \"description\": string\n" +
	"- \"amount\": number, the positive gross amount\n\n" +
	"Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Do NOT use ```json or any Markdown.\n" +
	"Output must begin with \"[\" and end with \"]\".\n"

// GeminiParser is a ModelParser backed by the Gemini API. It is consulted
// only when the heuristic parser finds no transactions; statements with
// scanned pages or exotic layouts land here.
type GeminiParser struct {
	client *genai.Client
	model  string
	log    zerolog.Logger
}

// NewGeminiParser creates a Gemini-backed fallback parser. Credentials come
// from the environment, as for the other Google clients.
func NewGeminiParser(ctx context.Context, log zerolog.Logger) (*GeminiParser, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiParser{client: client, model: DefaultModelName, log: log}, nil
}

type modelTransaction struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// ParseStatement sends the document to the model and converts its JSON
// answer into raw transactions. Rows with unparseable dates or non-positive
// amounts are dropped with a warning.
func (p *GeminiParser) ParseStatement(ctx context.Context, data []byte, kind extractor.Kind) ([]domain.RawTransaction, error) {
	parts := []*genai.Part{{Text: modelPrompt}}
	if kind == extractor.KindPDF {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: "application/pdf", Data: data},
		})
	} else {
		parts = append(parts, &genai.Part{Text: string(data)})
	}

	contents := []*genai.Content{{Role: "user", Parts: parts}}
	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	var rows []modelTransaction
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &rows); err != nil {
		return nil, fmt.Errorf("unmarshal model JSON: %w", err)
	}

	txs := make([]domain.RawTransaction, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse(domain.DateLayout, row.Date)
		if err != nil {
			p.log.Warn().Str("date", row.Date).Msg("model row has unparseable date, dropped")
			continue
		}
		if row.Amount <= 0 {
			p.log.Warn().Float64("amount", row.Amount).Msg("model row has non-positive amount, dropped")
			continue
		}
		desc := strings.TrimSpace(row.Description)
		if r := []rune(desc); len(r) > domain.MaxDescriptionLen {
			desc = string(r[:domain.MaxDescriptionLen])
		}
		txs = append(txs, domain.RawTransaction{
			Date:        date,
			Month:       date.Format(domain.MonthLayout),
			Description: desc,
			GrossAmount: decimal.NewFromFloat(row.Amount).Round(2).InexactFloat64(),
		})
	}
	return txs, nil
}

// cleanModelJSON strips Markdown fences and surrounding prose when the model
// ignores the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}

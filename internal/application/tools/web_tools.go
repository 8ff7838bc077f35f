package tools

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/ports"
)

// searchResultsReported caps how many results are echoed back to the model
const searchResultsReported = 3

// ErrEmailDeliveryFailed is reported when the mailer rejected a message. The
// attempt is still recorded in the email log.
var ErrEmailDeliveryFailed = errors.New("email delivery failed")

type sendEmailParams struct {
	Recipient string `json:"recipient" validate:"required,email"`
	Subject   string `json:"subject" validate:"required,max=998"`
	Body      string `json:"body" validate:"required"`
}

type searchWebParams struct {
	Query      string `json:"query" validate:"required,max=500"`
	MaxResults int    `json:"max_results" validate:"omitempty,min=1,max=20"`
}

type calculateParams struct {
	Expression string `json:"expression" validate:"required,max=1000"`
}

type convertCurrencyParams struct {
	Amount       *float64 `json:"amount" validate:"required,gte=0"`
	FromCurrency string   `json:"from_currency" validate:"required,len=3,alpha"`
	ToCurrency   string   `json:"to_currency" validate:"required,len=3,alpha"`
}

func emailTools(email ports.EmailService) []*Tool {
	return []*Tool{
		Define("send_email",
			"Send an email",
			object(props(
				"recipient", str("Email recipient address"),
				"subject", str("Email subject"),
				"body", str("Email body; markdown is allowed"),
			), "recipient", "subject", "body"),
			func(ctx context.Context, userID uuid.UUID, p *sendEmailParams) (map[string]any, error) {
				entry, err := email.SendEmail(ctx, userID, ports.SendEmailRequest{
					Recipient: p.Recipient,
					Subject:   p.Subject,
					Body:      p.Body,
				})
				if err != nil {
					return nil, err
				}
				if entry.Status != entities.EmailStatusSent {
					return nil, ErrEmailDeliveryFailed
				}
				return map[string]any{
					"id":        entry.ID,
					"status":    string(entry.Status),
					"recipient": entry.Recipient,
				}, nil
			}),
	}
}

func searchTools(search ports.SearchService) []*Tool {
	return []*Tool{
		Define("search_web",
			"Search the web for information. Keep queries simple and focused. Extract key search terms from user's question.",
			object(props(
				"query", str("Simple search query with 2-5 keywords. Examples: 'Python tutorials', 'FastAPI authentication', 'asyncio vs threading'. Avoid full sentences or questions."),
				"max_results", integer("How many results to fetch (default 5)"),
			), "query"),
			func(ctx context.Context, _ uuid.UUID, p *searchWebParams) (map[string]any, error) {
				resp, err := search.Search(ctx, p.Query, p.MaxResults)
				if err != nil {
					return nil, err
				}
				results := resp.Results
				if len(results) > searchResultsReported {
					results = results[:searchResultsReported]
				}
				out := make([]map[string]any, 0, len(results))
				for _, r := range results {
					out = append(out, map[string]any{"title": r.Title, "url": r.URL, "snippet": r.Snippet})
				}
				return map[string]any{"results": out}, nil
			}),
	}
}

func calculatorTools(calc ports.CalculatorService) []*Tool {
	return []*Tool{
		Define("calculate",
			"Perform mathematical calculation. Supported operators: +, -, *, /, **, %, and the functions abs(), round(), min(), max(), sum(), pow()",
			object(props(
				"expression", str("Math expression as string. Examples: '25 * 48 + 100', '0.15 * 2500', 'round(123.456, 2)'. Convert percentages to decimals."),
			), "expression"),
			func(ctx context.Context, _ uuid.UUID, p *calculateParams) (map[string]any, error) {
				v, err := calc.Calculate(ctx, p.Expression)
				if err != nil {
					return nil, err
				}
				return map[string]any{"expression": p.Expression, "result": v}, nil
			}),

		Define("convert_currency",
			"Convert currency using live exchange rates. Use 3-letter ISO currency codes.",
			object(props(
				"amount", number("Amount to convert (must be number)"),
				"from_currency", str("Source currency code (3 letters, uppercase). Common: USD, EUR, GBP, NGN, JPY, CAD, AUD"),
				"to_currency", str("Target currency code (3 letters, uppercase). Common: USD, EUR, GBP, NGN, JPY, CAD, AUD"),
			), "amount", "from_currency", "to_currency"),
			func(ctx context.Context, _ uuid.UUID, p *convertCurrencyParams) (map[string]any, error) {
				conv, err := calc.ConvertCurrency(ctx, *p.Amount, p.FromCurrency, p.ToCurrency)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"amount":           conv.Amount,
					"from_currency":    conv.FromCurrency,
					"to_currency":      conv.ToCurrency,
					"converted_amount": conv.ConvertedAmount,
					"rate":             conv.Rate,
				}, nil
			}),
	}
}

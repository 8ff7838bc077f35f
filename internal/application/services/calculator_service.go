package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskmaster/assistant/internal/domain/calculator"
	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// CalculatorService evaluates arithmetic and converts currencies
type CalculatorService struct {
	rates  ports.RateProvider
	logger *logger.Logger
}

// NewCalculatorService creates a new calculator service
func NewCalculatorService(rates ports.RateProvider, logger *logger.Logger) *CalculatorService {
	return &CalculatorService{
		rates:  rates,
		logger: logger.WithComponent("calculator"),
	}
}

// Calculate evaluates an arithmetic expression
func (s *CalculatorService) Calculate(_ context.Context, expression string) (float64, error) {
	v, err := calculator.Evaluate(expression)
	if err != nil {
		return 0, &entities.ValidationError{Msg: "invalid expression: " + err.Error(), Err: err}
	}
	return v, nil
}

// ConvertCurrency converts amount between two ISO 4217 currency codes
func (s *CalculatorService) ConvertCurrency(ctx context.Context, amount float64, from, to string) (*ports.Conversion, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if !isCurrencyCode(from) || !isCurrencyCode(to) {
		return nil, entities.Invalid("currency codes must be 3 letters, got %q and %q", from, to)
	}
	if amount < 0 {
		return nil, entities.Invalid("amount must not be negative")
	}

	conv, err := s.rates.Convert(ctx, amount, from, to)
	if err != nil {
		s.logger.Warnw("Currency conversion failed", "from", from, "to", to, "error", err)
		return nil, fmt.Errorf("currency conversion failed: %w", err)
	}
	return conv, nil
}

func isCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

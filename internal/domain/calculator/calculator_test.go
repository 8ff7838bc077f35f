package calculator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"2 + 2 * 3", 8},
		{"(10+5)*2-8/4", 28},
		{"25 * 48 + 100", 1300},
		{"0.15 * 2500", 375},
		{"7 / 2", 3.5},
		{"-7 % 3", 2},
		{"7 % -3", -2},
		{"2 ** 3 ** 2", 512},
		{"-2 ** 2", -4},
		{"2 ** -1", 0.5},
		{"--3", 3},
		{"+4", 4},
		{"1e3 + 1.5E-1", 1000.15},
		{"abs(-3.5)", 3.5},
		{"round(123.456, 2)", 123.46},
		{"round(2.5)", 2},
		{"min(4, 2, 8)", 2},
		{"max(4, 2, 8)", 8},
		{"sum(1, 2, 3, 4)", 10},
		{"sum()", 0},
		{"pow(2, 10)", 1024},
		{"ROUND(1.26, 1) * 10", 13},
		{"max(1, min(5, 3)) + abs(-(2 - 5))", 6},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Evaluate(tt.expr)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		expr   string
		target error
	}{
		{"", ErrEmptyExpression},
		{"   ", ErrEmptyExpression},
		{"1 / 0", ErrDivisionByZero},
		{"5 % (2 - 2)", ErrDivisionByZero},
		{"0 ** -1", ErrDivisionByZero},
		{"10 ** 400", ErrNotFinite},
		{"(-8) ** 0.5", ErrNotFinite},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := Evaluate(tt.expr)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestEvaluate_RejectsAnythingButArithmetic(t *testing.T) {
	for _, expr := range []string{
		"__import__('os')",
		"os.system('ls')",
		"x + 1",
		"exec(1)",
		"1 +",
		"(1 + 2",
		"1 + 2)",
		"1..2",
		"2 3",
		"abs(1, 2)",
		"pow(2)",
		"round(1.5, 0.5)",
		"1 & 2",
		"min()",
	} {
		t.Run(expr, func(t *testing.T) {
			_, err := Evaluate(expr)
			assert.Error(t, err)
		})
	}
}

func TestEvaluate_SyntaxErrorPosition(t *testing.T) {
	_, err := Evaluate("1 + $")
	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, 4, syntaxErr.Pos)
}

func TestEvaluate_Limits(t *testing.T) {
	_, err := Evaluate(strings.Repeat("(", 100) + "1" + strings.Repeat(")", 100))
	assert.Error(t, err)

	_, err = Evaluate(strings.Repeat("1+", 600) + "1")
	assert.Error(t, err)
}

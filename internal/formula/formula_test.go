package formula

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() Schema {
	return Schema{
		"win_odds":    KindNumber,
		"place_odds":  KindNumber,
		"field_size":  KindNumber,
		"form_rating": KindNumber,
		"track":       KindString,
		"scratched":   KindBool,
	}
}

func TestParseAndEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		bindings map[string]Value
		want     Value
	}{
		{
			name:     "simple comparison",
			source:   "win_odds >= 5.0",
			bindings: map[string]Value{"win_odds": Number(6.2)},
			want:     Bool(true),
		},
		{
			name:     "arithmetic precedence",
			source:   "1 + 2 * 3",
			bindings: nil,
			want:     Number(7),
		},
		{
			name:     "parenthesized",
			source:   "(1 + 2) * 3",
			bindings: nil,
			want:     Number(9),
		},
		{
			name:   "boolean combination",
			source: "win_odds > 3 and field_size <= 12",
			bindings: map[string]Value{
				"win_odds":   Number(4.5),
				"field_size": Number(10),
			},
			want: Bool(true),
		},
		{
			name:   "or with not",
			source: "not scratched or win_odds < 2",
			bindings: map[string]Value{
				"scratched": Bool(true),
				"win_odds":  Number(1.5),
			},
			want: Bool(true),
		},
		{
			name:     "string equality",
			source:   "track == 'Flemington'",
			bindings: map[string]Value{"track": String("Flemington")},
			want:     Bool(true),
		},
		{
			name:     "unary minus",
			source:   "-form_rating + 100",
			bindings: map[string]Value{"form_rating": Number(40)},
			want:     Number(60),
		},
		{
			name:   "implied probability edge",
			source: "1 / win_odds > 0.2",
			bindings: map[string]Value{
				"win_odds": Number(4.0),
			},
			want: Bool(true),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := Parse(tt.source)
			require.NoError(t, err)
			got, err := Evaluate(expr, tt.bindings)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []struct {
		source string
		pos    int
	}{
		{"win_odds >", 10},
		{"(win_odds > 3", 13},
		{"win_odds = 3", 9},
		{"3 + + 4", 4},
		{"'unterminated", 0},
		{"win_odds > 3)", 12},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			_, err := Parse(tt.source)
			require.Error(t, err)
			var syntaxErr *SyntaxError
			require.True(t, errors.As(err, &syntaxErr), "expected SyntaxError, got %T", err)
			assert.Equal(t, tt.pos, syntaxErr.Pos)
		})
	}
}

func TestValidateUnknownVariable(t *testing.T) {
	expr, err := Parse("win_odds > 3 and mystery_field < 10")
	require.NoError(t, err)

	err = Validate(expr, testSchema())
	var unknownErr *UnknownVariableError
	require.True(t, errors.As(err, &unknownErr))
	assert.Equal(t, "mystery_field", unknownErr.Name)
}

func TestValidateTypeMismatch(t *testing.T) {
	tests := []string{
		"win_odds > 'fast'",
		"track + 1",
		"scratched and win_odds",
		"track == 3",
		"not win_odds",
	}

	for _, source := range tests {
		t.Run(source, func(t *testing.T) {
			expr, err := Parse(source)
			require.NoError(t, err)
			err = Validate(expr, testSchema())
			var mismatch *TypeMismatchError
			require.True(t, errors.As(err, &mismatch), "expected TypeMismatchError, got %v", err)
		})
	}
}

func TestValidateAccepts(t *testing.T) {
	sources := []string{
		"win_odds >= 5.0",
		"form_rating / field_size > 2 and track != 'Ascot'",
		"not scratched",
		"(win_odds - place_odds) * 2 <= 10",
	}
	for _, source := range sources {
		expr, err := Parse(source)
		require.NoError(t, err)
		assert.NoError(t, Validate(expr, testSchema()))
	}
}

func TestExtractVariables(t *testing.T) {
	expr, err := Parse("win_odds > 3 and (form_rating + win_odds) / field_size > 1")
	require.NoError(t, err)

	vars := ExtractVariables(expr)
	assert.Equal(t, []string{"field_size", "form_rating", "win_odds"}, vars)
}

func TestEvaluateMissingBinding(t *testing.T) {
	expr, err := Parse("win_odds > 3")
	require.NoError(t, err)

	_, err = Evaluate(expr, map[string]Value{})
	var evalErr *EvaluationError
	require.True(t, errors.As(err, &evalErr))
}

func TestEvaluateDivisionByZero(t *testing.T) {
	expr, err := Parse("1 / field_size")
	require.NoError(t, err)

	_, err = Evaluate(expr, map[string]Value{"field_size": Number(0)})
	var evalErr *EvaluationError
	require.True(t, errors.As(err, &evalErr))
}

func TestEvaluateIsPure(t *testing.T) {
	expr, err := Parse("win_odds * 2 + 1")
	require.NoError(t, err)

	bindings := map[string]Value{"win_odds": Number(3)}
	first, err := Evaluate(expr, bindings)
	require.NoError(t, err)
	second, err := Evaluate(expr, bindings)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, Number(3), bindings["win_odds"])
}

func TestResultKind(t *testing.T) {
	expr, err := Parse("win_odds + 1")
	require.NoError(t, err)
	kind, err := ResultKind(expr, testSchema())
	require.NoError(t, err)
	assert.Equal(t, KindNumber, kind)

	expr, err = Parse("win_odds > 1")
	require.NoError(t, err)
	kind, err = ResultKind(expr, testSchema())
	require.NoError(t, err)
	assert.Equal(t, KindBool, kind)
}

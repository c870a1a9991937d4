package formula

import (
	"fmt"
	"strconv"
	"unicode"
)

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenNumber
	tokenString
	tokenIdent
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenLT
	tokenLTE
	tokenGT
	tokenGTE
	tokenEQ
	tokenNEQ
	tokenAnd
	tokenOr
	tokenNot
	tokenTrue
	tokenFalse
	tokenLParen
	tokenRParen
)

type token struct {
	typ tokenType
	pos int
	num float64
	str string
}

var keywords = map[string]tokenType{
	"and":   tokenAnd,
	"or":    tokenOr,
	"not":   tokenNot,
	"true":  tokenTrue,
	"false": tokenFalse,
}

// lex tokenizes the source text. It returns a SyntaxError for characters
// and literals the language does not know.
func lex(source string) ([]token, error) {
	runes := []rune(source)
	tokens := make([]token, 0, len(runes)/2)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, token{typ: tokenLParen, pos: i})
			i++
		case r == ')':
			tokens = append(tokens, token{typ: tokenRParen, pos: i})
			i++
		case r == '+':
			tokens = append(tokens, token{typ: tokenPlus, pos: i})
			i++
		case r == '-':
			tokens = append(tokens, token{typ: tokenMinus, pos: i})
			i++
		case r == '*':
			tokens = append(tokens, token{typ: tokenStar, pos: i})
			i++
		case r == '/':
			tokens = append(tokens, token{typ: tokenSlash, pos: i})
			i++
		case r == '<':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, token{typ: tokenLTE, pos: i})
				i += 2
			} else {
				tokens = append(tokens, token{typ: tokenLT, pos: i})
				i++
			}
		case r == '>':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, token{typ: tokenGTE, pos: i})
				i += 2
			} else {
				tokens = append(tokens, token{typ: tokenGT, pos: i})
				i++
			}
		case r == '=':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, token{typ: tokenEQ, pos: i})
				i += 2
			} else {
				return nil, &SyntaxError{Pos: i, Message: "unexpected '=', did you mean '=='"}
			}
		case r == '!':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, token{typ: tokenNEQ, pos: i})
				i += 2
			} else {
				return nil, &SyntaxError{Pos: i, Message: "unexpected '!', did you mean '!='"}
			}
		case r == '\'' || r == '"':
			quote := r
			start := i
			i++
			var lit []rune
			for i < len(runes) && runes[i] != quote {
				lit = append(lit, runes[i])
				i++
			}
			if i >= len(runes) {
				return nil, &SyntaxError{Pos: start, Message: "unterminated string literal"}
			}
			i++
			tokens = append(tokens, token{typ: tokenString, pos: start, str: string(lit)})
		case unicode.IsDigit(r) || r == '.':
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			text := string(runes[start:i])
			num, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, &SyntaxError{Pos: start, Message: fmt.Sprintf("invalid number %q", text)}
			}
			tokens = append(tokens, token{typ: tokenNumber, pos: start, num: num})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			word := string(runes[start:i])
			if kw, ok := keywords[word]; ok {
				tokens = append(tokens, token{typ: kw, pos: start})
			} else {
				tokens = append(tokens, token{typ: tokenIdent, pos: start, str: word})
			}
		default:
			return nil, &SyntaxError{Pos: i, Message: fmt.Sprintf("unexpected character %q", r)}
		}
	}
	tokens = append(tokens, token{typ: tokenEOF, pos: len(runes)})
	return tokens, nil
}

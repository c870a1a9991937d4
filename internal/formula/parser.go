package formula

// Parse parses a formula source string into an expression tree.
// Malformed expressions return a *SyntaxError carrying the byte offset
// of the problem.
func Parse(source string) (Expr, error) {
	tokens, err := lex(source)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().typ != tokenEOF {
		return nil, &SyntaxError{Pos: p.peek().pos, Message: "unexpected trailing input"}
	}
	return expr, nil
}

type parser struct {
	tokens []token
	idx    int
}

func (p *parser) peek() token {
	return p.tokens[p.idx]
}

func (p *parser) next() token {
	t := p.tokens[p.idx]
	if p.idx < len(p.tokens)-1 {
		p.idx++
	}
	return t
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().typ == tokenOr {
		t := p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: OpOr, Left: left, Right: right, SourcePos: t.pos}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().typ == tokenAnd {
		t := p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: OpAnd, Left: left, Right: right, SourcePos: t.pos}
	}
	return left, nil
}

func (p *parser) parseNot() (Expr, error) {
	if p.peek().typ == tokenNot {
		t := p.next()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: OpNot, Operand: operand, SourcePos: t.pos}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[tokenType]Op{
	tokenLT:  OpLT,
	tokenLTE: OpLTE,
	tokenGT:  OpGT,
	tokenGTE: OpGTE,
	tokenEQ:  OpEQ,
	tokenNEQ: OpNEQ,
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if op, ok := comparisonOps[p.peek().typ]; ok {
		t := p.next()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &Binary{Op: op, Left: left, Right: right, SourcePos: t.pos}, nil
	}
	return left, nil
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().typ {
		case tokenPlus:
			t := p.next()
			right, err := p.parseMultiplicative()
			if err != nil {
				return nil, err
			}
			left = &Binary{Op: OpAdd, Left: left, Right: right, SourcePos: t.pos}
		case tokenMinus:
			t := p.next()
			right, err := p.parseMultiplicative()
			if err != nil {
				return nil, err
			}
			left = &Binary{Op: OpSub, Left: left, Right: right, SourcePos: t.pos}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().typ {
		case tokenStar:
			t := p.next()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = &Binary{Op: OpMul, Left: left, Right: right, SourcePos: t.pos}
		case tokenSlash:
			t := p.next()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = &Binary{Op: OpDiv, Left: left, Right: right, SourcePos: t.pos}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	if p.peek().typ == tokenMinus {
		t := p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: OpNeg, Operand: operand, SourcePos: t.pos}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.next()
	switch t.typ {
	case tokenNumber:
		return &Literal{Value: Number(t.num), SourcePos: t.pos}, nil
	case tokenString:
		return &Literal{Value: String(t.str), SourcePos: t.pos}, nil
	case tokenTrue:
		return &Literal{Value: Bool(true), SourcePos: t.pos}, nil
	case tokenFalse:
		return &Literal{Value: Bool(false), SourcePos: t.pos}, nil
	case tokenIdent:
		return &Variable{Name: t.str, SourcePos: t.pos}, nil
	case tokenLParen:
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().typ != tokenRParen {
			return nil, &SyntaxError{Pos: p.peek().pos, Message: "expected ')'"}
		}
		p.next()
		return expr, nil
	case tokenEOF:
		return nil, &SyntaxError{Pos: t.pos, Message: "unexpected end of expression"}
	default:
		return nil, &SyntaxError{Pos: t.pos, Message: "unexpected token"}
	}
}

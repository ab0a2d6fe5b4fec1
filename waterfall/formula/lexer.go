package formula

import (
	"fmt"
	"strconv"

	"github.com/cloanalytics/dealengine/money"
)

type fTokKind int

const (
	fTokEOF fTokKind = iota
	fTokNumber
	fTokIdent
	fTokPlus
	fTokMinus
	fTokStar
	fTokSlash
	fTokLParen
	fTokRParen
)

type fTok struct {
	kind fTokKind
	text string
}

func tokenize(s string) ([]fTok, error) {
	runes := []rune(s)
	var toks []fTok
	i := 0
	for i < len(runes) {
		c := runes[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case c == '+':
			toks = append(toks, fTok{kind: fTokPlus, text: "+"})
			i++
		case c == '-':
			toks = append(toks, fTok{kind: fTokMinus, text: "-"})
			i++
		case c == '*':
			toks = append(toks, fTok{kind: fTokStar, text: "*"})
			i++
		case c == '/':
			toks = append(toks, fTok{kind: fTokSlash, text: "/"})
			i++
		case c == '(':
			toks = append(toks, fTok{kind: fTokLParen, text: "("})
			i++
		case c == ')':
			toks = append(toks, fTok{kind: fTokRParen, text: ")"})
			i++
		case isFDigit(c):
			start := i
			for i < len(runes) && (isFDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			toks = append(toks, fTok{kind: fTokNumber, text: string(runes[start:i])})
		case isFIdentStart(c):
			start := i
			for i < len(runes) && (isFIdentStart(runes[i]) || isFDigit(runes[i])) {
				i++
			}
			toks = append(toks, fTok{kind: fTokIdent, text: string(runes[start:i])})
		default:
			return nil, fmt.Errorf("formula: unexpected character %q at position %d", c, i)
		}
	}
	toks = append(toks, fTok{kind: fTokEOF})
	return toks, nil
}

func isFDigit(c rune) bool { return c >= '0' && c <= '9' }
func isFIdentStart(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

type fparser struct {
	toks []fTok
	pos  int
}

func (p *fparser) peek() fTok { return p.toks[p.pos] }
func (p *fparser) advance() fTok {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *fparser) parseExpr() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == fTokPlus || p.peek().kind == fTokMinus {
		op := p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		opByte := byte('+')
		if op.kind == fTokMinus {
			opByte = '-'
		}
		left = binNode{op: opByte, left: left, right: right}
	}
	return left, nil
}

func (p *fparser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == fTokStar || p.peek().kind == fTokSlash {
		op := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		opByte := byte('*')
		if op.kind == fTokSlash {
			opByte = '/'
		}
		left = binNode{op: opByte, left: left, right: right}
	}
	return left, nil
}

func (p *fparser) parseUnary() (node, error) {
	if p.peek().kind == fTokMinus {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return negNode{operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *fparser) parsePrimary() (node, error) {
	tok := p.peek()
	switch tok.kind {
	case fTokNumber:
		p.advance()
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, fmt.Errorf("formula: invalid number %q: %w", tok.text, err)
		}
		return numberNode{v: money.NewFromFloat(f)}, nil
	case fTokIdent:
		p.advance()
		return identNode{name: tok.text}, nil
	case fTokLParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != fTokRParen {
			return nil, fmt.Errorf("formula: expected closing parenthesis")
		}
		p.advance()
		return inner, nil
	default:
		return nil, fmt.Errorf("formula: expected number, identifier, or parenthesis, got %q", tok.text)
	}
}

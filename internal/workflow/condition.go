package workflow

import (
	"fmt"
	"strconv"

	"github.com/engine-agi/engine-core/internal/executor"
)

// Condition expressions for conditional edges.
//
// A condition is evaluated against the result of the edge's source
// vertex. Supported syntax:
//
//   - Path resolution: "output.score" resolves into the source's
//     output map; "metadata.kind" into its metadata; "status" is the
//     source's terminal status as a string.
//   - Comparison operators: ==, !=, <, >, <=, >=
//   - Boolean operators: &&, ||, !
//   - Literals: true, false, numbers, quoted strings
//   - Parentheses for grouping
//   - Built-in functions: len(), empty(), exists()
//   - Array/map indexing with []
//
// Examples:
//
//	output.score >= 0.8
//	!empty(output.findings) && output.severity == "critical"
//	len(output.items) > 0 || output.retryable
//
// Expressions must evaluate to a boolean. A condition that fails to
// evaluate at run time (missing field, type mismatch) does not fire.

// exprFunc is a function callable within condition expressions.
type exprFunc func(args []any) (any, error)

var builtinFuncs = map[string]exprFunc{
	"len": func(args []any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("len() requires exactly 1 argument, got %d", len(args))
		}
		switch v := args[0].(type) {
		case string:
			return float64(len(v)), nil
		case []any:
			return float64(len(v)), nil
		case map[string]any:
			return float64(len(v)), nil
		default:
			return nil, fmt.Errorf("len() requires string, array, or map argument")
		}
	},
	"empty": func(args []any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("empty() requires exactly 1 argument, got %d", len(args))
		}
		switch v := args[0].(type) {
		case string:
			return len(v) == 0, nil
		case []any:
			return len(v) == 0, nil
		case map[string]any:
			return len(v) == 0, nil
		case nil:
			return true, nil
		default:
			return false, nil
		}
	},
	"exists": func(args []any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("exists() requires exactly 1 argument, got %d", len(args))
		}
		return args[0] != nil, nil
	},
}

// CompileCondition compiles a condition expression into a Predicate.
// Lexical errors are reported at compile time; evaluation errors make
// the predicate return false.
func CompileCondition(expr string) (Predicate, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	if len(tokens) == 1 { // EOF only
		return nil, fmt.Errorf("empty expression")
	}

	return func(result *executor.Result) bool {
		ok, err := evalTokens(tokens, result)
		if err != nil {
			return false
		}
		return ok
	}, nil
}

// EvalCondition evaluates an expression against a result in one shot,
// surfacing evaluation errors. Used by tooling that validates
// conditions interactively.
func EvalCondition(expr string, result *executor.Result) (bool, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return false, fmt.Errorf("tokenize: %w", err)
	}
	return evalTokens(tokens, result)
}

func evalTokens(tokens []token, result *executor.Result) (bool, error) {
	p := &exprParser{tokens: tokens, result: result}
	out, err := p.parseExpression()
	if err != nil {
		return false, err
	}
	if p.current().typ != tokenEOF {
		return false, fmt.Errorf("unexpected trailing token %q", p.current().value)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression did not evaluate to boolean, got %T", out)
	}
	return b, nil
}

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenIdentifier
	tokenNumber
	tokenString
	tokenBool
	tokenDot
	tokenComma
	tokenLParen
	tokenRParen
	tokenLBracket
	tokenRBracket
	tokenEQ
	tokenNE
	tokenLT
	tokenLE
	tokenGT
	tokenGE
	tokenAnd
	tokenOr
	tokenNot
)

type token struct {
	typ   tokenType
	value string
}

func tokenize(expr string) ([]token, error) {
	var tokens []token
	i := 0

	for i < len(expr) {
		switch expr[i] {
		case ' ', '\t', '\n', '\r':
			i++
			continue
		case '.':
			tokens = append(tokens, token{typ: tokenDot, value: "."})
			i++
			continue
		case ',':
			tokens = append(tokens, token{typ: tokenComma, value: ","})
			i++
			continue
		case '(':
			tokens = append(tokens, token{typ: tokenLParen, value: "("})
			i++
			continue
		case ')':
			tokens = append(tokens, token{typ: tokenRParen, value: ")"})
			i++
			continue
		case '[':
			tokens = append(tokens, token{typ: tokenLBracket, value: "["})
			i++
			continue
		case ']':
			tokens = append(tokens, token{typ: tokenRBracket, value: "]"})
			i++
			continue
		}

		if i+1 < len(expr) {
			switch expr[i : i+2] {
			case "==":
				tokens = append(tokens, token{typ: tokenEQ, value: "=="})
				i += 2
				continue
			case "!=":
				tokens = append(tokens, token{typ: tokenNE, value: "!="})
				i += 2
				continue
			case "<=":
				tokens = append(tokens, token{typ: tokenLE, value: "<="})
				i += 2
				continue
			case ">=":
				tokens = append(tokens, token{typ: tokenGE, value: ">="})
				i += 2
				continue
			case "&&":
				tokens = append(tokens, token{typ: tokenAnd, value: "&&"})
				i += 2
				continue
			case "||":
				tokens = append(tokens, token{typ: tokenOr, value: "||"})
				i += 2
				continue
			}
		}

		switch expr[i] {
		case '<':
			tokens = append(tokens, token{typ: tokenLT, value: "<"})
			i++
			continue
		case '>':
			tokens = append(tokens, token{typ: tokenGT, value: ">"})
			i++
			continue
		case '!':
			tokens = append(tokens, token{typ: tokenNot, value: "!"})
			i++
			continue
		}

		if expr[i] == '"' || expr[i] == '\'' {
			quote := expr[i]
			i++
			start := i
			for i < len(expr) && expr[i] != quote {
				if expr[i] == '\\' && i+1 < len(expr) {
					i += 2
				} else {
					i++
				}
			}
			if i >= len(expr) {
				return nil, fmt.Errorf("unterminated string literal")
			}
			tokens = append(tokens, token{typ: tokenString, value: expr[start:i]})
			i++
			continue
		}

		if expr[i] >= '0' && expr[i] <= '9' {
			start := i
			for i < len(expr) && ((expr[i] >= '0' && expr[i] <= '9') || expr[i] == '.') {
				i++
			}
			tokens = append(tokens, token{typ: tokenNumber, value: expr[start:i]})
			continue
		}

		if isIdentStart(expr[i]) {
			start := i
			for i < len(expr) && isIdentPart(expr[i]) {
				i++
			}
			value := expr[start:i]
			if value == "true" || value == "false" {
				tokens = append(tokens, token{typ: tokenBool, value: value})
			} else {
				tokens = append(tokens, token{typ: tokenIdentifier, value: value})
			}
			continue
		}

		return nil, fmt.Errorf("unexpected character at position %d: %c", i, expr[i])
	}

	tokens = append(tokens, token{typ: tokenEOF})
	return tokens, nil
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// exprParser is a recursive descent parser that evaluates as it
// parses. Precedence, lowest to highest: || , && , ! , comparisons.
type exprParser struct {
	tokens []token
	pos    int
	result *executor.Result
}

func (p *exprParser) current() token {
	if p.pos >= len(p.tokens) {
		return token{typ: tokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *exprParser) advance() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

func (p *exprParser) expect(typ tokenType) error {
	if p.current().typ != typ {
		return fmt.Errorf("expected token %v, got %q", typ, p.current().value)
	}
	p.advance()
	return nil
}

func (p *exprParser) parseExpression() (any, error) {
	return p.parseOr()
}

func (p *exprParser) parseOr() (any, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.current().typ == tokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		lb, lok := left.(bool)
		rb, rok := right.(bool)
		if !lok || !rok {
			return nil, fmt.Errorf("|| operator requires boolean operands")
		}
		left = lb || rb
	}
	return left, nil
}

func (p *exprParser) parseAnd() (any, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.current().typ == tokenAnd {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		lb, lok := left.(bool)
		rb, rok := right.(bool)
		if !lok || !rok {
			return nil, fmt.Errorf("&& operator requires boolean operands")
		}
		left = lb && rb
	}
	return left, nil
}

func (p *exprParser) parseNot() (any, error) {
	if p.current().typ == tokenNot {
		p.advance()
		expr, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		b, ok := expr.(bool)
		if !ok {
			return nil, fmt.Errorf("! operator requires boolean operand")
		}
		return !b, nil
	}
	return p.parseComparison()
}

func (p *exprParser) parseComparison() (any, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	tok := p.current()
	switch tok.typ {
	case tokenEQ, tokenNE, tokenLT, tokenLE, tokenGT, tokenGE:
		p.advance()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return compare(left, right, tok.typ)
	}
	return left, nil
}

func (p *exprParser) parsePrimary() (any, error) {
	tok := p.current()
	switch tok.typ {
	case tokenBool:
		p.advance()
		return tok.value == "true", nil
	case tokenNumber:
		p.advance()
		return strconv.ParseFloat(tok.value, 64)
	case tokenString:
		p.advance()
		return tok.value, nil
	case tokenLParen:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokenRParen); err != nil {
			return nil, err
		}
		return expr, nil
	case tokenIdentifier:
		return p.parseIdentifierOrFunction()
	default:
		return nil, fmt.Errorf("unexpected token %q", tok.value)
	}
}

func (p *exprParser) parseIdentifierOrFunction() (any, error) {
	name := p.current().value
	p.advance()
	if p.current().typ == tokenLParen {
		return p.parseFunctionCall(name)
	}
	return p.resolvePath(name)
}

func (p *exprParser) parseFunctionCall(name string) (any, error) {
	fn, ok := builtinFuncs[name]
	if !ok {
		return nil, fmt.Errorf("unknown function: %s", name)
	}
	p.advance() // consume '('

	var args []any
	if p.current().typ != tokenRParen {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.current().typ != tokenComma {
				break
			}
			p.advance()
		}
	}
	if err := p.expect(tokenRParen); err != nil {
		return nil, err
	}
	return fn(args)
}

// resolvePath resolves a path like "output.score" against the source
// result, with optional [] indexing.
func (p *exprParser) resolvePath(name string) (any, error) {
	path := []string{name}
	for p.current().typ == tokenDot {
		p.advance()
		if p.current().typ != tokenIdentifier {
			return nil, fmt.Errorf("expected identifier after '.'")
		}
		path = append(path, p.current().value)
		p.advance()
	}

	current, err := p.resolvePathValue(path)
	if err != nil {
		return nil, err
	}

	for p.current().typ == tokenLBracket {
		p.advance()
		index, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokenRBracket); err != nil {
			return nil, err
		}

		switch v := current.(type) {
		case map[string]any:
			key, ok := index.(string)
			if !ok {
				return nil, fmt.Errorf("map index must be string")
			}
			current = v[key]
		case []any:
			num, ok := index.(float64)
			if !ok {
				return nil, fmt.Errorf("array index must be number")
			}
			idx := int(num)
			if idx < 0 || idx >= len(v) {
				return nil, fmt.Errorf("array index out of bounds: %d", idx)
			}
			current = v[idx]
		default:
			return nil, fmt.Errorf("cannot index %T", v)
		}

		for p.current().typ == tokenDot {
			p.advance()
			if p.current().typ != tokenIdentifier {
				return nil, fmt.Errorf("expected identifier after '.'")
			}
			field := p.current().value
			p.advance()
			m, ok := current.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("cannot access field %s on %T", field, current)
			}
			current = m[field]
		}
	}

	return current, nil
}

func (p *exprParser) resolvePathValue(path []string) (any, error) {
	if p.result == nil {
		return nil, fmt.Errorf("no result available")
	}

	var current any
	switch path[0] {
	case "output":
		current = anyMap(p.result.Output)
	case "metadata":
		current = anyMap(p.result.Metadata)
	case "status":
		if len(path) > 1 {
			return nil, fmt.Errorf("status has no fields")
		}
		return string(VertexStatusSucceeded), nil
	default:
		return nil, fmt.Errorf("unknown root %q, want output, metadata, or status", path[0])
	}

	for _, segment := range path[1:] {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("cannot access field %s on %T", segment, current)
		}
		current = m[segment]
		if current == nil {
			return nil, nil
		}
	}
	return current, nil
}

func anyMap(m map[string]any) any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func compare(left, right any, op tokenType) (bool, error) {
	switch op {
	case tokenEQ:
		return valuesEqual(left, right), nil
	case tokenNE:
		return !valuesEqual(left, right), nil
	default:
		return compareOrdered(left, right, op)
	}
}

func valuesEqual(left, right any) bool {
	if left == nil && right == nil {
		return true
	}
	if left == nil || right == nil {
		return false
	}
	if ln, ok := toNumber(left); ok {
		if rn, rok := toNumber(right); rok {
			return ln == rn
		}
		return false
	}
	switch l := left.(type) {
	case bool:
		r, ok := right.(bool)
		return ok && l == r
	case string:
		r, ok := right.(string)
		return ok && l == r
	default:
		return false
	}
}

func compareOrdered(left, right any, op tokenType) (bool, error) {
	ln, lok := toNumber(left)
	rn, rok := toNumber(right)
	if lok && rok {
		switch op {
		case tokenLT:
			return ln < rn, nil
		case tokenLE:
			return ln <= rn, nil
		case tokenGT:
			return ln > rn, nil
		case tokenGE:
			return ln >= rn, nil
		}
	}

	ls, lsok := left.(string)
	rs, rsok := right.(string)
	if !lsok || !rsok {
		return false, fmt.Errorf("cannot compare %T and %T", left, right)
	}
	switch op {
	case tokenLT:
		return ls < rs, nil
	case tokenLE:
		return ls <= rs, nil
	case tokenGT:
		return ls > rs, nil
	case tokenGE:
		return ls >= rs, nil
	default:
		return false, fmt.Errorf("unknown comparison operator")
	}
}

// toNumber converts numeric-typed values to float64. Strings do not
// coerce; quote-free numbers in expressions already lex as numbers.
func toNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	}
	return 0, false
}

package tezos

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"math/big"

	"github.com/cockroachdb/errors"
)

// maxParseDepth bounds JSON nesting when decoding an expression. Descent
// heuristics use the tighter constants.MaxMichelineDepth.
const maxParseDepth = 256

var ErrMalformedExpr = errors.New("tezos: malformed micheline expression")

// Expr is a Micheline node: Prim, Seq, Int, String or Bytes.
type Expr interface {
	isExpr()
}

type Prim struct {
	Prim   string
	Args   []Expr
	Annots []string
}

type Seq []Expr

type Int struct{ Value *big.Int }

type String string

type Bytes []byte

func (Prim) isExpr()   {}
func (Seq) isExpr()    {}
func (Int) isExpr()    {}
func (String) isExpr() {}
func (Bytes) isExpr()  {}

// ParseExpr decodes the JSON form of a Micheline expression.
func ParseExpr(raw json.RawMessage) (Expr, error) {
	return parseExpr(raw, 0)
}

type rawNode struct {
	Prim   *string           `json:"prim"`
	Args   []json.RawMessage `json:"args"`
	Annots []string          `json:"annots"`
	Int    *string           `json:"int"`
	String *string           `json:"string"`
	Bytes  *string           `json:"bytes"`
}

func parseExpr(raw json.RawMessage, depth int) (Expr, error) {
	if depth > maxParseDepth {
		return nil, errors.Wrap(ErrMalformedExpr, "too deep")
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.Wrap(ErrMalformedExpr, "empty")
	}

	if raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, errors.Wrap(ErrMalformedExpr, err.Error())
		}
		seq := make(Seq, 0, len(items))
		for _, item := range items {
			e, err := parseExpr(item, depth+1)
			if err != nil {
				return nil, err
			}
			seq = append(seq, e)
		}
		return seq, nil
	}

	var n rawNode
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, errors.Wrap(ErrMalformedExpr, err.Error())
	}

	switch {
	case n.Prim != nil:
		p := Prim{Prim: *n.Prim, Annots: n.Annots}
		for _, a := range n.Args {
			e, err := parseExpr(a, depth+1)
			if err != nil {
				return nil, err
			}
			p.Args = append(p.Args, e)
		}
		return p, nil
	case n.Int != nil:
		v, ok := new(big.Int).SetString(*n.Int, 10)
		if !ok {
			return nil, errors.Wrapf(ErrMalformedExpr, "int %q", *n.Int)
		}
		return Int{Value: v}, nil
	case n.String != nil:
		return String(*n.String), nil
	case n.Bytes != nil:
		b, err := hex.DecodeString(*n.Bytes)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedExpr, "bytes %q", *n.Bytes)
		}
		return Bytes(b), nil
	}
	return nil, errors.Wrap(ErrMalformedExpr, "unknown node")
}

// pairArgs returns the two children of a Pair, right-combing n-ary pairs
// (Pair a b c == Pair a (Pair b c)).
func pairArgs(p Prim) (Expr, Expr, bool) {
	if p.Prim != "Pair" || len(p.Args) < 2 {
		return nil, nil, false
	}
	if len(p.Args) == 2 {
		return p.Args[0], p.Args[1], true
	}
	return p.Args[0], Prim{Prim: "Pair", Args: p.Args[1:]}, true
}

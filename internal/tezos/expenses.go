package tezos

import (
	"math/big"

	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/quantum-asset-resolver/internal/constants"
)

// Expense is one outgoing movement. TokenAddress is empty for tez.
type Expense struct {
	TokenAddress string   `json:"tokenAddress,omitempty"`
	TokenID      *big.Int `json:"tokenId,omitempty"`
	To           string   `json:"to"`
	Amount       *big.Int `json:"amount"`
}

type OperationExpenses struct {
	Type                    string    `json:"type"`
	IsEntrypointInteraction bool      `json:"isEntrypointInteraction"`
	ContractAddress         string    `json:"contractAddress,omitempty"`
	Delegate                string    `json:"delegate,omitempty"`
	Amount                  *big.Int  `json:"amount"`
	Expenses                []Expense `json:"expenses"`
}

// ParseExpenses lists what every content of group costs account, in document
// order. Contents without a kind are dropped; malformed parameters only cost
// that content its token breakdown.
func ParseExpenses(group OperationGroup, account string) []OperationExpenses {
	out := make([]OperationExpenses, 0, len(group.Contents))
	for _, c := range group.Contents {
		if c.Kind == "" {
			continue
		}
		out = append(out, parseContent(c, account))
	}
	return out
}

func parseContent(c OperationContent, account string) OperationExpenses {
	if c.Kind == KindDelegation {
		return OperationExpenses{
			Type:     KindDelegation,
			Delegate: c.Delegate,
			Amount:   new(big.Int),
			Expenses: []Expense{},
		}
	}

	to := c.Recipient()
	params := c.Params()
	isEntrypoint := params != nil && params.Entrypoint != ""
	opType := c.Kind
	if isEntrypoint {
		opType = params.Entrypoint
	}

	amount := new(big.Int)
	if c.Amount.Value != nil {
		amount.Set(c.Amount.Value)
	}

	res := OperationExpenses{
		Type:                    opType,
		IsEntrypointInteraction: isEntrypoint,
		Amount:                  amount,
		Expenses:                []Expense{},
	}
	// someone else's operation: face value only
	if c.Source != account {
		return res
	}

	if isEntrypoint {
		res.ContractAddress = to
	}

	if amount.Sign() != 0 {
		res.Expenses = append(res.Expenses, Expense{To: to, Amount: new(big.Int).Set(amount)})
	}

	if isEntrypoint && (opType == "transfer" || opType == "approve") {
		res.Expenses = append(res.Expenses, tokenExpenses(to, params)...)
	}
	return res
}

func tokenExpenses(contract string, params *Parameters) []Expense {
	if len(params.Value) == 0 {
		return nil
	}
	value, err := ParseExpr(params.Value)
	if err != nil {
		log.Warn("tezos: unreadable parameters", "contract", contract, "entrypoint", params.Entrypoint, "error", err)
		return nil
	}

	if batch, ok := value.(Seq); ok {
		if expenses, ok := fa2Expenses(contract, batch); ok {
			return expenses
		}
		return nil
	}

	to, amount, ok := descendToLeaves(value, 0)
	if !ok {
		return nil
	}
	return []Expense{{TokenAddress: contract, To: to, Amount: amount}}
}

// fa2Expenses expands list(pair from (list (pair to (pair token_id amount)))).
func fa2Expenses(contract string, batch Seq) ([]Expense, bool) {
	var out []Expense
	for _, group := range batch {
		p, ok := group.(Prim)
		if !ok {
			return nil, false
		}
		_, txsExpr, ok := pairArgs(p)
		if !ok {
			return nil, false
		}
		txs, ok := txsExpr.(Seq)
		if !ok {
			return nil, false
		}
		for _, tx := range txs {
			e, ok := fa2Tx(contract, tx)
			if !ok {
				return nil, false
			}
			out = append(out, e)
		}
	}
	return out, true
}

func fa2Tx(contract string, tx Expr) (Expense, bool) {
	p, ok := tx.(Prim)
	if !ok {
		return Expense{}, false
	}
	toExpr, rest, ok := pairArgs(p)
	if !ok {
		return Expense{}, false
	}
	restPair, ok := rest.(Prim)
	if !ok {
		return Expense{}, false
	}
	idExpr, amountExpr, ok := pairArgs(restPair)
	if !ok {
		return Expense{}, false
	}

	to, ok := toExpr.(String)
	if !ok || !IsValidAddress(string(to)) {
		return Expense{}, false
	}
	id, ok := idExpr.(Int)
	if !ok {
		return Expense{}, false
	}
	amount, ok := amountExpr.(Int)
	if !ok {
		return Expense{}, false
	}
	return Expense{
		TokenAddress: contract,
		TokenID:      new(big.Int).Set(id.Value),
		To:           string(to),
		Amount:       new(big.Int).Set(amount.Value),
	}, true
}

// descendToLeaves follows the first child while it is a tagged node, else
// the second, until both children are leaves. Those must be an address and
// an int; anything else, or running past the depth limit, yields nothing.
func descendToLeaves(e Expr, depth int) (string, *big.Int, bool) {
	if depth >= constants.MaxMichelineDepth {
		return "", nil, false
	}
	p, ok := e.(Prim)
	if !ok {
		return "", nil, false
	}

	switch len(p.Args) {
	case 1:
		// Left / Right / Some
		return descendToLeaves(p.Args[0], depth+1)
	case 0:
		return "", nil, false
	}

	first, second, ok := pairArgs(p)
	if !ok {
		first, second = p.Args[0], p.Args[1]
	}
	if _, tagged := first.(Prim); tagged {
		return descendToLeaves(first, depth+1)
	}
	if _, tagged := second.(Prim); tagged {
		return descendToLeaves(second, depth+1)
	}

	to, ok := first.(String)
	if !ok || !IsValidAddress(string(to)) {
		return "", nil, false
	}
	amount, ok := second.(Int)
	if !ok {
		return "", nil, false
	}
	return string(to), new(big.Int).Set(amount.Value), true
}

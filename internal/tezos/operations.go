package tezos

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	KindTransaction = "transaction"
	KindDelegation  = "delegation"
)

// OperationGroup is an injected or forged operation with its contents in
// document order.
type OperationGroup struct {
	Hash     string             `json:"hash,omitempty"`
	Branch   string             `json:"branch,omitempty"`
	Contents []OperationContent `json:"contents"`
}

type OperationContent struct {
	Kind        string      `json:"kind"`
	Source      string      `json:"source"`
	Destination string      `json:"destination"`
	To          string      `json:"to"`
	Amount      Mutez       `json:"amount"`
	Delegate    string      `json:"delegate"`
	Parameters  *Parameters `json:"parameters"`
	// wallet payloads use the singular spelling
	Parameter *Parameters `json:"parameter"`
}

type Parameters struct {
	Entrypoint string          `json:"entrypoint"`
	Value      json.RawMessage `json:"value"`
}

// Mutez accepts a JSON string or number. Nil means the field was absent.
type Mutez struct {
	Value *big.Int
}

func (m *Mutez) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		m.Value = nil
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if s == "" {
		m.Value = nil
		return nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return errors.Newf("tezos: invalid amount %s", string(b))
	}
	m.Value = v
	return nil
}

func (m Mutez) MarshalJSON() ([]byte, error) {
	if m.Value == nil {
		return []byte("null"), nil
	}
	return []byte(`"` + m.Value.String() + `"`), nil
}

// ParseOperationGroup accepts either {"contents": [...]} or a bare contents
// array.
func ParseOperationGroup(raw []byte) (OperationGroup, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return OperationGroup{}, errors.New("tezos: empty operation group")
	}

	if raw[0] == '[' {
		var contents []json.RawMessage
		if err := json.Unmarshal(raw, &contents); err != nil {
			return OperationGroup{}, errors.Wrap(err, "tezos: decode contents")
		}
		return OperationGroup{Contents: decodeContents(contents)}, nil
	}

	var envelope struct {
		Hash     string            `json:"hash"`
		Branch   string            `json:"branch"`
		Contents []json.RawMessage `json:"contents"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return OperationGroup{}, errors.Wrap(err, "tezos: decode operation group")
	}
	return OperationGroup{
		Hash:     envelope.Hash,
		Branch:   envelope.Branch,
		Contents: decodeContents(envelope.Contents),
	}, nil
}

// decodeContents keeps undecodable entries as kind-less contents so the
// expense parser drops them without losing their neighbours.
func decodeContents(raw []json.RawMessage) []OperationContent {
	out := make([]OperationContent, 0, len(raw))
	for _, r := range raw {
		var c OperationContent
		if err := json.Unmarshal(r, &c); err != nil {
			c = OperationContent{}
		}
		out = append(out, c)
	}
	return out
}

// Recipient returns destination, falling back to the wallet "to" spelling.
func (c OperationContent) Recipient() string {
	if c.Destination != "" {
		return c.Destination
	}
	return c.To
}

func (c OperationContent) Params() *Parameters {
	if c.Parameters != nil {
		return c.Parameters
	}
	return c.Parameter
}

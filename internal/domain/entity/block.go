package entity

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// CallKind identifies the kind of an execution trace call.
type CallKind string

const (
	CallKindCall   CallKind = "CALL"
	CallKindCreate CallKind = "CREATE"
)

// IsCall reports whether the kind is a plain message call.
func (k CallKind) IsCall() bool {
	return strings.EqualFold(string(k), string(CallKindCall))
}

// IsCreate reports whether the kind is a contract creation.
func (k CallKind) IsCreate() bool {
	return strings.EqualFold(string(k), string(CallKindCreate))
}

// CodeChange records deployed bytecode written by a call.
type CodeChange struct {
	NewCode hexutil.Bytes `json:"new_code"`
}

// Call is a single entry of a transaction execution trace.
type Call struct {
	Address       common.Address `json:"address"`
	Caller        common.Address `json:"caller"`
	Kind          CallKind       `json:"call_type"`
	Input         hexutil.Bytes  `json:"input"`
	StateReverted bool           `json:"state_reverted"`
	CodeChanges   []CodeChange   `json:"code_changes,omitempty"`
}

// DeployedCodeSize sums the bytecode written across all code changes.
func (c *Call) DeployedCodeSize() int {
	total := 0
	for _, change := range c.CodeChanges {
		total += len(change.NewCode)
	}
	return total
}

// Transaction groups the trace calls of a single transaction.
type Transaction struct {
	Hash  string  `json:"hash"`
	Calls []*Call `json:"calls"`
}

// Block is a fully traced block as delivered by the ingestion stream.
type Block struct {
	Number       uint64         `json:"number"`
	Hash         string         `json:"hash"`
	Transactions []*Transaction `json:"transactions"`
}

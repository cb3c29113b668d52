package entity

import (
	"github.com/ethereum/go-ethereum/common"
)

// ContractCall is a read-only contract invocation to execute against a node.
type ContractCall struct {
	To   common.Address
	Data []byte
}

// CallResult is the outcome of a single read call. Failed covers both
// transport-level errors and execution reverts; Raw is only meaningful
// when Failed is false.
type CallResult struct {
	Raw    []byte
	Failed bool
}

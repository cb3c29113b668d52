package blockchain

import (
	"token-discovery-indexer/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
)

// Selector is a 4-byte solidity function selector.
type Selector [4]byte

// ERC-20 metadata getters.
var (
	SelectorName     = Selector{0x06, 0xfd, 0xde, 0x03} // name()
	SelectorSymbol   = Selector{0x95, 0xd8, 0x9b, 0x41} // symbol()
	SelectorDecimals = Selector{0x31, 0x3c, 0xe5, 0x67} // decimals()
)

// NewReadCall builds a read call from a selector and optional pre-encoded
// arguments.
func NewReadCall(to common.Address, sel Selector, args ...[]byte) entity.ContractCall {
	data := make([]byte, 0, 4+len(args)*wordSize)
	data = append(data, sel[:]...)
	for _, arg := range args {
		data = append(data, arg...)
	}
	return entity.ContractCall{To: to, Data: data}
}

// decimalsCalls is the first probe batch of the standard profile.
func decimalsCalls(addr common.Address) []entity.ContractCall {
	return []entity.ContractCall{
		NewReadCall(addr, SelectorDecimals),
	}
}

// nameSymbolCalls is the second probe batch of the standard profile.
func nameSymbolCalls(addr common.Address) []entity.ContractCall {
	return []entity.ContractCall{
		NewReadCall(addr, SelectorName),
		NewReadCall(addr, SelectorSymbol),
	}
}

// combinedMetadataCalls is the single probe batch of the legacy profile.
func combinedMetadataCalls(addr common.Address) []entity.ContractCall {
	return []entity.ContractCall{
		NewReadCall(addr, SelectorDecimals),
		NewReadCall(addr, SelectorName),
		NewReadCall(addr, SelectorSymbol),
	}
}

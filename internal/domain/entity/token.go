package entity

import (
	"github.com/ethereum/go-ethereum/common"
)

// DiscoveryOrigin describes which trace pattern surfaced a token contract.
type DiscoveryOrigin string

const (
	OriginContractCreation    DiscoveryOrigin = "contract_creation"
	OriginProxyInitialization DiscoveryOrigin = "proxy_initialization"
)

// Token is a discovered token contract with its on-chain metadata.
// Address is the canonical lowercase 0x-prefixed form.
type Token struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint64 `json:"decimals"`
}

// NewToken builds a Token with the address in canonical lowercase form.
func NewToken(address common.Address, name, symbol string, decimals uint64) *Token {
	return &Token{
		Address:  AddressHex(address),
		Name:     name,
		Symbol:   symbol,
		Decimals: decimals,
	}
}

// StoreKey returns the key the token is persisted under in the KV store.
func (t *Token) StoreKey() string {
	return "token:" + t.Address
}

// TokenDiscovery carries a discovered token together with its provenance
// inside the block that surfaced it.
type TokenDiscovery struct {
	Token       *Token          `json:"token"`
	Deployer    string          `json:"deployer"`
	BlockNumber uint64          `json:"block_number"`
	TxHash      string          `json:"tx_hash"`
	Origin      DiscoveryOrigin `json:"origin"`
}

// AddressHex renders an address as lowercase 0x-prefixed hex.
func AddressHex(addr common.Address) string {
	return "0x" + common.Bytes2Hex(addr.Bytes())
}

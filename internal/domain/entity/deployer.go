package entity

// DeployerStats aggregates discovery activity attributed to one deployer
// address in the deployment graph.
type DeployerStats struct {
	Address    string `json:"address"`
	TokenCount int64  `json:"token_count"`
	FirstBlock uint64 `json:"first_block"`
	LastBlock  uint64 `json:"last_block"`
}

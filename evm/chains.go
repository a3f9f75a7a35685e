package evm

// ChainInfo is static reference data for a supported chain. Loaded once
// at startup, never mutated.
type ChainInfo struct {
	ChainID       int64  `json:"chain_id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	RPCURL        string `json:"rpc_url"`
	BlockExplorer string `json:"block_explorer"`
	Supported     bool   `json:"supported"`
}

// StablecoinInfo describes a stablecoin in the fixed supported set,
// including its per-chain contract address mapping.
type StablecoinInfo struct {
	Symbol    string           `json:"symbol"`
	Name      string           `json:"name"`
	Decimals  int              `json:"decimals"`
	Addresses map[int64]string `json:"addresses"`
}

// HomeChainID is the campaign contract's home chain (Base Sepolia).
// Pledges bridge to this chain regardless of their source chain.
const HomeChainID int64 = 84532

// SupportedChains lists every chain users may pledge from.
var SupportedChains = []ChainInfo{
	{ChainID: 1, Name: "Ethereum", Symbol: "ETH", RPCURL: "https://eth.llamarpc.com", BlockExplorer: "https://etherscan.io", Supported: true},
	{ChainID: 137, Name: "Polygon", Symbol: "MATIC", RPCURL: "https://polygon.llamarpc.com", BlockExplorer: "https://polygonscan.com", Supported: true},
	{ChainID: 42161, Name: "Arbitrum", Symbol: "ETH", RPCURL: "https://arbitrum.llamarpc.com", BlockExplorer: "https://arbiscan.io", Supported: true},
	{ChainID: 10, Name: "Optimism", Symbol: "ETH", RPCURL: "https://optimism.llamarpc.com", BlockExplorer: "https://optimistic.etherscan.io", Supported: true},
	{ChainID: 8453, Name: "Base", Symbol: "ETH", RPCURL: "https://base.llamarpc.com", BlockExplorer: "https://basescan.org", Supported: true},
	{ChainID: 43114, Name: "Avalanche", Symbol: "AVAX", RPCURL: "https://api.avax.network/ext/bc/C/rpc", BlockExplorer: "https://snowtrace.io", Supported: true},
	{ChainID: 11155111, Name: "Ethereum Sepolia", Symbol: "ETH", RPCURL: "https://ethereum-sepolia-rpc.publicnode.com", BlockExplorer: "https://sepolia.etherscan.io", Supported: true},
	{ChainID: HomeChainID, Name: "Base Sepolia", Symbol: "ETH", RPCURL: "https://sepolia.base.org", BlockExplorer: "https://sepolia.basescan.org", Supported: true},
}

// Stablecoins is the fixed set of pledge currencies.
var Stablecoins = []StablecoinInfo{
	{
		Symbol:   "USDC",
		Name:     "USD Coin",
		Decimals: USDCDecimals,
		Addresses: map[int64]string{
			1:           "0xA0b86a33E6441c8C673f4c8C4C4C4C4C4C4C4C4C",
			137:         "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
			42161:       "0xFF970A61A04b1cA14834A43f5dE4533eBDDB5CC8",
			10:          "0x7F5c764cBc14f9669B88837ca1490cCa17c31607",
			8453:        "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
			43114:       "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E",
			11155111:    "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238",
			HomeChainID: "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		},
	},
	{
		Symbol:   "USDT",
		Name:     "Tether USD",
		Decimals: USDTDecimals,
		Addresses: map[int64]string{
			1:        "0xdAC17F958D2ee523a2206206994597C13D831ec7",
			137:      "0xc2132D05D31c914a87C6611C10748AEb04B58e8F",
			42161:    "0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9",
			10:       "0x94b008aA00579c1307B0EF2c499aD98a8ce58e58",
			8453:     "0xfde4C96c8593536E31F229EA8f37b2ADa2699bb2",
			43114:    "0x9702230A8Ea53601f5cD2dc00fDBc13d4dF4A8c7",
			11155111: "0xaA8E23Fb1079EA71e0a56F48a2aA51851D8433D0",
		},
	},
	{
		Symbol:   "DAI",
		Name:     "Dai Stablecoin",
		Decimals: DAIDecimals,
		Addresses: map[int64]string{
			1:     "0x6B175474E89094C44Da98b954EedeAC495271d0F",
			137:   "0x8f3Cf7ad23Cd3CaDbD9735AFf958023239c6A063",
			42161: "0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1",
			10:    "0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1",
			8453:  "0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb",
			43114: "0xd586E7F844cEa2F87f50152665BCbc2C279D8d70",
		},
	},
}

// GetChainInfo looks up a chain by ID.
func GetChainInfo(chainID int64) (ChainInfo, bool) {
	for _, c := range SupportedChains {
		if c.ChainID == chainID {
			return c, true
		}
	}
	return ChainInfo{}, false
}

// GetStablecoin looks up a stablecoin by symbol.
func GetStablecoin(symbol string) (StablecoinInfo, bool) {
	for _, s := range Stablecoins {
		if s.Symbol == symbol {
			return s, true
		}
	}
	return StablecoinInfo{}, false
}

// StablecoinAddress returns the token's contract address on a chain.
func StablecoinAddress(symbol string, chainID int64) (string, bool) {
	coin, ok := GetStablecoin(symbol)
	if !ok {
		return "", false
	}
	addr, ok := coin.Addresses[chainID]
	return addr, ok
}

package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// campaignABI covers the three entry points the service touches. The
// deposit call is never issued directly; its packed form rides in the
// bridge collaborator's execute descriptor.
const campaignABI = `[
	{
		"name": "getAllCampaigns",
		"type": "function",
		"stateMutability": "view",
		"inputs": [],
		"outputs": [
			{
				"type": "tuple[]",
				"components": [
					{"name": "creator", "type": "address"},
					{"name": "goal", "type": "uint256"},
					{"name": "pledged", "type": "uint256"},
					{"name": "deadline", "type": "uint256"},
					{"name": "released", "type": "bool"},
					{"name": "title", "type": "string"},
					{"name": "description", "type": "string"},
					{"name": "category", "type": "string"},
					{"name": "imageUrl", "type": "string"},
					{"name": "tags", "type": "string[]"}
				]
			}
		]
	},
	{
		"name": "createCampaign",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "goal", "type": "uint256"},
			{"name": "durationSeconds", "type": "uint256"},
			{"name": "title", "type": "string"},
			{"name": "description", "type": "string"},
			{"name": "category", "type": "string"},
			{"name": "imageUrl", "type": "string"},
			{"name": "tags", "type": "string[]"}
		],
		"outputs": []
	},
	{
		"name": "deposit",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "id", "type": "uint256"},
			{"name": "amount", "type": "uint256"}
		],
		"outputs": []
	}
]`

// DepositABIJSON is the single-function fragment handed to the bridge
// collaborator so it can invoke deposit on the destination chain.
const DepositABIJSON = `[
	{
		"inputs": [
			{"internalType": "uint256", "name": "id", "type": "uint256"},
			{"internalType": "uint256", "name": "amount", "type": "uint256"}
		],
		"name": "deposit",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// CampaignRecord is the raw on-chain tuple returned by getAllCampaigns.
type CampaignRecord struct {
	Creator     common.Address
	Goal        *big.Int
	Pledged     *big.Int
	Deadline    *big.Int
	Released    bool
	Title       string
	Description string
	Category    string
	ImageUrl    string
	Tags        []string
}

// CreateCampaignParams are the arguments for the createCampaign write.
type CreateCampaignParams struct {
	Goal            *big.Int
	DurationSeconds *big.Int
	Title           string
	Description     string
	Category        string
	ImageURL        string
	Tags            []string
}

// CampaignContract adapts the deployed crowdfunding contract. Reads
// need no key; writes are signed with the operator key.
type CampaignContract struct {
	client   Client
	address  common.Address
	abi      abi.ABI
	operator *ecdsa.PrivateKey
	chainID  *big.Int
}

// NewCampaignContract builds a contract adapter. operatorKeyHex may be
// empty for a read-only adapter.
func NewCampaignContract(ctx context.Context, client Client, address string, operatorKeyHex string) (*CampaignContract, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid campaign contract address %q", address)
	}
	parsed, err := abi.JSON(strings.NewReader(campaignABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse campaign ABI: %w", err)
	}

	c := &CampaignContract{
		client:  client,
		address: common.HexToAddress(address),
		abi:     parsed,
	}

	if operatorKeyHex != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(operatorKeyHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("failed to parse operator private key: %w", err)
		}
		c.operator = key
		chainID, err := client.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get chain id: %w", err)
		}
		c.chainID = chainID
	}

	return c, nil
}

// Address returns the contract address in hex.
func (c *CampaignContract) Address() string {
	return c.address.Hex()
}

// GetAllCampaigns issues the read-only enumeration call and returns the
// raw tuples. A failed read is returned, never swallowed.
func (c *CampaignContract) GetAllCampaigns(ctx context.Context) ([]CampaignRecord, error) {
	data, err := c.abi.Pack("getAllCampaigns")
	if err != nil {
		return nil, fmt.Errorf("failed to pack getAllCampaigns call: %w", err)
	}

	out, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &c.address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("getAllCampaigns call failed: %w", err)
	}

	results, err := c.abi.Unpack("getAllCampaigns", out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack getAllCampaigns result: %w", err)
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("unexpected getAllCampaigns result arity %d", len(results))
	}

	records := *abi.ConvertType(results[0], new([]CampaignRecord)).(*[]CampaignRecord)
	return records, nil
}

// createConfirmations is how many blocks a createCampaign write must
// sit under before we report it committed.
const createConfirmations = 1

// CreateCampaign signs and sends the createCampaign write, then waits
// for the transaction to confirm before returning its hash.
func (c *CampaignContract) CreateCampaign(ctx context.Context, params CreateCampaignParams) (string, error) {
	if c.operator == nil {
		return "", fmt.Errorf("contract adapter is read-only: no operator key configured")
	}

	data, err := c.abi.Pack("createCampaign",
		params.Goal,
		params.DurationSeconds,
		params.Title,
		params.Description,
		params.Category,
		params.ImageURL,
		params.Tags,
	)
	if err != nil {
		return "", fmt.Errorf("failed to pack createCampaign call: %w", err)
	}

	from := crypto.PubkeyToAddress(c.operator.PublicKey)
	nonce, err := c.client.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}
	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}
	gasLimit, err := c.client.EstimateGas(ctx, ethereum.CallMsg{
		From: from,
		To:   &c.address,
		Data: data,
	})
	if err != nil {
		return "", fmt.Errorf("failed to estimate gas: %w", err)
	}

	tx := types.NewTransaction(nonce, c.address, big.NewInt(0), gasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.operator)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("failed to send createCampaign transaction: %w", err)
	}
	if _, err := ConfirmTransaction(ctx, c.client, signed.Hash(), createConfirmations); err != nil {
		return "", fmt.Errorf("createCampaign transaction %s failed to confirm: %w", signed.Hash(), err)
	}
	return signed.Hash().Hex(), nil
}

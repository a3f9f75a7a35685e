package evm

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Client is the subset of the JSON-RPC node API the service relies on.
// *ethclient.Client satisfies it; tests use MockClient.
type Client interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Dial connects to an RPC endpoint.
func Dial(ctx context.Context, endpoint string) (*ethclient.Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("rpc endpoint not set")
	}
	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rpc endpoint %s: %w", endpoint, err)
	}
	return client, nil
}

// CheckRPCHealth verifies connectivity by asking the node for its chain
// ID. Called at server startup so misconfiguration fails fast.
func CheckRPCHealth(ctx context.Context, client Client) error {
	if _, err := client.ChainID(ctx); err != nil {
		return fmt.Errorf("rpc health check failed: %w", err)
	}
	return nil
}

// ConfirmTransaction polls until the transaction is mined and has
// reached the requested confirmation count, or the context ends.
// Callers decide how long to wait via ctx.
func ConfirmTransaction(ctx context.Context, client Client, txHash common.Hash, confirmations uint64) (*types.Receipt, error) {
	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for {
		receipt, err := client.TransactionReceipt(ctx, txHash)
		if err == nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return receipt, fmt.Errorf("transaction %s reverted", txHash)
			}
			if confirmations == 0 {
				return receipt, nil
			}
			head, err := client.BlockNumber(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to get block number: %w", err)
			}
			if head >= receipt.BlockNumber.Uint64()+confirmations-1 {
				return receipt, nil
			}
		}
		// Not mined or not confirmed yet; keep polling.
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context ended while waiting for confirmation of %s: %w", txHash, ctx.Err())
		case <-ticker.C:
		}
	}
}

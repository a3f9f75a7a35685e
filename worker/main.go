package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/nexusfund/nexusfund/evm"
	"github.com/nexusfund/nexusfund/fund"
	nfhttp "github.com/nexusfund/nexusfund/http"
)

// CheckConnection dials Temporal and returns; used as a startup
// liveness check.
func CheckConnection(ctx context.Context, l *slog.Logger, thp, tns string) error {
	c, err := client.Dial(client.Options{
		Logger:    l,
		HostPort:  thp,
		Namespace: tns,
	})
	if err != nil {
		return fmt.Errorf("couldn't connect to temporal at %s: %w", thp, err)
	}
	c.Close()
	l.Info("Temporal connection OK", "host", thp, "namespace", tns)
	return nil
}

func RunWorker(ctx context.Context, l *slog.Logger, thp, tns string) error {
	// connect to temporal
	c, err := client.Dial(client.Options{
		Logger:    l,
		HostPort:  thp,
		Namespace: tns,
	})
	if err != nil {
		return fmt.Errorf("couldn't initialize temporal client: %w", err)
	}
	defer c.Close()

	taskQueue := os.Getenv(nfhttp.EnvTaskQueue)
	if taskQueue == "" {
		taskQueue = fund.TaskQueueName
	}

	activities, err := buildActivities(ctx)
	if err != nil {
		return fmt.Errorf("failed to create activities: %w", err)
	}

	w := worker.New(c, taskQueue, worker.Options{})

	// Register all workflows
	w.RegisterWorkflow(fund.PledgeWorkflow)
	w.RegisterWorkflow(fund.CreateCampaignWorkflow)

	// Register all activities
	w.RegisterActivity(activities.BridgeAndExecute)
	w.RegisterActivity(activities.CreateCampaign)
	w.RegisterActivity(activities.GetUnifiedBalances)

	l.Info("Starting worker", "TaskQueue", taskQueue)
	err = w.Run(worker.InterruptCh())
	l.Info("Worker stopped")
	return err
}

// buildActivities wires the bridge client and the write-capable
// contract adapter from the environment.
func buildActivities(ctx context.Context) (*fund.Activities, error) {
	rpcEndpoint := os.Getenv(nfhttp.EnvEVMRPCEndpoint)
	if rpcEndpoint == "" {
		return nil, fmt.Errorf("%s environment variable not set", nfhttp.EnvEVMRPCEndpoint)
	}
	contractAddress := os.Getenv(nfhttp.EnvCampaignContractAddress)
	if contractAddress == "" {
		return nil, fmt.Errorf("%s environment variable not set", nfhttp.EnvCampaignContractAddress)
	}

	evmClient, err := evm.Dial(ctx, rpcEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial EVM RPC %s: %w", rpcEndpoint, err)
	}
	if err := evm.CheckRPCHealth(ctx, evmClient); err != nil {
		return nil, fmt.Errorf("EVM RPC health check failed for %s: %w", rpcEndpoint, err)
	}

	// The operator key is optional; without it campaign creation
	// activities fail at call time while pledge bridging still works.
	contract, err := evm.NewCampaignContract(ctx, evmClient, contractAddress, os.Getenv(nfhttp.EnvEVMOperatorPrivateKey))
	if err != nil {
		return nil, fmt.Errorf("failed to bind campaign contract: %w", err)
	}

	bridger := fund.NewBridgeClient(fund.BridgeConfig{
		BaseURL: os.Getenv(nfhttp.EnvBridgeAPIURL),
		APIKey:  os.Getenv(nfhttp.EnvBridgeAPIKey),
		Network: os.Getenv(nfhttp.EnvBridgeNetwork),
	})

	return fund.NewActivities(bridger, contract), nil
}

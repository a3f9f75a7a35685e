package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"go.temporal.io/sdk/client"

	"github.com/nexusfund/nexusfund/evm"
	"github.com/nexusfund/nexusfund/fund"
	"github.com/nexusfund/nexusfund/http/api"
	"github.com/nexusfund/nexusfund/internal/stools"
	"github.com/nexusfund/nexusfund/wallet"
)

// Environment Variable Keys
const (
	EnvServerSecretKey         = "NEXUSFUND_SECRET_KEY"
	EnvServerEnv               = "ENV"
	EnvTaskQueue               = "TASK_QUEUE"
	EnvEVMRPCEndpoint          = "EVM_RPC_ENDPOINT"
	EnvCampaignContractAddress = "CAMPAIGN_CONTRACT_ADDRESS"
	EnvEVMOperatorPrivateKey   = "EVM_OPERATOR_PRIVATE_KEY"
	EnvBridgeAPIURL            = "BRIDGE_API_URL"
	EnvBridgeAPIKey            = "BRIDGE_API_KEY"
	EnvBridgeNetwork           = "BRIDGE_NETWORK"
	EnvWalletProviderURL       = "WALLET_PROVIDER_URL"
	EnvWalletProviderKey       = "WALLET_PROVIDER_KEY"
)

const (
	campaignCacheTTL  = 30 * time.Second
	campaignCacheSize = 128
	commentCacheTTL   = 24 * time.Hour
	commentCacheSize  = 1024

	// maxRequestBody caps client request bodies accepted by apiMode.
	maxRequestBody int64 = 1 << 20
)

func writeOK(w http.ResponseWriter) {
	resp := api.DefaultJSONResponse{Message: "ok"}
	writeJSONResponse(w, resp, http.StatusOK)
}

func writeInternalError(l *slog.Logger, w http.ResponseWriter, e error) {
	l.Error("internal error", "error", e.Error())
	resp := api.DefaultJSONResponse{Error: "internal error"}
	writeJSONResponse(w, resp, http.StatusInternalServerError)
}

func writeBadRequestError(w http.ResponseWriter, err error) {
	resp := api.DefaultJSONResponse{Error: err.Error()}
	writeJSONResponse(w, resp, http.StatusBadRequest)
}

func writeNotFoundError(w http.ResponseWriter) {
	resp := api.DefaultJSONResponse{Error: "not found"}
	writeJSONResponse(w, resp, http.StatusNotFound)
}

func writeUnauthorized(w http.ResponseWriter) {
	resp := api.DefaultJSONResponse{Error: "unauthorized"}
	writeJSONResponse(w, resp, http.StatusUnauthorized)
}

func writeMethodNotAllowedError(w http.ResponseWriter) {
	resp := api.DefaultJSONResponse{Error: "method not allowed"}
	writeJSONResponse(w, resp, http.StatusMethodNotAllowed)
}

func writeJSONResponse(w http.ResponseWriter, resp interface{}, code int) {
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}

func taskQueue() string {
	if q := os.Getenv(EnvTaskQueue); q != "" {
		return q
	}
	return fund.TaskQueueName
}

func corsFromEnv(logger *slog.Logger) (headers, methods, origins []string) {
	allowedOriginsEnv := os.Getenv("CORS_ORIGINS")
	if allowedOriginsEnv == "*" {
		origins = []string{"*"}
		logger.Warn("CORS configured to allow all origins (*)")
	} else if allowedOriginsEnv != "" {
		origins = strings.Split(allowedOriginsEnv, ",")
		logger.Info("CORS configured with specific origins", "origins", origins)
	} else {
		logger.Warn("CORS_ORIGINS not set, CORS might not function correctly")
		origins = []string{}
	}

	if allowedMethodsEnv := os.Getenv("CORS_METHODS"); allowedMethodsEnv != "" {
		methods = strings.Split(allowedMethodsEnv, ",")
	} else {
		methods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}

	if allowedHeadersEnv := os.Getenv("CORS_HEADERS"); allowedHeadersEnv != "" {
		headers = strings.Split(allowedHeadersEnv, ",")
	} else {
		headers = []string{"Authorization", "Content-Type", "X-Requested-With"}
	}
	return headers, methods, origins
}

// RunServer starts the HTTP server with the given configuration
func RunServer(ctx context.Context, logger *slog.Logger, tc client.Client, port string) error {
	mux := http.NewServeMux()

	allowedHeaders, allowedMethods, allowedOrigins := corsFromEnv(logger)

	rpcEndpoint := os.Getenv(EnvEVMRPCEndpoint)
	if rpcEndpoint == "" {
		return fmt.Errorf("server startup error: %s not set", EnvEVMRPCEndpoint)
	}
	contractAddress := os.Getenv(EnvCampaignContractAddress)
	if contractAddress == "" {
		return fmt.Errorf("server startup error: %s not set", EnvCampaignContractAddress)
	}

	evmClient, err := evm.Dial(ctx, rpcEndpoint)
	if err != nil {
		return fmt.Errorf("server startup error: failed to dial EVM RPC %s: %w", rpcEndpoint, err)
	}
	if err := evm.CheckRPCHealth(ctx, evmClient); err != nil {
		return fmt.Errorf("server startup error: EVM RPC health check failed for %s: %w", rpcEndpoint, err)
	}
	logger.Debug("Successfully connected to EVM RPC", "endpoint", rpcEndpoint)

	// The server only reads the contract; writes go through the worker.
	contract, err := evm.NewCampaignContract(ctx, evmClient, contractAddress, "")
	if err != nil {
		return fmt.Errorf("server startup error: failed to bind campaign contract: %w", err)
	}
	reader := fund.NewReadModel(contract, evm.HomeChainID)

	bridger := fund.NewBridgeClient(fund.BridgeConfig{
		BaseURL: os.Getenv(EnvBridgeAPIURL),
		APIKey:  os.Getenv(EnvBridgeAPIKey),
		Network: os.Getenv(EnvBridgeNetwork),
	})

	walletMgr := wallet.NewManager(wallet.NewHTTPProvider(wallet.ProviderConfig{
		BaseURL: os.Getenv(EnvWalletProviderURL),
		APIKey:  os.Getenv(EnvWalletProviderKey),
	}))

	currentEnv := os.Getenv(EnvServerEnv)
	if currentEnv == "" {
		currentEnv = "dev"
		logger.Warn("ENV environment variable not set, defaulting to 'dev'")
	}

	campaignCache := lru.NewLRU[string, []fund.Campaign](campaignCacheSize, nil, campaignCacheTTL)
	commentCache := lru.NewLRU[string, []fund.Comment](commentCacheSize, nil, commentCacheTTL)

	// Rate limiter for pledge submissions, keyed by JWT subject.
	pledgeLimiter := NewRateLimiter(1*time.Minute, 30)

	// Panic recovery, JSON content type, body cap, and per-IP rate
	// limiting for every route.
	api := apiMode(logger, maxRequestBody)

	mux.HandleFunc("GET /ping", stools.AdaptHandler(
		handlePing(),
		api,
		withLogging(logger),
	))

	mux.HandleFunc("POST /token", stools.AdaptHandler(
		handleIssueSudoToken(logger),
		api,
		withLogging(logger),
		atLeastOneAuth(oauthAuthorizerForm(getSecretKey)),
	))

	// campaign listing + detail
	mux.HandleFunc("GET /campaigns", stools.AdaptHandler(
		handleListCampaigns(logger, reader, campaignCache),
		api,
		withLogging(logger),
	))
	mux.HandleFunc("GET /campaigns/{id}", stools.AdaptHandler(
		handleGetCampaign(logger, reader, campaignCache),
		api,
		withLogging(logger),
	))

	// campaign creation wizard; writes are operator-only
	mux.HandleFunc("POST /campaigns", stools.AdaptHandler(
		handleCreateCampaign(logger, tc),
		api,
		withLogging(logger),
		atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
		requireStatus(UserStatusSudo),
	))
	mux.HandleFunc("POST /campaigns/validate", stools.AdaptHandler(
		handleValidateCampaignStep(logger),
		api,
		withLogging(logger),
	))

	// pledge lifecycle
	mux.HandleFunc("POST /pledges", stools.AdaptHandler(
		handleCreatePledge(logger, tc, contractAddress),
		api,
		withLogging(logger),
		jwtRateLimitMiddleware(pledgeLimiter, "subject"),
		atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
	))
	mux.HandleFunc("GET /pledges/{id}", stools.AdaptHandler(
		handleGetPledge(logger, tc),
		api,
		withLogging(logger),
	))
	mux.HandleFunc("POST /pledges/{id}/cancel", stools.AdaptHandler(
		handleCancelPledge(logger, tc),
		api,
		withLogging(logger),
		atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
	))

	mux.HandleFunc("GET /balances", stools.AdaptHandler(
		handleGetBalances(logger, bridger),
		api,
		withLogging(logger),
		atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
	))

	// comments (session-local optimistic echo)
	mux.HandleFunc("GET /campaigns/{id}/comments", stools.AdaptHandler(
		handleListComments(logger, commentCache),
		api,
		withLogging(logger),
	))
	mux.HandleFunc("POST /campaigns/{id}/comments", stools.AdaptHandler(
		handleCreateComment(logger, commentCache),
		api,
		withLogging(logger),
		atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
	))

	// wallet session
	mux.HandleFunc("GET /session", stools.AdaptHandler(
		handleGetSession(logger, walletMgr),
		api,
		withLogging(logger),
		atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
	))
	mux.HandleFunc("POST /session/connect", stools.AdaptHandler(
		handleConnectSession(logger, walletMgr),
		api,
		withLogging(logger),
		atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
	))
	mux.HandleFunc("DELETE /session", stools.AdaptHandler(
		handleDisconnectSession(logger, walletMgr),
		api,
		withLogging(logger),
		atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
	))
	mux.HandleFunc("POST /session/link", stools.AdaptHandler(
		handleLinkWallet(logger, walletMgr),
		api,
		withLogging(logger),
		atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
	))
	mux.HandleFunc("POST /session/chain", stools.AdaptHandler(
		handleSwitchChain(logger, walletMgr),
		api,
		withLogging(logger),
		atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
	))

	// Apply CORS globally
	corsHandler := handlers.CORS(
		handlers.AllowedHeaders(allowedHeaders),
		handlers.AllowedMethods(allowedMethods),
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowCredentials(),
	)(mux)

	server := &http.Server{
		Addr:    ":" + port,
		Handler: corsHandler,
	}

	go func() {
		logger.Info("http server listening", "port", port, "env", currentEnv)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down HTTP server")
	return server.Shutdown(context.Background())
}

// withLogging wraps a handler with logging middleware
func withLogging(logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next(w, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"duration", time.Since(start),
				"remote_addr", r.RemoteAddr,
			)
		}
	}
}

// handlePing returns a handler for the ping endpoint
func handlePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, api.DefaultJSONResponse{Message: "pong"}, http.StatusOK)
	}
}

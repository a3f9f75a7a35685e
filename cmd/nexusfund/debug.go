package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/urfave/cli/v2"
)

func debugCommands() []*cli.Command {
	endpointFlag := &cli.StringFlag{
		Name:    "endpoint",
		Usage:   "Server endpoint",
		EnvVars: []string{EnvServerEndpoint},
		Value:   "http://localhost:8080",
	}
	tokenFlag := &cli.StringFlag{
		Name:    "token",
		Usage:   "Bearer token",
		EnvVars: []string{EnvAuthToken},
	}

	return []*cli.Command{
		{
			Name:  "list-campaigns",
			Usage: "List campaigns from the server",
			Flags: []cli.Flag{
				endpointFlag,
				&cli.StringFlag{Name: "q", Usage: "Search term"},
				&cli.StringFlag{Name: "category", Usage: "Category filter"},
				&cli.StringFlag{Name: "status", Usage: "Status filter"},
				&cli.StringFlag{Name: "sort", Usage: "Sort key (newest, trending, ending-soon, most-funded)"},
			},
			Action: listCampaigns,
		},
		{
			Name:  "submit-pledge",
			Usage: "Submit a test pledge",
			Flags: []cli.Flag{
				endpointFlag,
				tokenFlag,
				&cli.StringFlag{Name: "campaign-id", Required: true},
				&cli.StringFlag{Name: "amount", Required: true, Usage: "Human-entered decimal amount"},
				&cli.StringFlag{Name: "currency", Value: "USDC"},
				&cli.StringFlag{Name: "pledger-address", Required: true},
				&cli.Int64Flag{Name: "source-chain-id", Required: true},
				&cli.StringFlag{Name: "client-ref", Usage: "Pins the pledge workflow ID for duplicate-safe retries"},
			},
			Action: submitPledge,
		},
		{
			Name:  "pledge-status",
			Usage: "Query a pledge workflow's status",
			Flags: []cli.Flag{
				endpointFlag,
				&cli.StringFlag{Name: "pledge-id", Required: true},
			},
			Action: pledgeStatus,
		},
		{
			Name:  "cancel-pledge",
			Usage: "Cancel an in-flight pledge",
			Flags: []cli.Flag{
				endpointFlag,
				tokenFlag,
				&cli.StringFlag{Name: "pledge-id", Required: true},
			},
			Action: cancelPledge,
		},
	}
}

func listCampaigns(ctx *cli.Context) error {
	q := url.Values{}
	for _, k := range []string{"q", "category", "status", "sort"} {
		if v := ctx.String(k); v != "" {
			q.Set(k, v)
		}
	}
	target := ctx.String("endpoint") + "/campaigns"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	res, err := http.Get(target)
	if err != nil {
		return fmt.Errorf("could not do server request: %w", err)
	}
	return printServerResponse(res)
}

func submitPledge(ctx *cli.Context) error {
	req := map[string]interface{}{
		"campaign_id":     ctx.String("campaign-id"),
		"amount":          ctx.String("amount"),
		"currency":        ctx.String("currency"),
		"pledger_address": ctx.String("pledger-address"),
		"source_chain_id": ctx.Int64("source-chain-id"),
	}
	if ref := ctx.String("client-ref"); ref != "" {
		req["client_ref"] = ref
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("could not serialize request: %w", err)
	}

	r, err := http.NewRequest(http.MethodPost, ctx.String("endpoint")+"/pledges", bytes.NewReader(body))
	if err != nil {
		return err
	}
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Authorization", "Bearer "+ctx.String("token"))
	res, err := http.DefaultClient.Do(r)
	if err != nil {
		return fmt.Errorf("could not do server request: %w", err)
	}
	return printServerResponse(res)
}

func pledgeStatus(ctx *cli.Context) error {
	res, err := http.Get(ctx.String("endpoint") + "/pledges/" + ctx.String("pledge-id"))
	if err != nil {
		return fmt.Errorf("could not do server request: %w", err)
	}
	return printServerResponse(res)
}

func cancelPledge(ctx *cli.Context) error {
	r, err := http.NewRequest(http.MethodPost, ctx.String("endpoint")+"/pledges/"+ctx.String("pledge-id")+"/cancel", nil)
	if err != nil {
		return err
	}
	r.Header.Set("Authorization", "Bearer "+ctx.String("token"))
	res, err := http.DefaultClient.Do(r)
	if err != nil {
		return fmt.Errorf("could not do server request: %w", err)
	}
	return printServerResponse(res)
}

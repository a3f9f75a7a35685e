package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/nexusfund/nexusfund/http/api"
)

var (
	EnvServerSecretKey = "NEXUSFUND_SECRET_KEY"
	EnvServerEndpoint  = "SERVER_ENDPOINT"
	EnvAuthToken       = "AUTH_TOKEN"
)

func adminCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "get-token",
			Usage: "Fetch a sudo bearer token from the server",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "endpoint",
					Usage:   "Server endpoint",
					EnvVars: []string{EnvServerEndpoint},
					Value:   "http://localhost:8080",
				},
				&cli.StringFlag{
					Name:     "email",
					Usage:    "Operator email to bind to the token",
					Required: true,
				},
				&cli.StringFlag{
					Name:    "secret-key",
					Usage:   "Server secret key",
					EnvVars: []string{EnvServerSecretKey},
				},
				&cli.StringFlag{
					Name:  "env-file",
					Usage: "Write the token into this env file as AUTH_TOKEN",
				},
			},
			Action: getAuthToken,
		},
	}
}

func getAuthToken(ctx *cli.Context) error {
	form := url.Values{}
	form.Set("username", ctx.String("email"))
	form.Set("password", ctx.String("secret-key"))

	res, err := http.PostForm(ctx.String("endpoint")+"/token", form)
	if err != nil {
		return fmt.Errorf("could not do server request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("could not read response body: %w", err)
	}

	var resp api.TokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}
	if resp.AccessToken == "" {
		return fmt.Errorf("server did not return a token (response code %d): %s", res.StatusCode, string(body))
	}

	// Handle env file update if specified
	envFile := ctx.String("env-file")
	if envFile != "" {
		content, err := os.ReadFile(envFile)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read .env file: %w", err)
		}

		lines := strings.Split(string(content), "\n")
		found := false
		for i, line := range lines {
			if strings.HasPrefix(line, "AUTH_TOKEN=") {
				lines[i] = fmt.Sprintf("AUTH_TOKEN=%s", resp.AccessToken)
				found = true
				break
			}
		}
		if !found {
			lines = append(lines, fmt.Sprintf("AUTH_TOKEN=%s", resp.AccessToken))
		}

		if err := os.WriteFile(envFile, []byte(strings.Join(lines, "\n")), 0644); err != nil {
			return fmt.Errorf("failed to write .env file: %w", err)
		}
		fmt.Printf("Bearer token written to %s\n", envFile)
	}

	res.Body = io.NopCloser(bytes.NewReader(body))
	return printServerResponse(res)
}

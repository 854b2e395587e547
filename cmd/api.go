package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/filmx/internal/services"
	"github.com/desertthunder/filmx/internal/shared"
)

// requestOpts maps the shared request flags to per-request options.
func requestOpts(cmd *cli.Command) []services.RequestOption {
	if cmd.Bool("anonymous") {
		return []services.RequestOption{services.WithoutCredential()}
	}
	return nil
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIGet makes a direct GET request to the API, authenticated with the current session when there is one.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	if _, _, err := r.resolve(ctx); err != nil {
		return err
	}
	if r.api == nil {
		return fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.api.Get(ctx, path, requestOpts(cmd)...)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}

	return r.writeResponse(resp, !cmd.Bool("compact"))
}

// APIPost makes a direct POST request to the API with a JSON body.
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	if _, _, err := r.resolve(ctx); err != nil {
		return err
	}
	if r.api == nil {
		return fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("POST request", "path", path)

	resp, err := r.api.Post(ctx, path, []byte(data), requestOpts(cmd)...)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}

	return r.writeResponse(resp, !cmd.Bool("compact"))
}

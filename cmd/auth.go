package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/filmx/internal/formatter"
	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/session"
	"github.com/desertthunder/filmx/internal/shared"
)

// statusReport is the JSON shape of `auth status`.
type statusReport struct {
	Status  string              `json:"status"`
	User    *models.UserProfile `json:"user,omitempty"`
	Storage string              `json:"storage"`
	API     string              `json:"api"`
}

func (r *Runner) report(st session.State) statusReport {
	rep := statusReport{Status: st.Status().String(), Storage: r.storageName()}
	if r.api != nil {
		rep.API = r.api.BaseURL()
	}
	if p, ok := st.Profile(); ok {
		rep.User = &p
	}
	return rep
}

// flagOrPrompt returns the flag value, asking on the runner's input when it is empty.
func (r *Runner) flagOrPrompt(cmd *cli.Command, name, label string, secret bool) (string, error) {
	if v := cmd.String(name); v != "" {
		return v, nil
	}
	return r.prompt(label, secret)
}

// resolve bootstraps the session and waits for a known state.
func (r *Runner) resolve(ctx context.Context) (*session.Manager, session.State, error) {
	mgr, err := r.manager()
	if err != nil {
		return nil, session.State{}, err
	}

	st := mgr.Bootstrap(ctx)
	if !st.Known() {
		if st, err = mgr.Await(ctx); err != nil {
			return nil, st, fmt.Errorf("%w: session did not resolve: %v", shared.ErrTimeout, err)
		}
	}
	return mgr, st, nil
}

func displayName(p models.UserProfile) string {
	if p.Name != "" {
		return fmt.Sprintf("%s <%s>", p.Name, p.Email)
	}
	return p.Email
}

// AuthLogin exchanges an email and password for a session credential and persists it.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	mgr, _, err := r.resolve(ctx)
	if err != nil {
		return err
	}

	email, err := r.flagOrPrompt(cmd, "email", "Email", false)
	if err != nil {
		return err
	}
	password, err := r.flagOrPrompt(cmd, "password", "Password", true)
	if err != nil {
		return err
	}

	r.logger.Info("logging in", "user", email)

	profile, err := mgr.Login(ctx, email, password)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(r.report(mgr.Current()), true)
	}

	r.writePlain("✓ Logged in as %s\n", displayName(profile))
	if r.storageName() == "memory only" {
		r.writePlain("! Credential storage is unavailable; this session ends when filmx exits\n")
	}
	return nil
}

// AuthRegister creates an account. It does not log in.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	mgr, err := r.manager()
	if err != nil {
		return err
	}

	name, err := r.flagOrPrompt(cmd, "name", "Name", false)
	if err != nil {
		return err
	}
	email, err := r.flagOrPrompt(cmd, "email", "Email", false)
	if err != nil {
		return err
	}
	password, err := r.flagOrPrompt(cmd, "password", "Password", true)
	if err != nil {
		return err
	}

	profile, err := mgr.Register(ctx, name, email, password)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(profile, true)
	}

	r.writePlain("✓ Account created for %s\n", displayName(profile))
	return r.writePlainln("Next step: run 'filmx auth login --email %s' to start a session.", profile.Email)
}

// AuthLogout ends the session and removes the stored credential.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	mgr, err := r.manager()
	if err != nil {
		return err
	}

	mgr.Logout()
	r.logger.Info("logged out")
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus resolves the stored session and reports it.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	_, st, err := r.resolve(ctx)
	if err != nil {
		return err
	}

	rep := r.report(st)
	if cmd.Bool("json") {
		return r.writeJSON(rep, true)
	}

	r.writePlainHeader("Session")
	r.writePlain("Status:  %s\n", rep.Status)
	if rep.User != nil {
		r.writePlain("User:    %s\n", displayName(*rep.User))
	}
	r.writePlain("Storage: %s\n", rep.Storage)
	return r.writePlain("API:     %s\n", rep.API)
}

// AuthWhoami prints the authenticated user's profile.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	_, st, err := r.resolve(ctx)
	if err != nil {
		return err
	}

	profile, ok := st.Profile()
	if !ok {
		return fmt.Errorf("%w: run 'filmx auth login' first", shared.ErrNotAuthenticated)
	}

	format := cmd.String("format")
	if path := cmd.String("output"); path != "" {
		written, err := formatter.WriteProfileExport(profile, format, path)
		if err != nil {
			return err
		}
		r.logger.Info("profile exported", "path", written)
		return r.writePlain("✓ Profile written to %s\n", written)
	}

	data, err := formatter.Render(profile, format)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// AuthRefresh re-verifies the stored credential with the API.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	mgr, st, err := r.resolve(ctx)
	if err != nil {
		return err
	}
	if !st.Authenticated() {
		return fmt.Errorf("%w: run 'filmx auth login' first", shared.ErrNotAuthenticated)
	}

	st = mgr.Refresh(ctx)
	profile, ok := st.Profile()
	if !ok {
		return fmt.Errorf("%w: session ended, log in again", shared.ErrNotAuthenticated)
	}
	return r.writePlain("✓ Session verified for %s\n", displayName(profile))
}

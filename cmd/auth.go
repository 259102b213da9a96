package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// AuthLogin logs in and persists the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	if err := r.session.Login(ctx, cmd.String("email"), cmd.String("password")); err != nil {
		return err
	}

	user := r.session.User()
	return r.writePlain("✓ Logged in as %s\n", user.Fullname)
}

// AuthRegister creates an account. The user still has to log in afterwards.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	password := cmd.String("password")
	confirm := password
	if cmd.IsSet("confirm") {
		confirm = cmd.String("confirm")
	}

	if err := r.session.Register(ctx, cmd.String("fullname"), cmd.String("email"), password, confirm); err != nil {
		return err
	}

	r.writePlain("✓ Registration successful\n")
	return r.writePlainln("Run 'pathfinder auth login --email %s' to log in", cmd.String("email"))
}

// AuthLogout clears the token, the user and the cached job matches.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	if !r.session.Authenticated() {
		return r.writePlain("Not logged in\n")
	}
	if err := r.session.Logout(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus shows the logged in user, or the login and sign up prompt.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	user := r.session.User()
	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"state": r.session.State().String(),
			"user":  user,
		}, true)
	}

	if user == nil {
		r.writePlain("Log In · Sign Up\n")
		return r.writePlain("Run 'pathfinder auth login' or 'pathfinder auth register'\n")
	}

	r.writePlain("✓ Logged in as %s\n", user.Fullname)
	if user.Email != "" {
		r.writePlain("Email: %s\n", user.Email)
	}
	return nil
}

// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/pathfinder/internal/formatter"
)

var formatUsage = "Output format (" + strings.Join(formatter.Formats, ", ") + ")"

// setupCommand creates the config file and initializes storage.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize storage",
		Action: r.Setup,
	}
}

// authCommand handles account and session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Log in, sign up and manage the saved session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in and save the session",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Sources:  cli.EnvVars("PATHFINDER_PASSWORD"),
						Required: true,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "fullname",
						Aliases:  []string{"n"},
						Usage:    "Full name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Sources:  cli.EnvVars("PATHFINDER_PASSWORD"),
						Required: true,
					},
					&cli.StringFlag{
						Name:  "confirm",
						Usage: "Repeat the password (defaults to --password)",
					},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Forget the saved session and cached job matches",
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Show who is logged in",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// analyzeCommand uploads a CV and prints the job matches
func analyzeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"upload"},
		Usage:     "Upload a PDF CV and show matching jobs",
		ArgsUsage: "<file.pdf>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "file"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "drop",
				Usage: "Record the file as dropped rather than picked",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   formatUsage,
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Also write the matches to this file",
			},
		},
		Action: r.Analyze,
	}
}

// resultsCommand reads the cached job matches
func resultsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "results",
		Aliases: []string{"jobs"},
		Usage:   "Show or open the last job matches",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the cached job matches",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   formatUsage,
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to this file instead of stdout",
					},
				},
				Action: r.ResultsShow,
			},
			{
				Name:      "open",
				Usage:     "Open a listing in the browser",
				ArgsUsage: "<group> <listing>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "group"},
					&cli.StringArg{Name: "listing"},
				},
				Action: r.ResultsOpen,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal UI",
		Action:  r.TUI,
	}
}

// devServerCommand runs the local stand-in for the PathFinder backend.
func devServerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "devserver",
		Usage: "Run a local auth and CV analysis server for development",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to [server] host:port)",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "SQLite database for accounts (defaults to [server] database_path)",
			},
		},
		Action: r.DevServer,
		Commands: []*cli.Command{
			devAccountsCommand(r),
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration of the dev database",
				Action: r.DevRollback,
			},
		},
	}
}

// devAccountsCommand returns the dev server account administration commands.
func devAccountsCommand(r *Runner) *cli.Command {
	jsonFlag := func() cli.Flag {
		return &cli.BoolFlag{Name: "json", Usage: "Print JSON"}
	}

	return &cli.Command{
		Name:  "accounts",
		Usage: "Manage dev server accounts",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List active accounts",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "email",
						Usage: "Only show the account with this email",
					},
					jsonFlag(),
				},
				Action: r.DevAccountsList,
			},
			{
				Name:      "show",
				Usage:     "Show one account",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.DevAccountsShow,
			},
			{
				Name:      "update",
				Usage:     "Rename an account or reset its password",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "fullname",
						Usage: "New full name",
					},
					&cli.StringFlag{
						Name:  "password",
						Usage: "New password (at least 6 characters)",
					},
				},
				Action: r.DevAccountsUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete an account and revoke its tokens",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.DevAccountsDelete,
			},
			{
				Name:      "revoke",
				Usage:     "Revoke a bearer token",
				ArgsUsage: "<token>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "token"},
				},
				Action: r.DevAccountsRevoke,
			},
		},
	}
}

// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func projectFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "project",
		Aliases: []string{"p"},
		Usage:   "Project ID or number (default: most recent)",
	}
}

func sceneFlag() cli.Flag {
	return &cli.IntFlag{
		Name:     "scene",
		Aliases:  []string{"s"},
		Usage:    "Scene number",
		Required: true,
	}
}

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the config file if needed, initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "status",
				Usage:  "Show applied and pending migrations",
				Action: r.SetupStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles account operations against the auth backend.
func authCommand(r *Runner) *cli.Command {
	emailFlag := func() cli.Flag {
		return &cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true}
	}
	passwordFlag := func() cli.Flag {
		return &cli.StringFlag{Name: "password", Usage: "Account password", Sources: cli.EnvVars("REELX_PASSWORD")}
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your reelx account session",
		Commands: []*cli.Command{
			{
				Name:   "signin",
				Usage:  "Sign in with email and password",
				Flags:  []cli.Flag{emailFlag(), passwordFlag()},
				Action: r.AuthSignIn,
			},
			{
				Name:  "signup",
				Usage: "Create an account",
				Flags: []cli.Flag{
					emailFlag(),
					passwordFlag(),
					&cli.StringFlag{Name: "confirm", Usage: "Repeat the password", Sources: cli.EnvVars("REELX_PASSWORD_CONFIRM")},
				},
				Action: r.AuthSignUp,
			},
			{
				Name:   "signout",
				Usage:  "Revoke and forget the stored session",
				Action: r.AuthSignOut,
			},
			{
				Name:   "status",
				Usage:  "Show the signed-in account",
				Action: r.AuthStatus,
			},
		},
	}
}

// tiktokCommand handles TikTok Login Kit operations.
func tiktokCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tiktok",
		Aliases: []string{"tt"},
		Usage:   "TikTok account operations",
		Commands: []*cli.Command{
			{
				Name:  "auth",
				Usage: "Connect a TikTok account using OAuth2",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "no-browser", Usage: "Print the authorization URL instead of opening it"},
				},
				Action: r.TikTokAuth,
			},
			{
				Name:  "whoami",
				Usage: "Show the connected TikTok profile",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.TikTokWhoAmI,
			},
		},
	}
}

// generateCommand runs the script graph and stores the result as a new project.
func generateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Generate a social post and video script from a prompt",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "prompt"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		},
		Action: r.Generate,
	}
}

// analyzeCommand runs the location graph.
func analyzeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Analyze a business location",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "location"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		},
		Action: r.Analyze,
	}
}

// projectsCommand lists and manages stored projects.
func projectsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "projects",
		Aliases: []string{"ls"},
		Usage:   "List saved projects",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Filter by prompt text"},
			&cli.IntFlag{Name: "limit", Usage: "Maximum number of projects to return", Value: 20},
		},
		Action: r.ProjectsList,
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show a project's content, scenes and renders",
				Flags:  []cli.Flag{projectFlag()},
				Action: r.ProjectsShow,
			},
			{
				Name:   "delete",
				Usage:  "Delete a project",
				Flags:  []cli.Flag{projectFlag()},
				Action: r.ProjectsDelete,
			},
		},
	}
}

// scenesCommand edits the scene list of a project.
func scenesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "scenes",
		Usage: "Review and edit a project's scenes",
		Flags: []cli.Flag{
			projectFlag(),
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		},
		Action: r.ScenesList,
		Commands: []*cli.Command{
			{
				Name:  "edit",
				Usage: "Set the description, duration or notes of a scene",
				Flags: []cli.Flag{
					projectFlag(),
					sceneFlag(),
					&cli.StringFlag{Name: "field", Aliases: []string{"f"}, Usage: "description, duration or notes", Required: true},
					&cli.StringFlag{Name: "value", Aliases: []string{"v"}, Usage: "New value"},
				},
				Action: r.ScenesEdit,
			},
			{
				Name:  "attach",
				Usage: "Attach a local video clip to a scene",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags:  []cli.Flag{projectFlag(), sceneFlag()},
				Action: r.ScenesAttach,
			},
			{
				Name:   "remove",
				Usage:  "Remove the video clip from a scene",
				Flags:  []cli.Flag{projectFlag(), sceneFlag()},
				Action: r.ScenesRemove,
			},
			{
				Name:  "export",
				Usage: "Export the shot list",
				Flags: []cli.Flag{
					projectFlag(),
					&cli.StringFlag{Name: "format", Usage: "json, csv, markdown or text", Value: "markdown"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file path"},
				},
				Action: r.ScenesExport,
			},
		},
	}
}

// renderCommand assembles and renders a project.
func renderCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "Upload scene clips and render the final video",
		Flags: []cli.Flag{
			projectFlag(),
			&cli.StringFlag{Name: "download", Aliases: []string{"d"}, Usage: "Save the finished video to this path"},
		},
		Action: r.Render,
	}
}

// statusCommand reports render job status.
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Check a render job (default: latest job of the project)",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "job"},
		},
		Flags: []cli.Flag{
			projectFlag(),
			&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Poll until the job finishes"},
			&cli.StringFlag{Name: "download", Aliases: []string{"d"}, Usage: "Save the finished video to this path"},
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		},
		Action: r.Status,
	}
}

// serveCommand runs the proxy server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the upload and rendering proxy server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (default: server.host:server.port)"},
		},
		Action: r.Serve,
	}
}

// helloCommand calls the proxy greeting.
func helloCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "hello",
		Usage:  "Check the proxy connection with the stored session",
		Action: r.Hello,
	}
}

// tuiCommand returns the top-level TUI command for interactive scene planning.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive scene planner",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "prompt"},
		},
		Flags: []cli.Flag{
			projectFlag(),
			&cli.BoolFlag{Name: "new", Usage: "Start a new project instead of resuming"},
		},
		Action: r.TUI,
	}
}

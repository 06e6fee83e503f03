package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nutriplan/internal/dashboard"
)

func init() {
	RootCmd.AddCommand(&cobra.Command{
		Use:   "login <username>",
		Short: "Log in to an existing profile",
		Args:  cobra.ExactArgs(1),
		Run:   runLogin,
	})
	RootCmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Run:   runLogout,
	})
	RootCmd.AddCommand(&cobra.Command{
		Use:   "whoami",
		Short: "Show the current profile",
		Run:   runWhoami,
	})
}

func runLogin(cmd *cobra.Command, args []string) {
	app, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer app.Close()

	user, err := app.dash.Login(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, dashboard.ErrSessionInvalid) {
			fmt.Fprintf(os.Stderr, "No profile named %q. Run `nutriplan register %s` to create one.\n", args[0], args[0])
			os.Exit(1)
		}
		exitErr("login", err)
	}
	printProfile(user)
}

func runLogout(cmd *cobra.Command, args []string) {
	app, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer app.Close()

	if err := app.dash.Logout(cmd.Context()); err != nil {
		exitErr("logout", err)
	}
	if err := app.plans.Clear(cmd.Context()); err != nil {
		exitErr("clear cached plan", err)
	}
	fmt.Println("Logged out.")
}

func runWhoami(cmd *cobra.Command, args []string) {
	app, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer app.Close()

	user, err := app.dash.Resume(cmd.Context())
	switch {
	case err == nil:
		printProfile(user)
	case errors.Is(err, dashboard.ErrNotLoggedIn):
		fmt.Println("Not logged in.")
	case errors.Is(err, dashboard.ErrSessionInvalid):
		fmt.Println("Saved session no longer matches a profile. Log in again.")
	default:
		exitErr("resume", err)
	}
}

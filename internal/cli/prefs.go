package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	prefsCmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change dietary preferences",
		Run:   runPrefsList,
	}
	prefsCmd.AddCommand(&cobra.Command{
		Use:   "toggle <key>",
		Short: "Flip a preference on or off, e.g. `nutriplan prefs toggle vegetarian`",
		Args:  cobra.ExactArgs(1),
		Run:   runPrefsToggle,
	})
	RootCmd.AddCommand(prefsCmd)
}

func runPrefsList(cmd *cobra.Command, args []string) {
	app, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer app.Close()

	user, err := app.dash.Resume(cmd.Context())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Log in first: nutriplan login <username>")
		os.Exit(1)
	}

	if len(user.Preferences) == 0 {
		fmt.Println("No preferences set yet.")
		return
	}

	keys := make([]string, 0, len(user.Preferences))
	for key := range user.Preferences {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		mark := " "
		if user.Preferences[key] {
			mark = "x"
		}
		fmt.Printf("  [%s] %s\n", mark, key)
	}
	fmt.Println("\nChanges apply the next time you generate a plan.")
}

func runPrefsToggle(cmd *cobra.Command, args []string) {
	key := strings.TrimSpace(args[0])
	if key == "" {
		exitErr("prefs", fmt.Errorf("preference key must not be empty"))
	}

	app, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer app.Close()

	user, err := app.dash.Resume(cmd.Context())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Log in first: nutriplan login <username>")
		os.Exit(1)
	}

	prefs := make(map[string]bool, len(user.Preferences))
	for k, enabled := range user.Preferences {
		prefs[k] = enabled
	}
	prefs[key] = !prefs[key]

	updated, err := app.dash.UpdatePreferences(cmd.Context(), prefs)
	if err != nil {
		exitErr("prefs", err)
	}

	state := "off"
	if updated.Preferences[key] {
		state = "on"
	}
	fmt.Printf("%s is now %s. Changes apply the next time you generate a plan.\n", key, state)
}

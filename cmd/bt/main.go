package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"bt-catalog/internal/app"
	"bt-catalog/internal/config"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file named by the defaults.
func loadConfig() (*app.Defaults, *config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, nil, fmt.Errorf("getting defaults: %w", err)
	}
	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}
	return defaults, cfg, nil
}

// newApp reads the config and creates a BTApp. The caller must defer
// closeApp. operation names the command in logs and in the catalog's
// LastOperation property.
func newApp(operation, parameters string) (*app.BTApp, error) {
	_, cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.NewBTApp(cfg, operation, parameters)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// closeApp closes a, marking the operation failed when *errp is set.
func closeApp(a *app.BTApp, errp *error) {
	if *errp != nil {
		a.Fail()
	}
	if err := a.Close(); err != nil && *errp == nil {
		*errp = err
	}
}

// readPassphrase prompts on the terminal without echo. When stdin is not a
// terminal the first line of stdin is used.
func readPassphrase(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

var rootCmd = &cobra.Command{
	Use:          "bt",
	Short:        "Backup catalog and content identity tool",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(identifyCmd)
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(contentsCmd)
	rootCmd.AddCommand(collectionsCmd)
	rootCmd.AddCommand(propertyCmd)
	rootCmd.AddCommand(vaultCmd)
}

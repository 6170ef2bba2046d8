package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the catalog",
}

var catalogInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the catalog if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp("InitCatalog", "")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		fmt.Printf("Catalog ready at %s\n", a.Catalog().Path())
		return nil
	},
}

var catalogCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the catalog schema version",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp("CheckCatalog", "")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if err := a.CheckCatalog(); err != nil {
			return err
		}
		files, err := a.Catalog().CountFiles()
		if err != nil {
			return err
		}
		contents, err := a.Catalog().CountContents()
		if err != nil {
			return err
		}
		fmt.Printf("Schema up to date. %d file(s), %d content(s).\n", files, contents)
		return nil
	},
}

var catalogPublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Seal the catalog and store it in the vault",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp("PublishCatalog", "")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		version, err := a.PublishCatalog()
		if err != nil {
			return fmt.Errorf("publishing catalog: %w", err)
		}
		fmt.Printf("Published catalog version %d\n", version)
		return nil
	},
}

var catalogFetchCmd = &cobra.Command{
	Use:   "fetch DEST",
	Short: "Download and unseal the published catalog to DEST",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		dest, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		a, err := newApp("FetchCatalog", dest)
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		passphrase, err := readPassphrase("Snapshot passphrase: ")
		if err != nil {
			return err
		}
		version, err := a.FetchCatalog(passphrase, dest)
		if err != nil {
			return fmt.Errorf("fetching catalog: %w", err)
		}
		fmt.Printf("Fetched catalog version %d to %s\n", version, dest)
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(catalogInitCmd)
	catalogCmd.AddCommand(catalogCheckCmd)
	catalogCmd.AddCommand(catalogPublishCmd)
	catalogCmd.AddCommand(catalogFetchCmd)
}

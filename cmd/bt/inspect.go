package main

import (
	"fmt"
	"strconv"

	"bt-catalog/internal/bt"

	"github.com/spf13/cobra"
)

var hashCmd = &cobra.Command{
	Use:   "hash PATH",
	Short: "Print content hashes of a file or the files in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		recursive, _ := cmd.Flags().GetBool("recursive")

		a, err := newApp("Hash", args[0])
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		return a.IdentifyFiles(cmd.Context(), args[0], recursive, func(id *bt.Identification) error {
			fmt.Printf("%s  %08x  %d  %s\n", id.Result.Hash, id.Result.CRC32, id.Result.Length, id.Path)
			return nil
		})
	},
}

var identifyCmd = &cobra.Command{
	Use:   "identify PATH",
	Short: "Report whether files are tracked and their content archived",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		recursive, _ := cmd.Flags().GetBool("recursive")

		a, err := newApp("Identify", args[0])
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		return a.IdentifyFiles(cmd.Context(), args[0], recursive, func(id *bt.Identification) error {
			tracked := "untracked"
			if id.File != nil {
				tracked = fmt.Sprintf("tracked:%s@%d", id.File.Status.Status(), id.File.Status.CollectionID())
			}
			archived := "new"
			if id.Content != nil {
				archived = fmt.Sprintf("archived:%d@%s", id.Content.ID, id.Content.Location)
			}
			normalized := ""
			if id.Result.Normalized {
				normalized = " normalized"
			}
			fmt.Printf("%-10s %-24s %-8s%s  %s\n", tracked, archived, id.Kind, normalized, id.Path)
			return nil
		})
	},
}

var trackCmd = &cobra.Command{
	Use:   "track PATH",
	Short: "Start tracking a file or the files in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		recursive, _ := cmd.Flags().GetBool("recursive")

		a, err := newApp("TrackFiles", args[0])
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		added, err := a.TrackFiles(args[0], recursive)
		if err != nil {
			return err
		}
		fmt.Printf("Tracking %d new file(s)\n", added)
		return nil
	},
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List tracked files",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ceiling := bt.AllStatuses
		if cmd.Flags().Changed("ceiling") {
			collection, _ := cmd.Flags().GetInt64("ceiling")
			if ceiling, err = bt.Ceiling(collection); err != nil {
				return err
			}
		}

		a, err := newApp("ListFiles", "")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		return a.Catalog().IterateFiles(ceiling, func(f *bt.FileEntry) error {
			fmt.Printf("%6d  %-10s %6d  %10d  %s\n", f.ID, f.Status.Status(), f.Status.CollectionID(), f.ContentsLength, f.Path)
			return nil
		})
	},
}

var contentsCmd = &cobra.Command{
	Use:   "contents",
	Short: "List content records",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp("ListContents", "")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		return a.Catalog().IterateContents(func(c *bt.ContentEntry) error {
			fmt.Printf("%6d  %s  %10d  %s  last:%d\n", c.ID, c.Hash, c.ContentsLength, c.Location, c.MostRecentCollection)
			return nil
		})
	},
}

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List backup runs",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp("ListCollections", "")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		cs, err := a.Catalog().ListCollections()
		if err != nil {
			return err
		}
		for _, c := range cs {
			finished := "running"
			if c.Finished() {
				finished = c.FinishTime.Format("2006-01-02 15:04:05")
			}
			fmt.Printf("#%d  %s  %-19s  files:%d new:%d (%d bytes)\n",
				c.ID, c.StartTime.Format("2006-01-02 15:04:05"), finished,
				c.CountTotalFiles, c.CountNewContents, c.CountNewContentsBytes)
		}
		return nil
	},
}

var propertyCmd = &cobra.Command{
	Use:   "property",
	Short: "Read and write catalog properties",
}

var propertyGetCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Print a property",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp("GetProperty", args[0])
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		value, ok, err := a.Catalog().GetStringProperty(args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("property %s is not set", args[0])
		}
		fmt.Println(strconv.Quote(value))
		return nil
	},
}

var propertySetCmd = &cobra.Command{
	Use:   "set NAME VALUE",
	Short: "Set a string property",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp("SetProperty", args[0])
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		return a.SetProperty(args[0], args[1])
	},
}

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Work with the configured vault",
}

var vaultSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror the vault's archive inventory into the catalog",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp("SyncVault", "")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		res, err := a.SyncVault(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Vault %s: %d archive(s) mirrored, %d removed\n", res.Vault.Name, res.Upserted, res.Deleted)
		return nil
	},
}

func init() {
	hashCmd.Flags().BoolP("recursive", "r", false, "Recurse into subdirectories")
	identifyCmd.Flags().BoolP("recursive", "r", false, "Recurse into subdirectories")
	trackCmd.Flags().BoolP("recursive", "r", false, "Recurse into subdirectories")
	filesCmd.Flags().Int64("ceiling", 0, "Only files not completed as of this collection")

	propertyCmd.AddCommand(propertyGetCmd)
	propertyCmd.AddCommand(propertySetCmd)
	vaultCmd.AddCommand(vaultSyncCmd)
}

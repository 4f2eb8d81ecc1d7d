package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
)

func addSettingsFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("search", "", "case-insensitive search over title, URL and description")
	f.StringSlice("tag", nil, "show links carrying any of these tags")
	f.String("in-folder", "", "show only this folder")
	f.Bool("favorites", false, "show only favorites")
	f.String("sort", "", "newest, oldest or mostUsed")
	f.Bool("show-folders", false, "show the folder list")
	f.Bool("show-tags", false, "show the tag list")
}

// applySettingsFlags overlays the flags the user actually set.
func applySettingsFlags(cmd *cobra.Command, s *domain.Settings) error {
	f := cmd.Flags()
	if f.Changed("search") {
		s.SearchTerm, _ = f.GetString("search")
	}
	if f.Changed("tag") {
		s.SelectedTags, _ = f.GetStringSlice("tag")
	}
	if f.Changed("in-folder") {
		s.SelectedFolder, _ = f.GetString("in-folder")
	}
	if f.Changed("favorites") {
		s.ShowFavorites, _ = f.GetBool("favorites")
	}
	if f.Changed("show-folders") {
		s.ShowFolders, _ = f.GetBool("show-folders")
	}
	if f.Changed("show-tags") {
		s.ShowTags, _ = f.GetBool("show-tags")
	}
	if f.Changed("sort") {
		by, _ := f.GetString("sort")
		switch domain.SortOption(by) {
		case domain.SortNewest, domain.SortOldest, domain.SortMostUsed:
			s.SortBy = domain.SortOption(by)
		default:
			return fmt.Errorf("unknown sort %q: want newest, oldest or mostUsed", by)
		}
	}
	return nil
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the saved view settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a.store.LoadSettings(ctx))
		})
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the saved view settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			settings := a.store.LoadSettings(ctx)
			if err := applySettingsFlags(cmd, &settings); err != nil {
				return err
			}
			return a.store.SaveSettings(ctx, settings)
		})
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default view settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			return a.store.ClearSettings(ctx)
		})
	},
}

func init() {
	addSettingsFlags(settingsSetCmd)
	settingsCmd.AddCommand(settingsSetCmd, settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}

package main

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/core/view"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List links using the saved view settings",
	Long: `List paints the locally cached snapshot and then refreshes it from the
endpoint when online. Filter flags override the saved settings for this run;
use "linkvault settings set" to change them permanently.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			settings := a.store.LoadSettings(ctx)
			if err := applySettingsFlags(cmd, &settings); err != nil {
				return err
			}

			loadErr := a.sync.Load(ctx)
			st := a.sync.State()
			if st.Error != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), st.Error)
			}
			if loadErr != nil && len(st.Links) == 0 {
				return loadErr
			}

			links := view.Sort(view.Filter(st.Links, settings), settings.SortBy)
			printLinks(cmd.OutOrStdout(), links)
			if !a.monitor.IsOnline() && !st.LastFetched.IsZero() {
				fmt.Fprintf(cmd.ErrOrStderr(), "offline: showing links cached %s\n", st.LastFetched.Local().Format(time.DateTime))
			}
			return nil
		})
	},
}

func printLinks(w io.Writer, links []domain.Link) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tURL\tFOLDER\tTAGS\tCLICKS\t")
	for _, l := range links {
		title := l.Title
		if l.IsFavorite {
			title = "* " + title
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t\n", l.ID, title, l.URL, l.FolderID, strings.Join(l.Tags, ","), l.ClickCount)
	}
	tw.Flush()
}

// linkFlags are shared by add and edit.
func linkFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("title", "", "link title")
	f.String("url", "", "link URL")
	f.String("description", "", "description")
	f.String("folder", "", "folder name, empty for none")
	f.StringSlice("tags", nil, "comma separated tags")
	f.Bool("favorite", false, "mark as favorite")
}

func validateURL(raw string) error {
	parsed, err := url.ParseRequestURI(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid URL %q", raw)
	}
	return nil
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a link",
	Long: `Add keeps the form as a draft until the link is saved, so a failed add can
be retried with --resume within two minutes.

Example:
  linkvault add --url https://go.dev --title Go --tags lang,google --folder Work`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			if discard, _ := cmd.Flags().GetBool("discard"); discard {
				return a.store.ClearDraft(ctx)
			}

			var draft domain.FormDraft
			if resume, _ := cmd.Flags().GetBool("resume"); resume {
				saved := a.store.LoadDraft(ctx)
				if saved == nil {
					return errors.New("no draft to resume")
				}
				draft = *saved
			}
			f := cmd.Flags()
			if f.Changed("title") {
				draft.Title, _ = f.GetString("title")
			}
			if f.Changed("url") {
				draft.URL, _ = f.GetString("url")
			}
			if f.Changed("description") {
				draft.Description, _ = f.GetString("description")
			}
			if f.Changed("folder") {
				draft.FolderID, _ = f.GetString("folder")
			}
			if f.Changed("tags") {
				draft.Tags, _ = f.GetStringSlice("tags")
			}
			if f.Changed("favorite") {
				draft.IsFavorite, _ = f.GetBool("favorite")
			}

			if err := validateURL(draft.URL); err != nil {
				return err
			}
			if err := a.store.SaveDraft(ctx, draft); err != nil {
				return err
			}

			if err := a.sync.Add(ctx, draft.Input()); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), a.sync.State().Error)
				fmt.Fprintln(cmd.ErrOrStderr(), "draft kept; retry with: linkvault add --resume")
				return err
			}
			if err := a.store.ClearDraft(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", draft.URL)
			return nil
		})
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Update the given fields of a link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		f := cmd.Flags()

		var patch domain.LinkPatch
		if f.Changed("title") {
			s, _ := f.GetString("title")
			patch.Title = &s
		}
		if f.Changed("url") {
			s, _ := f.GetString("url")
			if err := validateURL(s); err != nil {
				return err
			}
			patch.URL = &s
		}
		if f.Changed("description") {
			s, _ := f.GetString("description")
			patch.Description = &s
		}
		if f.Changed("folder") {
			s, _ := f.GetString("folder")
			patch.FolderID = &s
		}
		if f.Changed("tags") {
			tags, _ := f.GetStringSlice("tags")
			patch.Tags = &tags
		}
		if f.Changed("favorite") {
			b, _ := f.GetBool("favorite")
			patch.IsFavorite = &b
		}

		return withApp(ctx, func(a *app) error {
			if err := a.sync.Load(ctx); err != nil && len(a.sync.State().Links) == 0 {
				return err
			}
			if err := a.sync.Update(ctx, args[0], patch); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), a.sync.State().Error)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", args[0])
			return nil
		})
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a link",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			if err := a.sync.Delete(ctx, args[0]); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), a.sync.State().Error)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		})
	},
}

var openCmd = &cobra.Command{
	Use:   "open <id>",
	Short: "Count a click on a link and print its URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			if err := a.sync.Load(ctx); err != nil && len(a.sync.State().Links) == 0 {
				return err
			}
			if err := a.sync.IncrementClick(ctx, args[0]); err != nil {
				return err
			}
			for _, l := range a.sync.State().Links {
				if l.ID == args[0] {
					fmt.Fprintln(cmd.OutOrStdout(), l.URL)
					return nil
				}
			}
			return domain.ErrLinkNotFound
		})
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch the full list from the endpoint and update the local snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			if err := a.sync.Refresh(ctx); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), a.sync.State().Error)
				return err
			}
			st := a.sync.State()
			fmt.Fprintf(cmd.OutOrStdout(), "%d links, %d folders, %d tags\n", len(st.Links), len(st.Folders), len(st.Tags))
			return nil
		})
	},
}

func init() {
	linkFlags(addCmd)
	addCmd.Flags().Bool("resume", false, "continue from the saved draft")
	addCmd.Flags().Bool("discard", false, "discard the saved draft and exit")
	linkFlags(editCmd)
	addSettingsFlags(listCmd)

	rootCmd.AddCommand(listCmd, addCmd, editCmd, rmCmd, openCmd, refreshCmd)
}

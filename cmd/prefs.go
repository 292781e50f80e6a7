package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/guidebook/internal/dom"
	"github.com/ziadkadry99/guidebook/internal/persist"
	"github.com/ziadkadry99/guidebook/internal/prefs"
	"github.com/ziadkadry99/guidebook/internal/sidebar"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change persisted reading preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPrefs(func(p *prefs.Store, v *sidebar.Visibility) error {
			printPrefs(p, v)
			return nil
		})
	},
}

var prefsFontCmd = &cobra.Command{
	Use:   "font <index|px>",
	Short: "Set the font size by index (0-4) or pixel size",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("font size %q: %w", args[0], err)
		}
		idx := n
		for i, px := range prefs.FontSizes {
			if px == n {
				idx = i
			}
		}
		return withPrefs(func(p *prefs.Store, v *sidebar.Visibility) error {
			if err := p.SetFontSize(dom.Blank(), idx); err != nil {
				return err
			}
			printPrefs(p, v)
			return nil
		})
	},
}

var prefsThemeCmd = &cobra.Command{
	Use:       "theme <name>",
	Short:     "Set the color theme",
	Args:      cobra.ExactArgs(1),
	ValidArgs: themeNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPrefs(func(p *prefs.Store, v *sidebar.Visibility) error {
			if err := p.SetTheme(dom.Blank(), args[0]); err != nil {
				return err
			}
			printPrefs(p, v)
			return nil
		})
	},
}

var prefsSidebarCmd = &cobra.Command{
	Use:       "sidebar <show|hide>",
	Short:     "Show or hide the sidebar on every page",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"show", "hide"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var hide bool
		switch args[0] {
		case "show":
		case "hide":
			hide = true
		default:
			return fmt.Errorf("expected show or hide, got %q", args[0])
		}
		return withPrefs(func(p *prefs.Store, v *sidebar.Visibility) error {
			if v.Hidden() != hide {
				if _, err := v.Toggle(dom.Blank()); err != nil {
					return err
				}
			}
			printPrefs(p, v)
			return nil
		})
	},
}

var prefsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget font size and theme",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPrefs(func(p *prefs.Store, v *sidebar.Visibility) error {
			if err := p.Reset(dom.Blank()); err != nil {
				return err
			}
			printPrefs(p, v)
			return nil
		})
	},
}

func init() {
	prefsCmd.AddCommand(prefsFontCmd, prefsThemeCmd, prefsSidebarCmd, prefsResetCmd)
	rootCmd.AddCommand(prefsCmd)
}

// withPrefs loads the persisted preferences and passes them to fn.
func withPrefs(fn func(*prefs.Store, *sidebar.Visibility) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	if _, ok := store.(*persist.Memory); ok {
		fmt.Println("Note: store_path is empty, so changes last only for this command.")
	}

	p := prefs.New(store)
	p.Load()
	return fn(p, sidebar.NewVisibility(store))
}

func printPrefs(p *prefs.Store, v *sidebar.Visibility) {
	sb := "shown"
	if v.Hidden() {
		sb = "hidden"
	}
	fmt.Printf("font size: %dpx (index %d)\n", prefs.FontSizes[p.FontSize()], p.FontSize())
	fmt.Printf("theme:     %s\n", p.Theme().Name)
	fmt.Printf("sidebar:   %s\n", sb)
}

func themeNames() []string {
	names := make([]string, len(prefs.Themes))
	for i, t := range prefs.Themes {
		names[i] = t.Name
	}
	return names
}

package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bbernstein/lacylights-palette/internal/api"
	"github.com/bbernstein/lacylights-palette/internal/app"
	"github.com/bbernstein/lacylights-palette/internal/config"
	"github.com/bbernstein/lacylights-palette/internal/logger"
	"github.com/bbernstein/lacylights-palette/internal/palette"
	"github.com/bbernstein/lacylights-palette/internal/services/export"
	importservice "github.com/bbernstein/lacylights-palette/internal/services/import"
)

// globalFlags override the environment configuration.
type globalFlags struct {
	db       string
	steps    string
	profile  string
	logLevel string

	logLevelChanged func() bool
}

// defaultLogLevel applies when neither --log-level nor LOG_LEVEL is set.
const defaultLogLevel = "warn"

func newRootCmd() *cobra.Command {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:           "dmxcolors",
		Short:         "Explore RGBWA DMX color combinations",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&g.db, "db", "", "database path (default $DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&g.steps, "steps", "", "comma separated DMX steps (default $DMX_STEPS)")
	rootCmd.PersistentFlags().StringVar(&g.profile, "profile", "", "fixture profile YAML (default $FIXTURE_PROFILE)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", defaultLogLevel, "log level, overrides $LOG_LEVEL")
	g.logLevelChanged = func() bool { return rootCmd.PersistentFlags().Changed("log-level") }

	rootCmd.AddCommand(listCmd(&g))
	rootCmd.AddCommand(showCmd(&g))
	rootCmd.AddCommand(summaryCmd(&g))
	rootCmd.AddCommand(exportCmd(&g))
	rootCmd.AddCommand(favoriteCmd(&g))
	rootCmd.AddCommand(importCmd(&g))
	rootCmd.AddCommand(serveCmd(&g))

	return rootCmd
}

func (g *globalFlags) config() *config.Config {
	cfg := config.Load()
	if g.db != "" {
		cfg.DatabaseURL = g.db
	}
	if g.steps != "" {
		cfg.Steps = g.steps
	}
	if g.profile != "" {
		cfg.FixtureProfile = g.profile
	}
	if _, fromEnv := os.LookupEnv("LOG_LEVEL"); !fromEnv || g.logLevelChanged() {
		cfg.LogLevel = g.logLevel
	}
	return cfg
}

// open generates the palette and loads favorites. Callers must Close it.
func (g *globalFlags) open(ctx context.Context) (*app.App, error) {
	cfg := g.config()
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, err
	}
	return app.New(ctx, cfg)
}

// filterFlags mirror the query parameters of GET /api/records.
type filterFlags struct {
	channels     [palette.NumChannels]string
	hues         []string
	categories   []string
	temperatures []string
	brightness   string
	search       string
	favorites    bool
	excludeOff   bool
	excludeRGB   bool
	sort         string
	desc         bool
	offset       int
	limit        int
}

func (f *filterFlags) register(cmd *cobra.Command, defaultLimit int) {
	fl := cmd.Flags()
	for _, c := range palette.Channels {
		fl.StringVar(&f.channels[c], channelFlags[c], "", fmt.Sprintf("%s value or range, e.g. 85 or 0-170", c))
	}
	fl.StringSliceVar(&f.hues, "hue", nil, "hue groups")
	fl.StringSliceVar(&f.categories, "category", nil, "categories (warm, cool, neutral)")
	fl.StringSliceVar(&f.temperatures, "temperature", nil, "temperatures")
	fl.StringVar(&f.brightness, "brightness", "", "brightness level or range, e.g. 1-3")
	fl.StringVarP(&f.search, "search", "s", "", "free text search")
	fl.BoolVar(&f.favorites, "favorites", false, "only favorites")
	fl.BoolVar(&f.excludeOff, "exclude-off", false, "drop records at brightness level 0")
	fl.BoolVar(&f.excludeRGB, "exclude-full-rgb", false, "drop records with R, G and B at the top step")
	fl.StringVar(&f.sort, "sort", "", "sort key (index, brightness, hue, red, green, blue, white, amber)")
	fl.BoolVar(&f.desc, "desc", false, "sort descending")
	fl.IntVar(&f.offset, "offset", 0, "skip this many matches")
	fl.IntVarP(&f.limit, "limit", "n", defaultLimit, "maximum records, 0 for all")
}

// channelFlags are the flag names per channel; channelParams the
// matching query keys.
var (
	channelFlags  = [palette.NumChannels]string{"red", "green", "blue", "white", "amber"}
	channelParams = [palette.NumChannels]string{"r", "g", "b", "w", "a"}
)

// spec goes through api.ParseFilter so the CLI and HTTP API accept the
// same syntax.
func (f *filterFlags) spec() (palette.FilterSpec, error) {
	q := url.Values{}
	for _, c := range palette.Channels {
		if v := f.channels[c]; v != "" {
			q.Set(channelParams[c], v)
		}
	}
	q["hue"] = f.hues
	q["category"] = f.categories
	q["temperature"] = f.temperatures
	set := func(key, v string) {
		if v != "" {
			q.Set(key, v)
		}
	}
	set("brightness", f.brightness)
	set("search", f.search)
	set("sort", f.sort)
	q.Set("favorites", strconv.FormatBool(f.favorites))
	q.Set("excludeOff", strconv.FormatBool(f.excludeOff))
	q.Set("excludeFullRgb", strconv.FormatBool(f.excludeRGB))
	if f.desc {
		q.Set("order", "desc")
	}
	q.Set("offset", strconv.Itoa(f.offset))
	q.Set("limit", strconv.Itoa(f.limit))
	return api.ParseFilter(q)
}

func listCmd(g *globalFlags) *cobra.Command {
	var f filterFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List combinations matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := f.spec()
			if err != nil {
				return err
			}

			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			favs := a.Favorites.Snapshot()
			rows, err := export.NewService(a.Store, favs).Rows(spec)
			if err != nil {
				return err
			}
			total, err := a.Store.Count(spec, favs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No matching combinations.")
				return nil
			}
			printRows(out, rows)
			fmt.Fprintf(out, "%d of %d matching, %d generated\n", len(rows), total, a.Store.Len())
			return nil
		},
	}

	f.register(cmd, 20)
	return cmd
}

func printRows(out io.Writer, rows []export.Row) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tCHANNELS\tHEX\tGROUP\tCATEGORY\tTEMPERATURE\tLEVEL\tFAV")
	for _, r := range rows {
		fav := ""
		if r.Favorite {
			fav = "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d %s\t%s\n",
			r.Index, r.Channels, r.Hex, r.HueGroup, r.Category, r.Temperature,
			r.BrightnessLevel, r.BrightnessName, fav)
	}
	_ = tw.Flush()
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("index %q is not an integer", s)
	}
	return i, nil
}

func showCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show [index]",
		Short: "Show one combination in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}

			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			rec, err := a.Store.Get(index)
			if err != nil {
				return err
			}

			c := rec.Classification
			x, y := c.WheelPosition()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Index:       %d\n", rec.Index)
			fmt.Fprintf(out, "Channels:    %s\n", rec.Channels)
			fmt.Fprintf(out, "Name:        %s\n", rec.Name)
			fmt.Fprintf(out, "Color:       %s (%d, %d, %d)\n", rec.Color.Hex(), rec.Color.R, rec.Color.G, rec.Color.B)
			fmt.Fprintf(out, "HSV:         %.1f° %.2f %.2f\n", c.Hue, c.Saturation, c.Value)
			fmt.Fprintf(out, "Group:       %s\n", c.HueGroup)
			fmt.Fprintf(out, "Category:    %s\n", c.Category)
			fmt.Fprintf(out, "Temperature: %s\n", c.Temperature)
			fmt.Fprintf(out, "Brightness:  %.1f, level %d (%s)\n", c.Luminance, c.BrightnessLevel, rec.BrightnessName)
			fmt.Fprintf(out, "Wheel:       %.3f, %.3f\n", x, y)
			fmt.Fprintf(out, "Favorite:    %v\n", a.Favorites.IsFavorite(rec.Index))
			return nil
		},
	}
}

func summaryCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Count combinations per group, category and brightness level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			sum := palette.Summarize(a.Store.All())
			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "Steps\t%s\n", a.Store.Signature())
			fmt.Fprintf(tw, "Total\t%d\n", sum.Total)
			fmt.Fprintf(tw, "Favorites\t%d\n", a.Favorites.Count())
			for _, h := range a.Store.HueGroups() {
				fmt.Fprintf(tw, "  %s\t%d\n", h, sum.HueGroups[h])
			}
			for _, c := range palette.Categories {
				fmt.Fprintf(tw, "  %s\t%d\n", c, sum.Categories[c])
			}
			for level := range a.Store.Levels() {
				fmt.Fprintf(tw, "  level %d (%s)\t%d\n", level, a.Store.Steps().LevelLabel(level), sum.Levels[level])
			}
			return tw.Flush()
		},
	}
}

func exportCmd(g *globalFlags) *cobra.Command {
	var (
		f      filterFlags
		out    string
		format string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export combinations as CSV or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csv" && format != "json" {
				return fmt.Errorf("unknown format %q, use csv or json", format)
			}
			spec, err := f.spec()
			if err != nil {
				return err
			}

			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				file, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer func() { _ = file.Close() }()
				w = file
			}

			svc := export.NewService(a.Store, a.Favorites.Snapshot())
			n := 0
			if format == "json" {
				exported, err := svc.ExportPalette(spec)
				if err != nil {
					return err
				}
				data, err := exported.ToJSON()
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintln(w, data); err != nil {
					return err
				}
				n = len(exported.Records)
			} else if n, err = svc.WriteCSV(w, spec); err != nil {
				return err
			}

			if out != "" && out != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d records to %s\n", n, out)
			}
			return nil
		},
	}

	f.register(cmd, 0)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&format, "format", "csv", "csv or json")
	return cmd
}

func favoriteCmd(g *globalFlags) *cobra.Command {
	var on, off bool

	cmd := &cobra.Command{
		Use:   "favorite [index]",
		Short: "Toggle a favorite, or list favorites without an index",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if on && off {
				return fmt.Errorf("--on and --off are mutually exclusive")
			}

			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				indices := a.Favorites.List()
				if len(indices) == 0 {
					fmt.Fprintln(out, "No favorites yet. Use 'dmxcolors favorite <index>' to add one.")
					return nil
				}
				favs := a.Favorites.Snapshot()
				rows, err := export.NewService(a.Store, favs).Rows(palette.FilterSpec{FavoritesOnly: true})
				if err != nil {
					return err
				}
				printRows(out, rows)
				return nil
			}

			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}

			state := on
			if on || off {
				err = a.Favorites.Set(cmd.Context(), index, on)
			} else {
				state, err = a.Favorites.Toggle(cmd.Context(), index)
			}
			if err != nil {
				return err
			}

			rec, _ := a.Store.Get(index)
			verb := "Removed"
			if state {
				verb = "Added"
			}
			fmt.Fprintf(out, "%s favorite %d: %s\n", verb, index, rec.Channels)
			return nil
		},
	}

	cmd.Flags().BoolVar(&on, "on", false, "mark as favorite")
	cmd.Flags().BoolVar(&off, "off", false, "clear favorite")
	return cmd
}

func importCmd(g *globalFlags) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import [file.csv]",
		Short: "Restore favorites from a CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = file.Close() }()

			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			opts := importservice.ImportOptions{Mode: importservice.ImportModeMerge}
			if replace {
				opts.Mode = importservice.ImportModeReplace
			}
			stats, warnings, err := importservice.NewService(a.Store, a.Favorites).ImportCSV(cmd.Context(), file, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, w := range warnings {
				fmt.Fprintf(out, "  warning: %s\n", w)
			}
			fmt.Fprintf(out, "Imported favorites: %d added, %d already set, %d cleared, %d unmatched\n",
				stats.FavoritesAdded, stats.AlreadyFavorite, stats.FavoritesCleared, stats.Unmatched)
			return nil
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "clear favorites the export does not mark")
	return cmd
}

func serveCmd(g *globalFlags) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !g.logLevelChanged() {
				g.logLevel = "info"
			}
			a, err := g.open(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			defer logger.Sync()

			if port != "" {
				a.Config.Port = port
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving %d combinations on http://localhost:%s\n", a.Store.Len(), a.Config.Port)
			return a.Serve(ctx)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (default $PORT)")
	return cmd
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/vrsandeep/anisync/internal/coordinator"
	"github.com/vrsandeep/anisync/internal/core"
	"github.com/vrsandeep/anisync/internal/models"
)

const usage = `Usage: anisync-cli <command> [args]

Commands:
  season [current|next]      load a season slot and list it
  season <season> <year>     list an arbitrary season
  selected                   list the selected anime of both slots
  apply-rules                load both slots and apply the auto-selection rules
  push-all [root-folder]     push every selected anime to Sonarr
  health                     print the storage failover counters
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// Load configuration, open the database and run migrations.
	app, err := core.New()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer app.Close()

	if err := run(context.Background(), app, flag.Args()); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, app *core.App, args []string) error {
	c := app.Coordinator()

	switch args[0] {
	case "season":
		if len(args) == 3 {
			season, err := models.ParseSeason(args[1])
			if err != nil {
				return err
			}
			year, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid year %q", args[2])
			}
			sc, err := c.LoadSeason(ctx, season, year)
			if err != nil {
				return err
			}
			printAnime(sc.Anime)
			return nil
		}
		name := "current"
		if len(args) == 2 {
			name = args[1]
		}
		slot, err := coordinator.ParseSlot(name)
		if err != nil {
			return err
		}
		if err := c.Load(ctx, slot); err != nil {
			return err
		}
		sc := c.Current()
		if slot == coordinator.SlotNext {
			sc = c.Next()
		}
		fmt.Printf("%s %d\n", sc.Season, sc.Year)
		printAnime(sc.Anime)

	case "selected":
		if err := loadBoth(ctx, c); err != nil {
			return err
		}
		printAnime(c.GetSelected())

	case "apply-rules":
		if err := loadBoth(ctx, c); err != nil {
			return err
		}
		added, err := c.ApplyRulesNow(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%d anime newly selected.\n", added)

	case "push-all":
		folder := ""
		if len(args) > 1 {
			folder = args[1]
		}
		if err := loadBoth(ctx, c); err != nil {
			return err
		}
		failed := 0
		for _, r := range app.Bridge().PushAll(ctx, c.GetSelected(), folder) {
			if r.Success {
				fmt.Printf("added   %s\n", r.Title)
			} else {
				failed++
				fmt.Printf("failed  %s: %s\n", r.Title, r.Error)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d pushes failed", failed)
		}

	case "health":
		stats := app.Repository().Stats()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "primary\t%s\n", stats.Primary)
		fmt.Fprintf(w, "fallback\t%s\n", stats.Fallback)
		fmt.Fprintf(w, "primary failures\t%d\n", stats.PrimaryFailures)
		fmt.Fprintf(w, "fallback writes\t%d\n", stats.FallbackWrites)
		fmt.Fprintf(w, "fallback reads\t%d\n", stats.FallbackReads)
		fmt.Fprintf(w, "migrations\t%d\n", stats.Migrations)
		w.Flush()
		return app.Repository().Ping(ctx)

	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

func loadBoth(ctx context.Context, c *coordinator.Coordinator) error {
	if err := c.LoadCurrentSeason(ctx); err != nil {
		return err
	}
	return c.LoadNextSeason(ctx)
}

func printAnime(list []models.Anime) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSCORE\tSELECTED\tIN SONARR")
	for _, a := range list {
		score := "-"
		if a.Score != nil {
			score = strconv.FormatFloat(*a.Score, 'f', 2, 64)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%t\n", a.ID, a.Title, score, a.Selected, a.InSonarr)
	}
	w.Flush()
}

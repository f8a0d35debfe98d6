package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/vrsandeep/anisync/internal/sonarr"
)

const (
	JobLoadSeasons = "load-seasons"
	JobApplyRules  = "apply-rules"
	JobSyncLibrary = "sync-library"
)

const jobTimeout = 10 * time.Minute

// RegisterDefaultJobs adds every built-in job to the manager.
func RegisterDefaultJobs(jm *JobManager) {
	jm.Register(JobLoadSeasons, "Reload Seasons", RunLoadSeasons)
	jm.Register(JobApplyRules, "Apply Auto-Selection Rules", RunApplyRules)
	jm.Register(JobSyncLibrary, "Sync Sonarr Library", RunSyncLibrary)
}

// RunLoadSeasons reloads both season slots, then refreshes the Sonarr
// library titles. Crossing into a new season moves the slots forward.
func RunLoadSeasons(app JobContext) error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	c := app.Coordinator()
	var errs []error
	if err := c.LoadCurrentSeason(ctx); err != nil {
		errs = append(errs, fmt.Errorf("current season: %w", err))
	}
	if err := c.LoadNextSeason(ctx); err != nil {
		errs = append(errs, fmt.Errorf("next season: %w", err))
	}
	if err := syncLibrary(ctx, app); err != nil {
		log.Printf("Jobs Error: library sync after season load failed: %v", err)
	}
	return errors.Join(errs...)
}

// RunApplyRules re-applies the auto-selection rules to both slots.
func RunApplyRules(app JobContext) error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	added, err := app.Coordinator().ApplyRulesNow(ctx)
	if err != nil {
		return err
	}
	log.Printf("Auto-selection rules selected %d new anime", added)
	return nil
}

// RunSyncLibrary refreshes which anime already exist in Sonarr.
func RunSyncLibrary(app JobContext) error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	return syncLibrary(ctx, app)
}

func syncLibrary(ctx context.Context, app JobContext) error {
	bridge := app.Bridge()
	if bridge == nil {
		return nil
	}
	titles, err := bridge.ExistingTitles(ctx)
	if errors.Is(err, sonarr.ErrNotConnected) {
		return nil
	}
	if err != nil {
		return err
	}
	app.Coordinator().SetLibraryTitles(titles)
	return nil
}

// StartJobs starts the background job scheduler.
func StartJobs(app JobContext) *gocron.Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	startSeasonRefreshJob(s, app)

	log.Println("Starting background job scheduler...")
	s.StartAsync()
	return s
}

func startSeasonRefreshJob(s *gocron.Scheduler, app JobContext) {
	interval := app.Config().RefreshInterval
	if interval <= 0 {
		log.Println("Season refresh interval is 0, scheduled refresh is disabled.")
		return
	}

	log.Printf("Scheduling job: '%s' to run every %d minutes.", JobLoadSeasons, interval)

	// The first run happens at startup, so wait one interval.
	_, err := s.Every(interval).Minutes().WaitForSchedule().Do(func() {
		log.Println("Scheduler is triggering job:", JobLoadSeasons)
		// Submit the job to the manager instead of running it directly.
		// This prevents conflicts with manually triggered jobs.
		if err := app.JobManager().RunJob(JobLoadSeasons, app); err != nil {
			log.Printf("Scheduled job '%s' could not start: %v", JobLoadSeasons, err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", JobLoadSeasons, err)
	}
}

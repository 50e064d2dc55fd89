package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timeboxer/internal/config"
	"timeboxer/internal/repository"
	"timeboxer/internal/schedule"
	"timeboxer/internal/service"
	"timeboxer/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	snapshots := repository.NewSnapshotRepository(db)

	settings := store.NewSettingsStore(cfg, snapshots)
	settings.Load(ctx)

	tasks := store.NewTaskStore(snapshots)
	tasks.Load(ctx)

	priorities := store.NewPriorityList(settings.MaxPriorities(), snapshots)
	priorities.Load(ctx)

	notes := store.NewNoteStore(snapshots)
	notes.Load(ctx)

	slots := schedule.NewSlotStore(priorities, settings, snapshots, cfg.MaxDaysRetention)
	slots.RegisterSweeper(tasks)
	slots.RegisterSweeper(priorities)
	slots.RegisterSweeper(notes)
	slots.Load(ctx)

	summary := service.NewSummaryService(slots, tasks, priorities, notes)

	scheduler := service.NewScheduler(time.Local)
	if cfg.SweepInterval > 0 {
		if _, err := scheduler.ScheduleEvery(cfg.SweepInterval, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			slots.GenerateForDate(jobCtx, time.Now())
		}); err != nil {
			log.Fatalf("schedule sweep: %v", err)
		}
	}
	if cfg.SummaryTime != "" {
		if _, err := scheduler.ScheduleDaily(cfg.SummaryTime, func() {
			log.Printf("[info] daily summary:\n%s", summary.DailySummary())
		}); err != nil {
			log.Fatalf("schedule summary: %v", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Println("Timeboxer started.")
	log.Printf("[info] %s", summary.DailySummary())

	<-ctx.Done()
	slots.Save(context.Background())
	log.Println("Shutdown complete.")
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"time"

	"boxoffice/internal/app"
	"boxoffice/internal/config"
	"boxoffice/internal/logger"
	"boxoffice/internal/models"
	"boxoffice/internal/service"
)

var (
	count       = flag.Int("events", 3, "Number of demo events to create")
	rows        = flag.Int("rows", 10, "Seat rows per event (0 = general admission only)")
	seatsPerRow = flag.Int("seats", 20, "Seats per row")
	extra       = flag.Int("ga", 100, "General admission capacity on top of the seat grid")
	openSales   = flag.Bool("open", true, "Open sales for the created events")
	dryRun      = flag.Bool("dry-run", false, "Show what would be generated without making changes")
)

// demoEvents builds n event requests starting a week from now, one day apart.
func demoEvents(now time.Time, n, rows, perRow, ga int) []models.CreateEventRequest {
	reqs := make([]models.CreateEventRequest, 0, n)
	for i := range n {
		reqs = append(reqs, models.CreateEventRequest{
			Name:        fmt.Sprintf("Demo concert #%d", i+1),
			StartsAt:    now.Add(7*24*time.Hour + time.Duration(i)*24*time.Hour).Truncate(time.Hour),
			Capacity:    rows*perRow + ga,
			SeatRows:    rows,
			SeatsPerRow: perRow,
		})
	}
	return reqs
}

func main() {
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Starting event generator...")

	if *rows > service.MaxSeatRows {
		logger.Fatal("Too many seat rows", "rows", *rows, "max", service.MaxSeatRows)
	}

	reqs := demoEvents(time.Now().UTC(), *count, *rows, *seatsPerRow, *extra)
	if *dryRun {
		for _, req := range reqs {
			slog.Info("Would create event", "name", req.Name, "starts_at", req.StartsAt,
				"capacity", req.Capacity, "seats", req.SeatRows*req.SeatsPerRow)
		}
		return
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize application", "error", err)
	}
	defer a.Close()

	events := a.Services.Events
	for _, req := range reqs {
		event, err := events.Create(ctx, &req)
		if err != nil {
			slog.Error("Failed to create event", "name", req.Name, "error", err)
			continue
		}
		if *openSales {
			if _, err := events.OpenSales(ctx, event.ID); err != nil {
				slog.Error("Failed to open sales", "event_id", event.ID, "error", err)
				continue
			}
		}
		slog.Info("Created event", "event_id", event.ID, "name", event.Name, "capacity", event.Capacity)
	}

	slog.Info("Event generation completed successfully!")
}

// surge-console is a terminal view over a running surge-area service:
// it fetches the first page through the same session engine the admin
// UI uses and renders rows with their live status.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/mealdash/surge-areas/internal/client"
	"github.com/mealdash/surge-areas/internal/config"
	"github.com/mealdash/surge-areas/internal/logging"
	"github.com/mealdash/surge-areas/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	remote := client.New(cfg.Remote.BaseURL, cfg.Remote.Timeout)
	sess := session.New(remote, cfg.Paging.DefaultPageSize)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Remote.Timeout)
	defer cancel()

	page, err := sess.Refresh(ctx)
	if err != nil {
		logging.Fatalf("Failed to fetch surge areas: %v", err)
	}

	if page.Total == 0 {
		fmt.Println("No surge areas defined yet. Create one via the admin console or API.")
		return
	}

	now := time.Now()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tREASON\tTYPE\tVALUE\tAREA km2\tENABLED\tSTATUS\tWINDOW")
	for _, a := range page.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%.2f\t%t\t%s\t%s - %s\n",
			a.Name, a.SurgeReason, a.SurgeType, a.SurgeValue, a.AreaSizeKm2,
			a.IsActive, a.LiveStatus(now),
			a.StartTime.Local().Format("Jan 2 15:04"),
			a.EndTime.Local().Format("Jan 2 15:04"),
		)
	}
	w.Flush()

	counters, err := remote.Counters(ctx)
	if err != nil {
		slog.Warn("failed to fetch counters", "error", err)
		counters = sess.Counters(now)
	}
	fmt.Printf("\n%d zones | %d active now | %d scheduled | %d expired | %d disabled | page %d/%d\n",
		counters.Total, counters.ActiveNow, counters.Scheduled, counters.Expired, counters.Disabled,
		page.CurrentPage, page.TotalPages)
}

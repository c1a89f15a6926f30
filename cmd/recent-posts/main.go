// Command recent-posts prints the post ids already captured in the
// snapshot table over a lookback window. Useful for checking what the
// next snapshot run will re-assert before actually running it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/growthops/statusbrew-pipeline/pkg/bootstrap"
)

func main() {
	lookback := flag.Int("lookback", 0, "lookback window in days (defaults to RECENT_POST_LOOKBACK_DAYS)")
	flag.Parse()

	logger := bootstrap.NewLogger("recent-posts")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	svc, err := bootstrap.NewService(ctx, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer svc.Statusbrew.Close()

	days := *lookback
	if days <= 0 {
		days = svc.Config.RecentPostLookbackDays
	}

	posts, err := svc.Warehouse.RecentPosts(ctx, days)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "POST ID\tPROFILE ID\tPUBLISHED AT")
	for _, p := range posts {
		published := "-"
		if p.PostPublishedAt.Valid {
			published = p.PostPublishedAt.Timestamp.In(svc.Location).Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.PostID, p.ProfileID, published)
	}
	w.Flush()

	fmt.Printf("\n%d posts in the last %d days\n", len(posts), days)
}

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/meltforce/fitcircle/internal/offline"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: fitcircle-log <command> [flags]

Commands:
  session  queue a completed workout
  post     queue a feed post
  checkin  queue a challenge check-in
  pending  list queued entries
  sync     deliver queued entries to the server
  version  print version and exit

Run 'fitcircle-log <command> -h' for command flags.
`)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	switch os.Args[1] {
	case "session":
		runSession(log, os.Args[2:])
	case "post":
		runPost(log, os.Args[2:])
	case "checkin":
		runCheckin(log, os.Args[2:])
	case "pending":
		runPending(log, os.Args[2:])
	case "sync":
		runSync(log, os.Args[2:])
	case "version":
		fmt.Println("fitcircle-log", Version)
	default:
		usage()
	}
}

func openQueue(log *slog.Logger, stateDir string) *offline.QueueDB {
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}
		stateDir = filepath.Join(home, ".fitcircle-log")
	}
	q, err := offline.Open(stateDir)
	if err != nil {
		log.Error("failed to open queue", "error", err)
		os.Exit(1)
	}
	return q
}

func runSession(log *slog.Logger, args []string) {
	fs := flag.NewFlagSet("session", flag.ExitOnError)
	workout := fs.String("workout", "", "workout catalog id (default: ad-hoc)")
	title := fs.String("title", "", "workout title (required)")
	exercises := fs.String("exercises", "", `exercises as "Name:sets,Name:sets" (default one unnamed set)`)
	duration := fs.Int("duration", 0, "duration in minutes (required)")
	calories := fs.Float64("calories", 0, "calories burned")
	rating := fs.Int("rating", 0, "rating 1-5")
	notes := fs.String("notes", "", "session notes")
	stateDir := fs.String("state", "", "queue directory (default ~/.fitcircle-log)")
	fs.Parse(args)

	if *title == "" || *duration <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -title and -duration are required")
		os.Exit(1)
	}
	if *rating < 0 || *rating > 5 {
		fmt.Fprintln(os.Stderr, "Error: -rating must be between 1 and 5")
		os.Exit(1)
	}

	plans := parseExercises(*exercises)
	if *workout == "" {
		*workout = "adhoc-" + time.Now().Format("20060102-150405")
	}

	q := openQueue(log, *stateDir)
	defer q.Close()

	end := time.Now()
	start := end.Add(-time.Duration(*duration) * time.Minute)
	added, err := q.Enqueue(offline.KindSession, map[string]any{
		"workout": map[string]any{
			"workout_id": *workout,
			"title":      *title,
			"exercises":  plans,
		},
		"start_time": start,
		"end_time":   end,
		"final": map[string]any{
			"notes":           *notes,
			"rating":          *rating,
			"calories_burned": *calories,
		},
	})
	if err != nil {
		log.Error("failed to queue session", "error", err)
		os.Exit(1)
	}
	if !added {
		log.Info("identical session already queued")
		return
	}
	log.Info("session queued", "title", *title, "duration_min", *duration)
}

// parseExercises turns "Push-ups:3,Squats:2" into exercise plans. A name
// without a count gets one set; an empty spec yields a single catch-all.
func parseExercises(spec string) []map[string]any {
	if spec == "" {
		return []map[string]any{{"name": "Workout", "sets": 1}}
	}
	var plans []map[string]any
	for _, part := range strings.Split(spec, ",") {
		name, setsStr, found := strings.Cut(strings.TrimSpace(part), ":")
		if name == "" {
			continue
		}
		sets := 1
		if found {
			if n, err := strconv.Atoi(setsStr); err == nil && n > 0 {
				sets = n
			}
		}
		plans = append(plans, map[string]any{"name": name, "sets": sets})
	}
	if len(plans) == 0 {
		return []map[string]any{{"name": "Workout", "sets": 1}}
	}
	return plans
}

func runPost(log *slog.Logger, args []string) {
	fs := flag.NewFlagSet("post", flag.ExitOnError)
	content := fs.String("content", "", "post text (required)")
	image := fs.String("image", "", "image URL")
	stateDir := fs.String("state", "", "queue directory (default ~/.fitcircle-log)")
	fs.Parse(args)

	if *content == "" {
		fmt.Fprintln(os.Stderr, "Error: -content is required")
		os.Exit(1)
	}

	q := openQueue(log, *stateDir)
	defer q.Close()

	payload := map[string]string{"content": *content}
	if *image != "" {
		payload["image"] = *image
	}
	added, err := q.Enqueue(offline.KindPost, payload)
	if err != nil {
		log.Error("failed to queue post", "error", err)
		os.Exit(1)
	}
	if !added {
		log.Info("identical post already queued")
		return
	}
	log.Info("post queued")
}

func runCheckin(log *slog.Logger, args []string) {
	fs := flag.NewFlagSet("checkin", flag.ExitOnError)
	challenge := fs.String("challenge", "", "challenge UUID (required)")
	progress := fs.Int("progress", -1, "progress percentage 0-100 (required)")
	notes := fs.String("notes", "", "check-in notes")
	stateDir := fs.String("state", "", "queue directory (default ~/.fitcircle-log)")
	fs.Parse(args)

	if *challenge == "" || *progress < 0 || *progress > 100 {
		fmt.Fprintln(os.Stderr, "Error: -challenge and -progress (0-100) are required")
		os.Exit(1)
	}

	q := openQueue(log, *stateDir)
	defer q.Close()

	added, err := q.Enqueue(offline.KindCheckin, map[string]any{
		"challenge_id": *challenge,
		"progress":     *progress,
		"notes":        *notes,
	})
	if err != nil {
		log.Error("failed to queue check-in", "error", err)
		os.Exit(1)
	}
	if !added {
		log.Info("identical check-in already queued")
		return
	}
	log.Info("check-in queued", "challenge", *challenge, "progress", *progress)
}

func runPending(log *slog.Logger, args []string) {
	fs := flag.NewFlagSet("pending", flag.ExitOnError)
	stateDir := fs.String("state", "", "queue directory (default ~/.fitcircle-log)")
	fs.Parse(args)

	q := openQueue(log, *stateDir)
	defer q.Close()

	entries, err := q.Pending()
	if err != nil {
		log.Error("failed to list queue", "error", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Println("queue is empty")
		return
	}
	for _, e := range entries {
		fmt.Printf("%4d  %-8s %s  %s\n", e.ID, e.Kind, e.CreatedAt.Format("2006-01-02 15:04"), e.Payload)
	}
}

func runSync(log *slog.Logger, args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	server := fs.String("server", "", "FitCircle server URL (required)")
	token := fs.String("token", "", "bearer token (or FITCIRCLE_TOKEN)")
	dryRun := fs.Bool("dry-run", false, "list what would be delivered without sending")
	stateDir := fs.String("state", "", "queue directory (default ~/.fitcircle-log)")
	fs.Parse(args)

	if *token == "" {
		*token = os.Getenv("FITCIRCLE_TOKEN")
	}
	if *server == "" || *token == "" {
		fmt.Fprintln(os.Stderr, "Error: -server and a token (-token or FITCIRCLE_TOKEN) are required")
		os.Exit(1)
	}

	q := openQueue(log, *stateDir)
	defer q.Close()

	client := offline.NewClient(*server, *token)
	client.DryRun = *dryRun
	stats, err := client.Sync(q, log)
	if err != nil {
		log.Error("sync failed", "error", err)
		os.Exit(1)
	}
	log.Info("sync complete", "delivered", stats.Delivered, "failed", stats.Failed)
}

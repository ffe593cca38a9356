package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/BettaJiayi/pixverse-webui/internal/domain"
	"github.com/BettaJiayi/pixverse-webui/internal/history"
	"github.com/BettaJiayi/pixverse-webui/internal/infra"
	"github.com/BettaJiayi/pixverse-webui/internal/lifecycle"
	"github.com/BettaJiayi/pixverse-webui/internal/pixverse"
	"github.com/BettaJiayi/pixverse-webui/internal/storage"
)

// studio is the terminal companion to the proxy: submit jobs, watch them
// resolve, browse and manage the shared history document.
func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}
	logger := infra.NewLogger("cli").With().Str("cmd", "studio").Logger()

	files, err := storage.NewFileStore(cfg.HistoryDir)
	if err != nil {
		exitWithError(fmt.Errorf("open history dir: %w", err))
	}
	store := history.NewStore(files, logger)

	client, err := pixverse.NewClient(pixverse.Options{
		APIKey:         cfg.PixverseAPIKey,
		BaseURL:        cfg.PixverseBaseURL,
		Logger:         &logger,
		RequestTimeout: cfg.UpstreamTimeout,
	})
	if err != nil {
		exitWithError(err)
	}

	done := make(chan lifecycle.Outcome, 1)
	manager := lifecycle.NewManager(client, store, logger, lifecycle.Options{
		PollInterval:     cfg.PollInterval,
		MaxTicks:         cfg.PollMaxTicks,
		ProgressInterval: cfg.ProgressInterval,
		Hooks: lifecycle.Hooks{
			OnProgress: func(estimate float64) {
				fmt.Printf("\rgenerating... %3.0f%%", estimate)
			},
			OnStatus: func(id string, res domain.StatusResult) {
				if res.Code == domain.StatusUnknown {
					fmt.Printf("\r%s: status unknown, still polling\n", id)
				}
			},
			OnError: func(id string, err error) {
				fmt.Printf("\r%s: poll failed (%v), retrying\n", id, err)
			},
			OnEnd: func(id string, outcome lifecycle.Outcome) {
				done <- outcome
			},
		},
	})
	view := history.NewView(store, manager, history.SystemCopier{})

	ctx := context.Background()
	switch cmd {
	case "text":
		runSubmit(ctx, manager, store, done, domain.JobTypeText, args)
	case "image":
		runSubmit(ctx, manager, store, done, domain.JobTypeImage, args)
	case "extend":
		runSubmit(ctx, manager, store, done, domain.JobTypeExtend, args)
	case "transition":
		runSubmit(ctx, manager, store, done, domain.JobTypeTransition, args)
	case "watch":
		runWatch(manager, store, done, args)
	case "history":
		runHistory(view, args)
	case "copy":
		runCopy(view, args)
	case "delete":
		runDelete(view, args)
	case "clear":
		runClear(view, args)
	case "balance":
		runBalance(ctx, client)
	case "upload":
		runUpload(ctx, client, args)
	default:
		usage()
		os.Exit(2)
	}
}

func runSubmit(ctx context.Context, manager *lifecycle.Manager, store *history.Store, done <-chan lifecycle.Outcome, t domain.JobType, args []string) {
	fs := flag.NewFlagSet(string(t), flag.ExitOnError)
	var (
		prompt   = fs.String("prompt", "", "generation prompt")
		negative = fs.String("negative", "", "negative prompt")
		style    = fs.String("style", "", "style preset (anime, 3d_animation, clay, comic, cyberpunk)")
		seed     = fs.Int("seed", -1, "seed in [0, 2147483647]; -1 picks one upstream")
		duration = fs.Int("duration", 0, "clip length in seconds")
		model    = fs.String("model", "", "model version")
		quality  = fs.String("quality", "", "output quality (360p, 540p, 720p, 1080p)")
		motion   = fs.String("motion", "", "motion mode (normal, fast)")
		aspect   = fs.String("aspect", "", "aspect ratio, e.g. 16:9")
		template = fs.Int("template", 0, "template id")
		img      = fs.Int64("img", 0, "uploaded img_id (image jobs)")
		source   = fs.String("source", "", "upstream video id to extend")
		media    = fs.Int64("media", 0, "uploaded video_media_id to extend")
		first    = fs.Int64("first", 0, "first frame img_id (transition jobs)")
		last     = fs.Int64("last", 0, "last frame img_id (transition jobs)")
	)
	_ = fs.Parse(args)

	spec := domain.JobSpec{
		Type:           t,
		Prompt:         strings.TrimSpace(*prompt),
		NegativePrompt: *negative,
		Style:          *style,
		Duration:       *duration,
		Model:          *model,
		Quality:        *quality,
		MotionMode:     *motion,
		AspectRatio:    *aspect,
		TemplateID:     *template,
		ImageID:        *img,
		SourceVideoID:  strings.TrimSpace(*source),
		MediaID:        *media,
		FirstFrameID:   *first,
		LastFrameID:    *last,
	}
	if *seed >= 0 {
		spec.Seed = seed
	}

	id, err := manager.Submit(ctx, spec)
	if err != nil {
		exitWithError(err)
	}
	fmt.Printf("submitted %s job %s\n", t, id)
	waitForOutcome(store, done, id)
}

func runWatch(manager *lifecycle.Manager, store *history.Store, done <-chan lifecycle.Outcome, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	id := fs.String("id", "", "video id to poll")
	_ = fs.Parse(args)
	if err := manager.Track(strings.TrimSpace(*id)); err != nil {
		exitWithError(err)
	}
	waitForOutcome(store, done, strings.TrimSpace(*id))
}

// waitForOutcome blocks until the poll session ends, then prints the stored
// record so the user sees the url and seed without another command.
func waitForOutcome(store *history.Store, done <-chan lifecycle.Outcome, id string) {
	outcome := <-done
	fmt.Printf("\rjob %s ended: %s        \n", id, outcome)

	rec, ok := store.Get(id)
	if !ok {
		return
	}
	fmt.Printf("  status: %s\n", rec.LastStatus.Label())
	if rec.URL != "" {
		fmt.Printf("  url:    %s\n", rec.URL)
	}
	if rec.Seed != nil {
		fmt.Printf("  seed:   %d\n", *rec.Seed)
	}
	if outcome == lifecycle.OutcomeTimeout {
		fmt.Printf("  polling gave up; run `studio watch -id %s` to resume\n", id)
	}
}

func runHistory(view *history.View, args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	page := fs.Int("page", 1, "page to show")
	_ = fs.Parse(args)

	view.SetPage(*page)
	p := view.Current()
	if p.Total == 0 {
		fmt.Println("history is empty")
		return
	}
	fmt.Printf("page %d/%d (%d records)\n", p.Number, p.TotalPages, p.Total)
	for _, rec := range p.Items {
		fmt.Printf("  %-20s %-16s %3d%%  %s  %s\n",
			rec.ID,
			rec.Type,
			history.RowProgress(rec.LastStatus),
			rec.LastStatus.Label(),
			truncate(rec.Prompt, 48),
		)
		if rec.URL != "" {
			fmt.Printf("  %20s %s\n", "", rec.URL)
		}
	}
}

func runCopy(view *history.View, args []string) {
	fs := flag.NewFlagSet("copy", flag.ExitOnError)
	id := fs.String("id", "", "video id to copy")
	_ = fs.Parse(args)
	if strings.TrimSpace(*id) == "" {
		exitWithError(errors.New("-id is required"))
	}
	if err := view.CopyID(*id); err != nil {
		// No clipboard here (headless shell, missing xclip); let the user
		// select the id themselves.
		fmt.Printf("clipboard unavailable, copy manually: %s\n", *id)
		return
	}
	fmt.Println("copied")
}

func runDelete(view *history.View, args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.String("id", "", "video id to delete")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	_ = fs.Parse(args)
	if strings.TrimSpace(*id) == "" {
		exitWithError(errors.New("-id is required"))
	}
	if view.Delete(*id, confirmFlag(*yes)) {
		fmt.Println("deleted")
	} else {
		fmt.Println("kept")
	}
}

func runClear(view *history.View, args []string) {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	_ = fs.Parse(args)
	if view.ClearAll(confirmFlag(*yes)) {
		fmt.Println("history cleared")
	} else {
		fmt.Println("kept")
	}
}

func runBalance(ctx context.Context, client *pixverse.Client) {
	callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	bal, err := client.Balance(callCtx)
	if err != nil {
		exitWithError(err)
	}
	fmt.Printf("monthly credit: %d\npackage credit: %d\n", bal.MonthlyCredit, bal.PackageCredit)
}

func runUpload(ctx context.Context, client *pixverse.Client, args []string) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	path := fs.String("file", "", "file to upload")
	kind := fs.String("kind", "image", "asset kind: image or media")
	_ = fs.Parse(args)
	if strings.TrimSpace(*path) == "" {
		exitWithError(errors.New("-file is required"))
	}

	f, err := os.Open(*path)
	if err != nil {
		exitWithError(err)
	}
	defer f.Close()

	callCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	switch *kind {
	case "image":
		id, err := client.UploadImage(callCtx, filepath.Base(*path), f)
		if err != nil {
			exitWithError(err)
		}
		fmt.Printf("img_id: %d\n", id)
	case "media":
		id, err := client.UploadMedia(callCtx, filepath.Base(*path), f)
		if err != nil {
			exitWithError(err)
		}
		fmt.Printf("media_id: %d\n", id)
	default:
		exitWithError(fmt.Errorf("unsupported kind %q", *kind))
	}
}

// confirmFlag turns -yes into a Confirm: skip the prompt when set, otherwise
// ask on stdin.
func confirmFlag(yes bool) history.Confirm {
	if yes {
		return nil
	}
	return func(prompt string) bool {
		fmt.Printf("%s [y/N] ", prompt)
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: studio <command> [flags]

commands:
  text        submit a text-to-video job and watch it
  image       submit an image-to-video job (-img required)
  extend      extend a video (-source or -media required)
  transition  first-to-last-frame transition (-first and -last required)
  watch       resume polling an existing job (-id)
  history     show a history page (-page)
  copy        copy a job id to the clipboard (-id)
  delete      delete one history record (-id, -yes)
  clear       wipe the history (-yes)
  balance     show remaining credits
  upload      upload an asset (-file, -kind image|media)`)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

// Command inkwell is the command-line host for the sync engine.
//
// Usage:
//
//	inkwell [-config path] <command> [args]
//
// Commands: login, logout, sync, add <url>, archive <id>, star <id>,
// unstar <id>, download <id>, highlights <id>, list, status.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/mlauter/inkwell/internal/config"
	apperrors "github.com/mlauter/inkwell/internal/errors"
	"github.com/mlauter/inkwell/internal/logging"
	"github.com/mlauter/inkwell/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logging.Init(os.Stderr, cfg.LogLevel)

	svc, err := service.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer svc.Close()

	ctx := context.Background()
	if err := run(ctx, svc, flag.Arg(0), flag.Args()[1:]); err != nil {
		if apperrors.Is(err, apperrors.ErrQueued) {
			fmt.Println("queued: will complete when back online")
			return
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, svc *service.Service, command string, args []string) error {
	switch command {
	case "login":
		return login(ctx, svc)
	case "logout":
		return svc.Logout()
	case "sync":
		return runSync(ctx, svc)
	case "add":
		if len(args) != 1 {
			return fmt.Errorf("usage: inkwell add <url>")
		}
		return svc.AddArticle(ctx, args[0])
	case "archive":
		id, err := parseID(args, "archive")
		if err != nil {
			return err
		}
		return svc.ArchiveArticle(ctx, id)
	case "star":
		id, err := parseID(args, "star")
		if err != nil {
			return err
		}
		return svc.FavoriteArticle(ctx, id)
	case "unstar":
		id, err := parseID(args, "unstar")
		if err != nil {
			return err
		}
		return svc.UnfavoriteArticle(ctx, id)
	case "download":
		id, err := parseID(args, "download")
		if err != nil {
			return err
		}
		path, err := svc.DownloadArticle(ctx, id)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	case "highlights":
		id, err := parseID(args, "highlights")
		if err != nil {
			return err
		}
		return printHighlights(svc, id)
	case "list":
		return printArticles(svc)
	case "status":
		return printStatus(ctx, svc)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func parseID(args []string, command string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: inkwell %s <bookmark_id>", command)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid bookmark id %q", args[0])
	}
	return id, nil
}

func login(ctx context.Context, svc *service.Service) error {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("username: ")
	username, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	username = strings.TrimSpace(username)

	fmt.Print("password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return err
	}

	if err := svc.Authenticate(ctx, username, string(password)); err != nil {
		return err
	}
	fmt.Println("signed in as", username)
	return nil
}

func runSync(ctx context.Context, svc *service.Service) error {
	res := svc.Sync(ctx)
	fmt.Printf("drained %d queued, pushed %d, deleted %d, pulled %d, removed %d\n",
		res.Drained, res.Pushed, res.Deleted, res.Pulled, res.Removed)
	for _, re := range res.DrainErrors {
		fmt.Fprintf(os.Stderr, "still queued: %s (%v)\n", re.URL, re.Err)
	}
	return res.Err
}

func printArticles(svc *service.Service) error {
	articles, err := svc.ListArticles()
	if err != nil {
		return err
	}
	for _, a := range articles {
		marker := " "
		if a.Starred {
			marker = "*"
		}
		title := a.Title
		if title == "" {
			title = a.URL
		}
		fmt.Printf("%s %10d  %3.0f%%  %s\n", marker, a.BookmarkID, a.Progress*100, title)
	}
	return nil
}

func printHighlights(svc *service.Service, bookmarkID int64) error {
	hs, err := svc.StoredHighlights(bookmarkID)
	if err != nil {
		return err
	}
	for _, h := range hs {
		state := h.SyncStatus
		fmt.Printf("[%d] (%s) %s\n", h.ID, state, h.Text)
		if h.Note != "" {
			fmt.Printf("      note: %s\n", h.Note)
		}
	}
	return nil
}

func printStatus(ctx context.Context, svc *service.Service) error {
	st, err := svc.Status(ctx)
	if err != nil {
		return err
	}
	fmt.Println("signed in:", st.SignedIn)
	if st.SignedIn {
		fmt.Println("username: ", st.Username)
	}
	fmt.Println("online:   ", st.Online)
	fmt.Println("articles: ", st.Articles)
	fmt.Println("queued:   ", st.QueueSize)
	fmt.Println("syncing:  ", st.Syncing)
	fmt.Println("checked:  ", st.LastChecked.Format(time.RFC3339))
	return nil
}

func usage() {
	fmt.Fprintf(os.Stderr, `inkwell - local-first reading list sync

usage: inkwell [-config path] <command> [args]

commands:
  login              sign in with username and password
  logout             sign out and purge local data
  sync               run one sync cycle
  add <url>          save a URL to the reading list
  archive <id>       move an article to the archive
  star <id>          favorite an article
  unstar <id>        unfavorite an article
  download <id>      cache an article's readable text
  highlights <id>    list an article's highlights
  list               list stored articles
  status             show sign-in, connectivity, and queue state
`)
}

// Package main is the Blogia terminal client. It talks straight to the
// hosted backend the way the web client does: services over the backend
// client, state containers for what is on screen, and a local draft store so
// writing works offline.
//
// Usage:
//
//	blogia signup <email> <display name>
//	blogia login <email>
//	blogia logout
//	blogia whoami
//	blogia list [--mine]
//	blogia read <post-id>
//	blogia create <title> [--draft]        (content from stdin)
//	blogia like <post-id>
//	blogia bookmark <post-id>
//	blogia bookmarks
//	blogia comment <post-id> <text>
//	blogia drafts
//	blogia draft save <title>              (content from stdin)
//	blogia draft rm <draft-id>
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sakif/blogia/internal/config"
	"github.com/sakif/blogia/internal/model"
	"github.com/sakif/blogia/internal/ratelimit"
	"github.com/sakif/blogia/internal/repository"
	"github.com/sakif/blogia/internal/repository/sqlite"
	"github.com/sakif/blogia/internal/service"
	"github.com/sakif/blogia/internal/session"
	"github.com/sakif/blogia/internal/store"
	"github.com/sakif/blogia/internal/supabase"
)

// storedSession is what persists between invocations. Only the refresh token
// matters: the access token is re-minted on bootstrap.
type storedSession struct {
	RefreshToken string `json:"refreshToken"`
}

type app struct {
	logger *slog.Logger

	session    *session.Manager
	posts      *service.PostService
	comments   *service.CommentService
	engagement *service.EngagementService
	drafts     repository.DraftRepository

	feed *store.PostsStore
	ui   *store.UIStore

	sessionPath string
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: blogia <command> [args]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}

	a, cleanup, err := newApp(cfg, logger)
	if err != nil {
		fatal(err)
	}
	defer cleanup()

	ctx := context.Background()
	a.session.Bootstrap(ctx, a.loadRefreshToken())

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fatal(err)
	}
	a.renderToasts()
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "blogia:", err)
	os.Exit(1)
}

func newApp(cfg config.Config, logger *slog.Logger) (*app, func(), error) {
	backend := supabase.New(cfg.Supabase)
	limiter := ratelimit.New(ratelimit.DefaultWindow, ratelimit.DefaultMaxRequests)

	profileService := service.NewProfileService(backend, limiter, logger)
	authService := service.NewAuthService(backend, limiter, profileService, logger)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating data directory: %w", err)
	}
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening draft store: %w", err)
	}

	a := &app{
		logger:      logger,
		session:     session.NewManager(authService, profileService, logger),
		posts:       service.NewPostService(backend, limiter, logger),
		comments:    service.NewCommentService(backend, limiter, logger),
		engagement:  service.NewEngagementService(backend, limiter, logger),
		drafts:      db,
		feed:        store.NewPostsStore(),
		ui:          store.NewUIStore(),
		sessionPath: sessionPath(),
	}

	cleanup := func() {
		a.session.Close()
		a.feed.Close()
		a.ui.Close()
		db.Close()
	}
	return a, cleanup, nil
}

func sessionPath() string {
	if v := os.Getenv("BLOGIA_SESSION_PATH"); v != "" {
		return v
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "blogia", "session.json")
}

func (a *app) loadRefreshToken() string {
	data, err := os.ReadFile(a.sessionPath)
	if err != nil {
		return ""
	}
	var s storedSession
	if err := json.Unmarshal(data, &s); err != nil {
		return ""
	}
	return s.RefreshToken
}

func (a *app) persistSession() {
	sess := a.session.Session()
	if sess == nil {
		os.Remove(a.sessionPath)
		return
	}
	data, err := json.Marshal(storedSession{RefreshToken: sess.RefreshToken})
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(a.sessionPath), 0o700); err != nil {
		return
	}
	if err := os.WriteFile(a.sessionPath, data, 0o600); err != nil {
		a.logger.Warn("could not persist session", slog.String("error", err.Error()))
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "signup":
		return a.cmdSignup(ctx, args)
	case "login":
		return a.cmdLogin(ctx, args)
	case "logout":
		a.session.Logout(ctx)
		a.persistSession()
		a.ui.Push(store.ToastSuccess, "logged out")
		return nil
	case "whoami":
		return a.cmdWhoami()
	case "list":
		return a.cmdList(ctx, args)
	case "read":
		return a.cmdRead(ctx, args)
	case "create":
		return a.cmdCreate(ctx, args)
	case "like":
		return a.cmdToggle(ctx, args, "like")
	case "bookmark":
		return a.cmdToggle(ctx, args, "bookmark")
	case "bookmarks":
		return a.cmdBookmarks(ctx)
	case "comment":
		return a.cmdComment(ctx, args)
	case "drafts":
		return a.cmdDraftList(ctx)
	case "draft":
		return a.cmdDraft(ctx, args)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) requireUser() (*model.User, string, error) {
	user := a.session.CurrentUser()
	if user == nil {
		return nil, "", fmt.Errorf("not logged in (run: blogia login <email>)")
	}
	return user, a.session.AccessToken(), nil
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "password: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) cmdSignup(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: blogia signup <email> <display name>")
	}
	password, err := promptPassword()
	if err != nil {
		return err
	}

	user, err := a.session.Signup(ctx, args[0], password, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	a.persistSession()

	if a.session.State() == session.StateAuthenticated {
		a.ui.Push(store.ToastSuccess, "welcome, "+user.Name)
	} else {
		a.ui.Push(store.ToastInfo, "account created, confirm your email then log in")
	}
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: blogia login <email>")
	}
	password, err := promptPassword()
	if err != nil {
		return err
	}

	user, err := a.session.Login(ctx, args[0], password)
	if err != nil {
		return err
	}
	a.persistSession()
	a.ui.Push(store.ToastSuccess, "welcome back, "+user.Name)
	return nil
}

func (a *app) cmdWhoami() error {
	user := a.session.CurrentUser()
	if user == nil {
		fmt.Println("anonymous")
		return nil
	}
	fmt.Printf("%s <%s>  id=%s\n", user.Name, user.Email, user.ID)
	return nil
}

func (a *app) cmdList(ctx context.Context, args []string) error {
	token := a.session.AccessToken()
	opts := service.ListPostsOptions{}

	if len(args) > 0 && args[0] == "--mine" {
		user, _, err := a.requireUser()
		if err != nil {
			return err
		}
		opts.AuthorID = user.ID
		opts.IncludeDrafts = true
	}

	a.feed.SetLoading(true)
	posts, err := a.posts.List(ctx, token, opts)
	if err != nil {
		a.feed.SetError(err)
		return err
	}
	a.feed.SetPosts(posts)

	for _, p := range a.feed.Snapshot().Posts {
		marker := " "
		if !p.Published {
			marker = "D"
		}
		author := ""
		if p.Author != nil {
			author = p.Author.Name
		}
		fmt.Printf("%s %-36s %-40s %s (%dm)\n", marker, p.ID, truncate(p.Title, 40), author, p.ReadTime)
	}
	return nil
}

func (a *app) cmdRead(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: blogia read <post-id>")
	}
	token := a.session.AccessToken()

	a.feed.SetLoading(true)
	post, err := a.posts.Get(ctx, token, args[0])
	if err != nil {
		a.feed.SetError(err)
		return err
	}
	a.feed.SetCurrent(post)

	viewerID := ""
	if user := a.session.CurrentUser(); user != nil {
		viewerID = user.ID
	}
	stats := a.engagement.Stats(ctx, token, viewerID, post.ID)

	fmt.Printf("# %s\n\n%s\n\n", post.Title, post.Content)
	if stats.Known {
		liked, marked := "", ""
		if stats.Liked {
			liked = " (you)"
		}
		if stats.Bookmarked {
			marked = " (saved)"
		}
		fmt.Printf("-- %d likes%s, %d comments%s\n", stats.LikeCount, liked, stats.CommentCount, marked)
	}
	return nil
}

func (a *app) cmdCreate(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: blogia create <title> [--draft] < content.md")
	}
	user, token, err := a.requireUser()
	if err != nil {
		return err
	}

	published := true
	title := args[0]
	for _, arg := range args[1:] {
		if arg == "--draft" {
			published = false
		}
	}

	content, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("reading content: %w", err)
	}

	post, err := a.posts.Create(ctx, token, user.ID, service.CreatePostInput{
		Title:     title,
		Content:   string(content),
		Published: published,
	})
	if err != nil {
		// Keep the words: park the content locally so a failed publish
		// never loses the draft.
		draft := &model.Draft{Title: title, Content: string(content)}
		if saveErr := a.drafts.Save(ctx, draft); saveErr == nil {
			a.ui.Push(store.ToastError, "publish failed, content saved as draft "+draft.ID)
		}
		return err
	}

	a.feed.Upsert(*post)
	a.ui.Push(store.ToastSuccess, "post created: "+post.ID)
	return nil
}

func (a *app) cmdToggle(ctx context.Context, args []string, kind string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: blogia %s <post-id>", kind)
	}
	user, token, err := a.requireUser()
	if err != nil {
		return err
	}

	var active bool
	if kind == "like" {
		active, err = a.engagement.ToggleLike(ctx, token, user.ID, args[0])
	} else {
		active, err = a.engagement.ToggleBookmark(ctx, token, user.ID, args[0])
	}
	if err != nil {
		return err
	}

	if active {
		a.ui.Push(store.ToastSuccess, kind+" added")
	} else {
		a.ui.Push(store.ToastInfo, kind+" removed")
	}
	return nil
}

func (a *app) cmdBookmarks(ctx context.Context) error {
	user, token, err := a.requireUser()
	if err != nil {
		return err
	}

	posts, err := a.engagement.ListBookmarked(ctx, token, user.ID)
	if err != nil {
		return err
	}
	for _, p := range posts {
		fmt.Printf("%-36s %s\n", p.ID, truncate(p.Title, 60))
	}
	return nil
}

func (a *app) cmdComment(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: blogia comment <post-id> <text>")
	}
	user, token, err := a.requireUser()
	if err != nil {
		return err
	}

	comment, err := a.comments.Add(ctx, token, user.ID, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	a.ui.Push(store.ToastSuccess, "comment posted: "+comment.ID)
	return nil
}

func (a *app) cmdDraftList(ctx context.Context) error {
	drafts, err := a.drafts.List(ctx)
	if err != nil {
		return err
	}
	for _, d := range drafts {
		fmt.Printf("%-22s %-40s %s\n", d.ID, truncate(d.Title, 40), d.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func (a *app) cmdDraft(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: blogia draft <save|rm> ...")
	}
	switch args[0] {
	case "save":
		if len(args) < 2 {
			return fmt.Errorf("usage: blogia draft save <title> < content.md")
		}
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading content: %w", err)
		}
		draft := &model.Draft{Title: strings.Join(args[1:], " "), Content: string(content)}
		if err := a.drafts.Save(ctx, draft); err != nil {
			return err
		}
		a.ui.Push(store.ToastSuccess, "draft saved: "+draft.ID)
		return nil
	case "rm":
		if len(args) != 2 {
			return fmt.Errorf("usage: blogia draft rm <draft-id>")
		}
		if err := a.drafts.Delete(ctx, args[1]); err != nil {
			return err
		}
		a.ui.Push(store.ToastInfo, "draft removed")
		return nil
	default:
		return fmt.Errorf("unknown draft subcommand %q", args[0])
	}
}

func (a *app) renderToasts() {
	for _, t := range a.ui.Toasts() {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", t.Kind, t.Message)
		a.ui.Dismiss(t.ID)
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

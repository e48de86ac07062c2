package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/sarthi-kalathiya/examsync/internal/api"
	"github.com/sarthi-kalathiya/examsync/internal/cache"
	"github.com/sarthi-kalathiya/examsync/internal/config"
	"github.com/sarthi-kalathiya/examsync/internal/logger"
	"github.com/sarthi-kalathiya/examsync/internal/model"
	"github.com/sarthi-kalathiya/examsync/internal/repository"
	"github.com/sarthi-kalathiya/examsync/internal/session"
	"github.com/sarthi-kalathiya/examsync/internal/storage"
	"github.com/sarthi-kalathiya/examsync/internal/validator"
	"golang.org/x/term"
)

type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	session  *session.Coordinator
	subjects *repository.SubjectRepository
	users    *repository.UserRepository
	exams    *repository.ExamRepository
	cache    *cache.Store
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Storage Regions ───────────────────────────────────────────────
	persistent, err := storage.NewFileStore(filepath.Join(cfg.StateDir, "session.json"), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open persistent storage")
	}

	var cacheRegion storage.Store
	if cfg.RedisURL != "" {
		rs, err := storage.NewRedisStore(ctx, cfg.RedisURL, "examsync:", log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect cache region to Redis")
		}
		defer rs.Close()
		cacheRegion = rs
	} else {
		fs, err := storage.NewFileStore(filepath.Join(cfg.StateDir, "cache.json"), log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open cache storage")
		}
		cacheRegion = fs
	}

	// ─── Wire the Sync Layer ───────────────────────────────────────────
	client := api.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, nil, log)
	coordinator := session.NewCoordinator(persistent, client, cfg.ProfileThrottle, log)
	defer coordinator.Close()

	store := cache.NewStore(cacheRegion, log, cache.WithTTL(cfg.CacheTTL))
	valid := validator.New()

	a := &app{
		cfg:      cfg,
		log:      log,
		session:  coordinator,
		subjects: repository.NewSubjectRepository(client, store, valid, log),
		users:    repository.NewUserRepository(client, store, valid, log),
		exams:    repository.NewExamRepository(client, store, valid, log),
		cache:    store,
	}

	coordinator.Bootstrap(ctx)

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx)
	case "logout":
		a.session.Logout(ctx)
		a.cache.Clear()
		fmt.Println("Signed out.")
		return nil
	case "whoami":
		return a.whoami(ctx)
	case "subjects":
		return a.listSubjects(ctx, args)
	case "subject-status":
		return a.subjectStatus(ctx, args)
	case "users":
		return a.listUsers(ctx)
	case "exams":
		return a.listExams(ctx)
	case "exam-status":
		return a.examStatus(ctx, args)
	case "cache-clear":
		a.cache.Clear()
		fmt.Println("Cache cleared.")
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) login(ctx context.Context) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	profile, err := a.session.Login(ctx, model.LoginRequest{
		Email:    email,
		Password: string(password),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Signed in as %s (%s)\n", profile.Name(), profile.Role)
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	if !a.session.IsLoggedIn() {
		fmt.Println("Not signed in.")
		return nil
	}

	// Refresh through the coalescer so repeated invocations stay cheap.
	profile, err := a.session.RefreshProfile(ctx)
	if err != nil {
		profile = a.session.CurrentUser()
		a.log.Warn().Err(err).Msg("Profile refresh failed, showing last known")
	}
	if profile == nil {
		fmt.Println("Not signed in.")
		return nil
	}

	fmt.Printf("%s <%s>\nRole: %s\nProfile complete: %t\n",
		profile.Name(), profile.Email, profile.Role, profile.ProfileCompleted)
	return nil
}

func (a *app) listSubjects(ctx context.Context, args []string) error {
	filter := repository.SubjectFilter{}
	if len(args) > 0 {
		filter.SearchTerm = args[0]
	}

	start := time.Now()
	subjects, err := a.subjects.GetAll(ctx, filter)
	if err != nil {
		return err
	}

	for _, sub := range subjects {
		state := "inactive"
		if sub.IsActive {
			state = "active"
		}
		fmt.Printf("%-36s  %-10s  %-30s  %s\n", sub.ID, sub.Code, sub.Name, state)
	}
	fmt.Printf("%d subject(s) in %s\n", len(subjects), time.Since(start).Round(time.Millisecond))
	return nil
}

func (a *app) subjectStatus(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: examsync subject-status <id> <active|inactive>")
	}
	return a.subjects.UpdateStatus(ctx, args[0], args[1] == "active")
}

func (a *app) listUsers(ctx context.Context) error {
	page, err := a.users.GetAll(ctx, repository.UserFilter{Page: 1, PageSize: 50})
	if err != nil {
		return err
	}

	for _, u := range page.Items {
		fmt.Printf("%-36s  %-8s  %-30s  %s\n", u.ID, u.Role, u.Email, u.Name())
	}
	if page.Pagination != nil {
		fmt.Printf("Page %d/%d, %d total\n", page.Pagination.Page, page.Pagination.TotalPages, page.Pagination.Total)
	}
	return nil
}

func (a *app) listExams(ctx context.Context) error {
	page, err := a.exams.GetTeacherExams(ctx, repository.ExamFilter{Page: 1, Limit: 50})
	if err != nil {
		return err
	}

	now := time.Now()
	for _, exam := range page.Items {
		fmt.Printf("%-36s  %-9s  %s\n", exam.ID, exam.Status(now), exam.Name)
	}
	return nil
}

func (a *app) examStatus(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: examsync exam-status <id> <Draft|Active>")
	}

	exam, err := a.exams.UpdateStatus(ctx, args[0], model.ExamStatus(args[1]))
	if err != nil {
		return err
	}
	fmt.Printf("Exam %s is now %s\n", exam.ID, exam.Status(time.Now()))
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: examsync <command> [args]

Commands:
  login                             Sign in to the portal
  logout                            Sign out and drop local state
  whoami                            Show the current user
  subjects [search]                 List subjects
  subject-status <id> <active|inactive>
  users                             List users (admin)
  exams                             List teacher exams
  exam-status <id> <Draft|Active>   Change an exam's status
  cache-clear                       Drop the query cache`)
}

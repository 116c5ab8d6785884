// Package main — консольный клиент DealerFlow Pro.
//
// Команды покрывают весь жизненный цикл сессии: вход, регистрацию, выход,
// просмотр состояния и тарифов, смену и отмену подписки, генерацию контента,
// настройку скрапинга и работу с библиотекой изображений. Перед выполнением
// любой команды клиент пытается восстановить сессию по сохранённому токену.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dealerflowpro/dealerflow-client/internal/api"
	"github.com/dealerflowpro/dealerflow-client/internal/config"
	"github.com/dealerflowpro/dealerflow-client/internal/entitlements"
	"github.com/dealerflowpro/dealerflow-client/internal/session"
	"github.com/dealerflowpro/dealerflow-client/internal/tokenstore"
)

const usage = `Usage: dealerflow <command> [flags]

Commands:
  signup    register a dealership account
  login     sign in with email and password
  logout    sign out and drop the stored token
  status    show session state, profile and subscription
  plans     list available plans
  upgrade   switch to another plan
  cancel    cancel the current subscription
  generate  generate social media posts
  scrape    configure website scraping
  upload    upload vehicle images
  images    list the image library
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.MustLoad()
	logger := newLogger(cfg.Env)

	tokens, err := tokenstore.NewFileStore(cfg.Client.TokenDir)
	if err != nil {
		logger.Error("failed to init token store", slog.Any("err", err))
		os.Exit(1)
	}

	client := api.New(cfg.Client.APIBaseURL, cfg.Client.Timeout)
	manager := session.New(logger, client, tokens)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := manager.Restore(ctx); err != nil {
		logger.Warn("session restore failed", slog.Any("err", err))
	}

	if err := run(ctx, manager, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newLogger настраивает журнал: в локальном окружении — debug, иначе info.
func newLogger(env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "local" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func run(ctx context.Context, m *session.Manager, command string, args []string) error {
	switch command {
	case "signup":
		return cmdSignup(ctx, m, args)
	case "login":
		return cmdLogin(ctx, m, args)
	case "logout":
		m.Logout(ctx)
		fmt.Println("Signed out.")
		return nil
	case "status":
		return cmdStatus(m)
	case "plans":
		return cmdPlans()
	case "upgrade":
		return cmdUpgrade(ctx, m, args)
	case "cancel":
		return cmdCancel(ctx, m)
	case "generate":
		return cmdGenerate(ctx, m, args)
	case "scrape":
		return cmdScrape(ctx, m, args)
	case "upload":
		return cmdUpload(ctx, m, args)
	case "images":
		return cmdImages(ctx, m, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func cmdSignup(ctx context.Context, m *session.Manager, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	dealership := fs.String("dealership", "", "dealership name")
	contact := fs.String("contact", "", "contact person name")
	email := fs.String("email", "", "account email")
	phone := fs.String("phone", "", "contact phone (optional)")
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)

	form := api.SignupForm{
		DealershipName: *dealership,
		ContactName:    *contact,
		Email:          *email,
		Phone:          *phone,
		Password:       *password,
	}
	if err := m.Signup(ctx, form); err != nil {
		return err
	}
	fmt.Printf("Welcome, %s! Your trial subscription is active.\n", m.User().DealershipName)
	return nil
}

func cmdLogin(ctx context.Context, m *session.Manager, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)

	if err := m.Login(ctx, *email, *password); err != nil {
		return err
	}
	fmt.Printf("Signed in as %s.\n", m.User().DealershipName)
	return nil
}

func cmdStatus(m *session.Manager) error {
	fmt.Println("Session:", m.State())

	user := m.User()
	if user == nil {
		return nil
	}
	fmt.Printf("Dealership: %s (%s)\n", user.DealershipName, user.Email)

	sub := m.Subscription()
	if sub == nil {
		fmt.Println("Subscription: unknown, feature checks fall back to trial limits")
		return nil
	}
	fmt.Printf("Plan: %s (%s)\n", sub.Plan, sub.Status)
	if sub.DaysUntilRenewal > 0 {
		fmt.Printf("Days until renewal: %d\n", sub.DaysUntilRenewal)
	}
	if f := sub.Features; f != nil {
		fmt.Printf("Posts per month: %s, platforms: %s\n",
			formatLimit(f.MaxPostsPerMonth), strings.Join(f.Platforms, ", "))
	}
	return nil
}

func cmdPlans() error {
	for _, plan := range entitlements.Plans() {
		f := entitlements.Fallback(plan)
		fmt.Printf("%-14s posts/month: %-10s platforms: %s\n",
			plan, formatLimit(f.MaxPostsPerMonth), strings.Join(f.Platforms, ", "))
	}
	return nil
}

func cmdUpgrade(ctx context.Context, m *session.Manager, args []string) error {
	fs := flag.NewFlagSet("upgrade", flag.ExitOnError)
	plan := fs.String("plan", "", "target plan: starter, professional or enterprise")
	cycle := fs.String("cycle", "monthly", "billing cycle: monthly or yearly")
	method := fs.String("payment-method", "demo_payment_method", "payment method id")
	_ = fs.Parse(args)

	if err := m.Upgrade(ctx, *plan, *cycle, *method); err != nil {
		return err
	}
	fmt.Printf("Subscription upgraded to %s.\n", *plan)
	return nil
}

func cmdCancel(ctx context.Context, m *session.Manager) error {
	if err := m.Cancel(ctx); err != nil {
		return err
	}
	fmt.Println("Subscription cancelled.")
	return nil
}

func cmdGenerate(ctx context.Context, m *session.Manager, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	contentType := fs.String("type", "vehicle_showcase", "content type")
	keywords := fs.String("keywords", "", "keywords for the posts")
	platforms := fs.String("platforms", "facebook", "comma-separated platforms")
	_ = fs.Parse(args)

	posts, err := m.GenerateContent(ctx, *contentType, *keywords, splitList(*platforms))
	if err != nil {
		return err
	}
	for _, post := range posts {
		fmt.Printf("[%s] %s\n", post.Platform, post.Content)
		if len(post.Hashtags) > 0 {
			fmt.Println("  ", strings.Join(post.Hashtags, " "))
		}
	}
	return nil
}

func cmdScrape(ctx context.Context, m *session.Manager, args []string) error {
	fs := flag.NewFlagSet("scrape", flag.ExitOnError)
	url := fs.String("url", "", "dealership website url")
	_ = fs.Parse(args)

	cfg, err := m.SetupScraping(ctx, *url)
	if err != nil {
		return err
	}
	fmt.Printf("Scraping configured for %s (platform: %s).\n", cfg.WebsiteURL, cfg.DetectedPlatform)
	return nil
}

func cmdUpload(ctx context.Context, m *session.Manager, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	dealershipID := fs.String("dealership", "", "dealership id")
	year := fs.String("year", "", "vehicle year")
	vehicleMake := fs.String("make", "", "vehicle make")
	model := fs.String("model", "", "vehicle model")
	_ = fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("no image files given")
	}

	files := make([]api.ImageFile, 0, fs.NArg())
	for _, path := range fs.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		files = append(files, api.ImageFile{Name: filepath.Base(path), Data: data})
	}

	vehicle := api.VehicleMeta{Year: *year, Make: *vehicleMake, Model: *model}
	images, err := m.UploadImages(ctx, *dealershipID, vehicle, files)
	if err != nil {
		return err
	}
	fmt.Printf("Uploaded %d image(s).\n", len(images))
	return nil
}

func cmdImages(ctx context.Context, m *session.Manager, args []string) error {
	fs := flag.NewFlagSet("images", flag.ExitOnError)
	dealershipID := fs.String("dealership", "", "dealership id")
	_ = fs.Parse(args)

	images, err := m.ListImages(ctx, *dealershipID)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		fmt.Println("Image library is empty.")
		return nil
	}
	for _, img := range images {
		fmt.Printf("%s  %s (%s)\n", img.ID, img.Name, img.Source)
	}
	return nil
}

func formatLimit(n int) string {
	if n == entitlements.Unlimited {
		return "unlimited"
	}
	return fmt.Sprintf("%d", n)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

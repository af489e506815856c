package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/Suzzal26/Your-IT-Center/internal/auth"
	"github.com/Suzzal26/Your-IT-Center/internal/domain"
	"github.com/Suzzal26/Your-IT-Center/internal/httpapi"
	"github.com/Suzzal26/Your-IT-Center/internal/inventory"
	"github.com/Suzzal26/Your-IT-Center/internal/notify"
	"github.com/Suzzal26/Your-IT-Center/internal/order"
	"github.com/Suzzal26/Your-IT-Center/pkg/kafka"
	"github.com/Suzzal26/Your-IT-Center/pkg/metrics"
)

type cfg struct {
	Port            string
	DatabaseURL     string // empty runs the in-memory backend
	KafkaBrokers    string
	KafkaTopic      string
	AdminToken      string
	UserTokens      string // "token:userID,token:userID"
	DeliveryFee     int64
	ShutdownTimeout time.Duration
}

func readCfg() cfg {
	fee, _ := strconv.ParseInt(getenv("DELIVERY_FEE", "0"), 10, 64)
	shutdownSec, _ := strconv.Atoi(getenv("SHUTDOWN_TIMEOUT_SEC", "15"))
	return cfg{
		Port:            getenv("PORT", "8080"),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		KafkaBrokers:    getenv("KAFKA_BROKERS", ""),
		KafkaTopic:      getenv("KAFKA_TOPIC", "storefront.notifications"),
		AdminToken:      getenv("ADMIN_TOKEN", ""),
		UserTokens:      getenv("USER_TOKENS", ""),
		DeliveryFee:     fee,
		ShutdownTimeout: time.Duration(shutdownSec) * time.Second,
	}
}

func main() {
	cfg := readCfg()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		inv    inventory.Store
		repo   order.Repository
		pinger httpapi.Pinger
	)
	if cfg.DatabaseURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := pgxpool.New(connectCtx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.Fatalf("db connect error: %v", err)
		}
		defer pool.Close()
		if err := pingDB(ctx, pool); err != nil {
			log.Fatalf("db ping error: %v", err)
		}
		inv = inventory.NewPostgresStore(pool)
		repo = order.NewPostgresRepository(pool)
		pinger = pool
	} else {
		log.Print("DATABASE_URL empty, running with in-memory stores")
		memInv := inventory.NewMemoryStore()
		memRepo := order.NewMemoryRepository(nil)
		seedDemo(memInv, memRepo)
		inv = memInv
		repo = memRepo
	}

	var notifier notify.Notifier = &notify.LogNotifier{Service: "storefront"}
	kafkaClient := kafka.NewClient(cfg.KafkaBrokers)
	if kafkaClient.Enabled() {
		kn := notify.NewKafkaNotifier(kafkaClient, cfg.KafkaTopic)
		defer kn.Close()
		notifier = kn
	}

	svc := order.NewService(order.ServiceConfig{
		Repo:        repo,
		Inventory:   inv,
		Notifier:    notifier,
		DeliveryFee: cfg.DeliveryFee,
	})

	verifier := auth.NewStaticVerifier(cfg.AdminToken, cfg.UserTokens)
	srvMetrics := metrics.NewServerMetrics("api")
	handler := httpapi.NewHandler(svc, verifier, srvMetrics, pinger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("storefront listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func pingDB(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return pool.Ping(ctx)
}

// seedDemo loads a small catalog so the memory backend is usable out of the
// box.
func seedDemo(inv *inventory.MemoryStore, repo *order.MemoryRepository) {
	inv.Seed(domain.Product{
		ID: "demo-laptop", Name: "ProBook 450 G10", Price: 11500000, Stock: 8,
		Category: domain.CategoryComputer, Subcategory: "Laptop",
	})
	inv.Seed(domain.Product{
		ID: "demo-printer", Name: "LaserJet M111w", Price: 2350000, Stock: 15,
		Category: domain.CategoryPrinter, Subcategory: "Laser",
	})
	inv.Seed(domain.Product{
		ID: "demo-scanner", Name: "Handheld Barcode Scanner", Price: 450000, Stock: 30,
		Category: domain.CategoryPOS, Subcategory: "Barcode Scanner",
	})
	repo.AddUser("demo-user", domain.Purchaser{Name: "Demo User", Email: "demo@example.com"})
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

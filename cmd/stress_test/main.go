package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rl1809/pos/internal/adapter/handler"
	"github.com/rl1809/pos/internal/adapter/storage"
	"github.com/rl1809/pos/internal/config"
	"github.com/rl1809/pos/internal/core/domain"
)

const (
	initialStock = 20
	cashiers     = 50
)

// Every cashier sells one unit of the same product through a running server.
// Stock writes overwrite the value read during validation, so concurrent sales
// can leave more stock behind than was actually sold.
func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := sqlx.Connect("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(db.DB); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}
	store := storage.NewMySQLAdapter(db)

	// Seed product and cashiers
	now := time.Now().UTC()
	product := domain.Product{
		ID:          uuid.NewString(),
		Name:        "Stress Widget",
		Description: "stress test item",
		Category:    "stress",
		Price:       decimal.RequireFromString("1.00"),
		Stock:       initialStock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.CreateProduct(ctx, product); err != nil {
		log.Fatalf("failed to seed product: %v", err)
	}

	sellerIDs := make([]string, cashiers)
	for i := range sellerIDs {
		p := domain.Profile{
			ID:       uuid.NewString(),
			Username: fmt.Sprintf("stress-%d-%d", now.Unix(), i),
			FullName: fmt.Sprintf("Stress Cashier %d", i),
			Role:     domain.RoleCashier,
		}
		if err := store.CreateProfile(ctx, p); err != nil {
			log.Fatalf("failed to seed cashier: %v", err)
		}
		sellerIDs[i] = p.ID
	}

	target := cfg.GRPCAddr
	if strings.HasPrefix(target, ":") {
		target = "localhost" + target
	}
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("failed to dial grpc: %v", err)
	}
	defer conn.Close()
	client := handler.NewCheckoutClient(conn)

	// Counters
	var successCount atomic.Int32
	var shortageCount atomic.Int32
	var errorCount atomic.Int32

	// Spawn concurrent cashiers
	var wg sync.WaitGroup
	start := time.Now()

	for _, sellerID := range sellerIDs {
		wg.Add(1)
		go func(sellerID string) {
			defer wg.Done()
			callCtx := handler.WithUserID(ctx, sellerID)

			if _, err := client.AddItem(callCtx, &handler.AddItemRPCRequest{ProductID: product.ID, Quantity: 1}); err != nil {
				shortageCount.Add(1)
				return
			}

			resp, err := client.Checkout(callCtx, &handler.CheckoutRPCRequest{RequestID: uuid.NewString()})
			switch {
			case err != nil:
				errorCount.Add(1)
			case resp.Success:
				successCount.Add(1)
			case len(resp.Shortages) > 0:
				shortageCount.Add(1)
			default:
				errorCount.Add(1)
			}
		}(sellerID)
	}

	wg.Wait()
	elapsed := time.Since(start)

	final, err := store.ReadProduct(ctx, product.ID)
	if err != nil {
		log.Fatalf("failed to read final stock: %v", err)
	}

	// Results
	sold := int(successCount.Load())
	expected := initialStock - sold

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Cashiers:         %d\n", cashiers)
	fmt.Printf("Sales:            %d\n", sold)
	fmt.Printf("Shortages:        %d\n", shortageCount.Load())
	fmt.Printf("Errors:           %d\n", errorCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Printf("Final Stock:      %d\n", final.Stock)
	fmt.Println("==========================================")

	if final.Stock == expected {
		fmt.Println("PASS: stock matches units sold")
	} else {
		fmt.Printf("LOST UPDATES: expected stock %d, got %d (%d units sold without a decrement)\n",
			expected, final.Stock, final.Stock-expected)
	}
}

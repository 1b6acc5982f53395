package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mmdatafocus/ledger_backend/config"
	"github.com/mmdatafocus/ledger_backend/ledger"
	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/store"
	"github.com/mmdatafocus/ledger_backend/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	tenantID := flag.String("tenant-id", "", "Tenant whose cached balances are refreshed (required).")
	accountID := flag.Int("account-id", 0, "Optional: refresh only this account. 0 refreshes every account of the tenant.")
	dryRun := flag.Bool("dry-run", false, "Report drift without writing balances.")
	sqlitePath := flag.String("sqlite", "", "Optional: use this SQLite file instead of the MySQL connection from env.")
	flag.Parse()

	tenant := strings.TrimSpace(*tenantID)
	if tenant == "" {
		fmt.Fprintln(os.Stderr, "-tenant-id is required")
		os.Exit(2)
	}

	db, err := openDatabase(strings.TrimSpace(*sqlitePath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "database: %v\n", err)
		os.Exit(1)
	}

	ctx := utils.SetTenantIdInContext(context.Background(), tenant)
	engine := ledger.NewEngine(store.NewGormStore(db))

	drifted, err := run(ctx, engine, tenant, *accountID, *dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "recompute failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("done tenant=%s drifted=%d dry_run=%t\n", tenant, drifted, *dryRun)
}

func openDatabase(sqlitePath string) (*gorm.DB, error) {
	if sqlitePath != "" {
		db, err := config.OpenDatabase(sqlite.Open(sqlitePath))
		if err != nil {
			return nil, err
		}
		return db, models.MigrateTable(db)
	}
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized (config.GetDB returned nil)")
	}
	return db, nil
}

// run reports each drifted account and recomputes it unless dryRun.
func run(ctx context.Context, engine *ledger.Engine, tenantId string, accountId int, dryRun bool) (int, error) {
	ids := []int{accountId}
	if accountId == 0 {
		accounts, err := engine.ListAccounts(ctx, tenantId, models.AccountFilter{})
		if err != nil {
			return 0, err
		}
		ids = ids[:0]
		for _, a := range accounts {
			ids = append(ids, a.ID)
		}
	}

	drifted := 0
	for _, id := range ids {
		drift, err := engine.Drift(ctx, tenantId, id)
		if err != nil {
			return drifted, fmt.Errorf("account %d: %w", id, err)
		}
		if !drift.Drifted() {
			continue
		}
		drifted++
		fmt.Printf("account=%d cached=%s recomputed=%s\n", id, drift.Cached.String(), drift.Recomputed.String())
		if dryRun {
			continue
		}
		if _, err := engine.Recompute(ctx, tenantId, id); err != nil {
			return drifted, fmt.Errorf("account %d: %w", id, err)
		}
	}
	return drifted, nil
}

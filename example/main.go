package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/smartflow"
	"github.com/meikuraledutech/smartflow/postgres"
)

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	// Wire up the postgres implementation behind the Store interface.
	var store smartflow.Store = postgres.New(pool)

	// 1. Create tables
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}
	fmt.Println("schema created")

	// ── Build: Sunday goes to the weekend page, everything else falls through ──
	flow := smartflow.New()
	flow.SetDefaultURL("https://weekday.example")

	sunday, err := flow.AddConditionNode(smartflow.ConditionMetadata{
		Criteria: "day",
		Operator: smartflow.Is,
		Value:    "sunday",
	})
	if err != nil {
		log.Fatalf("add condition: %v", err)
	}
	weekend := flow.AddDestinationNode("Weekend", smartflow.DestinationMetadata{URL: "https://weekend.example"})

	mustConnect(flow, smartflow.DefaultSource, smartflow.Ref(sunday), smartflow.Success)
	mustConnect(flow, smartflow.Ref(sunday), smartflow.Ref(weekend), smartflow.Success)
	mustConnect(flow, smartflow.Ref(sunday), smartflow.DefaultDestination, smartflow.Danger)

	fmt.Printf("flow valid: %v\n", flow.Valid())

	// ── Simulate ──────────────────────────────────────────────────────
	for _, day := range []string{"sunday", "monday"} {
		sim, err := flow.Simulate(smartflow.Attributes{"day": day}, time.Now())
		if err != nil {
			log.Fatalf("simulate: %v", err)
		}
		fmt.Printf("\n%s ->\n", day)
		printJSON(sim.Destination)
	}

	// ── Save into the library ─────────────────────────────────────────
	library := smartflow.NewLibrary(store, slog.Default())
	library.Load(ctx)
	saved, err := library.Save(ctx, fmt.Sprintf("weekend-routing-%d", time.Now().Unix()), flow, time.Now())
	if err != nil {
		log.Fatalf("save: %v", err)
	}
	fmt.Printf("\nsaved flow %s\n", saved.ID)
	printJSON(saved.Snapshot)

	// ── Reload and check it still routes the same ─────────────────────
	reloaded := smartflow.NewLibrary(store, slog.Default())
	reloaded.Load(ctx)
	got, err := reloaded.Get(saved.ID)
	if err != nil {
		log.Fatalf("get: %v", err)
	}
	restored := smartflow.FromSnapshot(got.Snapshot)
	fmt.Printf("\nrestored sunday -> %s\n", restored.Resolve(smartflow.Attributes{"day": "sunday"}).URL)

	// ── Cleanup ───────────────────────────────────────────────────────
	if err := reloaded.Remove(ctx, saved.ID); err != nil {
		log.Fatalf("remove: %v", err)
	}
	fmt.Println("\nflow removed")
}

func mustConnect(f *smartflow.Flow, from, to smartflow.NodeRef, port smartflow.Port) {
	if _, ok, err := f.AddConnection(from, to, port); err != nil || !ok {
		log.Fatalf("connect %s -> %s: ok=%v err=%v", from, to, ok, err)
	}
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}

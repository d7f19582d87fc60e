package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"outpost.sim/internal/persistence/indexdb"
	persistlog "outpost.sim/internal/persistence/log"
	"outpost.sim/internal/sim/colony"
	"outpost.sim/internal/sim/tuning"
	"outpost.sim/internal/sim/world"
	"outpost.sim/internal/transport/observer"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		colonyID   = flag.String("colony", "colony_1", "colony id")
		seed       = flag.Int64("seed", 1337, "world seed")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		schemaDir  = flag.String("schemas", "./schemas", "protocol schema directory")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite tick/job index")

		colonists = flag.Int("colonists", 5, "starting colonist count")
		prey      = flag.Int("prey", 8, "starting prey creature count")
		hostiles  = flag.Int("hostiles", 2, "starting hostile creature count")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Tuning{}.Defaulted()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}
	tune = tune.Defaulted()

	colonyDir := filepath.Join(*dataDir, "colonies", *colonyID)
	_ = os.MkdirAll(colonyDir, 0o755)

	grid := world.Generate(world.GenConfig{Seed: *seed})

	c := colony.New(colony.Config{ID: *colonyID, Seed: *seed}, tune, grid)
	seedPopulation(c, grid, *colonists, *prey, *hostiles)

	// Optional: read-model index (does not affect sim determinism).
	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(colonyDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index db: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertRunMeta(*colonyID, *seed, tune); err != nil {
			logger.Printf("index db: upsert run meta: %v", err)
		}
	}

	tickLog := persistlog.NewTickLogger(colonyDir)
	jobLog := persistlog.NewJobLogger(colonyDir)
	defer tickLog.Close()
	defer jobLog.Close()
	if idx != nil {
		c.SetTickLogger(multiTickLogger{a: tickLog, b: idx})
		c.SetJobSink(multiJobSink{a: jobLog, b: idx})
	} else {
		c.SetTickLogger(tickLog)
		c.SetJobSink(jobLog)
	}

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := c.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("colony stopped: %v", err)
		}
	}()

	obsSrv, err := observer.NewServer(c, logger, *schemaDir, grid.W, grid.H, *seed, tune.TickRateHz)
	if err != nil {
		logger.Fatalf("observer server: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		st := c.Stats()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP outpost_colony_tick Current colony tick.\n")
		fmt.Fprintf(rw, "# TYPE outpost_colony_tick gauge\n")
		fmt.Fprintf(rw, "outpost_colony_tick{colony=%q} %d\n", *colonyID, c.CurrentTick())

		fmt.Fprintf(rw, "# HELP outpost_jobs_pending Pending job count.\n")
		fmt.Fprintf(rw, "# TYPE outpost_jobs_pending gauge\n")
		fmt.Fprintf(rw, "outpost_jobs_pending{colony=%q} %d\n", *colonyID, c.PendingCount())

		fmt.Fprintf(rw, "# HELP outpost_jobs_active Claimed or in-progress job count.\n")
		fmt.Fprintf(rw, "# TYPE outpost_jobs_active gauge\n")
		fmt.Fprintf(rw, "outpost_jobs_active{colony=%q} %d\n", *colonyID, c.ActiveCount())

		fmt.Fprintf(rw, "# HELP outpost_autonomy_jobs_total Jobs created by the autonomy generator.\n")
		fmt.Fprintf(rw, "# TYPE outpost_autonomy_jobs_total counter\n")
		fmt.Fprintf(rw, "outpost_autonomy_jobs_total{colony=%q,kind=%q} %d\n", *colonyID, "hunt", st.Hunt)
		fmt.Fprintf(rw, "outpost_autonomy_jobs_total{colony=%q,kind=%q} %d\n", *colonyID, "fish", st.Fish)
		fmt.Fprintf(rw, "outpost_autonomy_jobs_total{colony=%q,kind=%q} %d\n", *colonyID, "harvest", st.Harvest)
		fmt.Fprintf(rw, "outpost_autonomy_jobs_total{colony=%q,kind=%q} %d\n", *colonyID, "chop", st.Chop)
		fmt.Fprintf(rw, "outpost_autonomy_jobs_total{colony=%q,kind=%q} %d\n", *colonyID, "mine", st.Mine)
		fmt.Fprintf(rw, "outpost_autonomy_jobs_total{colony=%q,kind=%q} %d\n", *colonyID, "cook", st.Cook)
		fmt.Fprintf(rw, "outpost_autonomy_jobs_total{colony=%q,kind=%q} %d\n", *colonyID, "brew", st.Brew)
	})
	mux.HandleFunc("/v1/observer/bootstrap", obsSrv.BootstrapHandler())
	mux.HandleFunc("/v1/observer/ws", obsSrv.WSHandler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("colony=%s seed=%d grid=%dx%d listening on %s", *colonyID, *seed, grid.W, grid.H, *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

var colonistNames = []string{
	"Ash", "Briar", "Cole", "Dara", "Ewan", "Fen", "Gale", "Hollis",
	"Iris", "Juno", "Kier", "Lark", "Moss", "Nell", "Orin", "Pia",
}

func seedPopulation(c *colony.Colony, grid *world.Grid, colonists, prey, hostiles int) {
	for i := 0; i < colonists; i++ {
		c.SpawnColonist(colonistNames[i%len(colonistNames)])
	}
	preyKinds := []string{"DEER", "BOAR", "HARE", "ELK"}
	for i := 0; i < prey; i++ {
		anchor := world.Point{X: (i*7 + 3) % grid.W, Y: (i*11 + 5) % grid.H}
		pos, ok := passableNear(grid, anchor)
		if !ok {
			continue
		}
		c.SpawnCreature(preyKinds[i%len(preyKinds)], pos, false)
	}
	for i := 0; i < hostiles; i++ {
		anchor := world.Point{X: grid.W - 2, Y: (i*13 + 1) % grid.H}
		pos, ok := passableNear(grid, anchor)
		if !ok {
			continue
		}
		c.SpawnCreature("WOLF", pos, true)
	}
}

func passableNear(grid *world.Grid, anchor world.Point) (world.Point, bool) {
	if grid.IsPassable(anchor) {
		return anchor, true
	}
	for r := 1; r <= 16; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				p := world.Point{X: anchor.X + dx, Y: anchor.Y + dy}
				if grid.IsPassable(p) {
					return p, true
				}
			}
		}
	}
	return world.Point{}, false
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

type multiTickLogger struct {
	a colony.TickLogger
	b colony.TickLogger
}

func (m multiTickLogger) WriteTick(entry colony.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}

type multiJobSink struct {
	a colony.JobSink
	b colony.JobSink
}

func (m multiJobSink) WriteJob(rec colony.JobRecord) error {
	if m.a != nil {
		_ = m.a.WriteJob(rec)
	}
	if m.b != nil {
		_ = m.b.WriteJob(rec)
	}
	return nil
}

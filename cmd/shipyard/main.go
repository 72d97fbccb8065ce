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

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	persistlog "homeship.ai/internal/persistence/log"
	"homeship.ai/internal/sim/catalogs"
	"homeship.ai/internal/sim/crew"
	"homeship.ai/internal/sim/hold"
	"homeship.ai/internal/sim/mathx"
	"homeship.ai/internal/sim/refit"
	"homeship.ai/internal/sim/ship"
	"homeship.ai/internal/sim/tasks"
	"homeship.ai/internal/sim/tuning"
	"homeship.ai/internal/transport/observer"
)

func main() {
	var (
		seed       = flag.Int64("seed", 1337, "generation seed")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite audit index")
		noLogs     = flag.Bool("no_logs", false, "do not write audit/generation logs")

		length = flag.Int("length", 0, "middle length (0: draw from tuning range)")
		fill   = flag.Float64("fill", -1, "cargo fill fraction in [0,1] (<0: draw from tuning range)")
		crewN  = flag.Int("crew", 8, "crew to board after generation")
		holdN  = flag.Int("hold", 0, "hold capacity in units (0: unbounded)")
		demo   = flag.Bool("demo", false, "run the scripted refit demo after generation")

		observe = flag.String("observe", "", "observer http listen address, e.g. 127.0.0.1:8081 (empty: exit after printing)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[shipyard] ", log.LstdFlags|log.Lmicroseconds)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Printf("load .env: %v", err)
	}

	cat, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalog: %v", err)
	}
	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	if err := tune.CheckCatalog(cat); err != nil {
		logger.Fatalf("tuning: %v", err)
	}

	shipID := fmt.Sprintf("seed-%d", *seed)
	runID := uuid.NewString()
	shipDir := filepath.Join(*dataDir, "ships", shipID)

	// Optional: read-model index (does not affect generation).
	idx, err := openRuntimeIndex(shipDir, shipID, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(cat, tune); err != nil {
			logger.Printf("index backend: upsert catalogs: %v", err)
		}
	}

	var sinks []ship.AuditSink
	var genLog *persistlog.GenerationLogger
	if !*noLogs {
		auditLog := persistlog.NewAuditLogger(shipDir)
		defer auditLog.Close()
		genLog = persistlog.NewGenerationLogger(shipDir)
		defer genLog.Close()
		sinks = append(sinks, auditLog)
	}
	if idx != nil {
		sinks = append(sinks, idx)
	}
	var obs *observer.Server
	if *observe != "" {
		obs = observer.NewServer(logger)
		sinks = append(sinks, obs)
	}

	h := hold.New(*holdN)
	roster := crew.NewRoster()
	deps := ship.Deps{Jobs: roster, Housing: roster, Cargo: h, Audit: ship.TeeAudit(sinks...)}

	rng := mathx.NewRand(*seed)
	ranged := *length <= 0 || *fill < 0
	var (
		s   *ship.Ship
		rep ship.Report
	)
	if ranged {
		s, rep, err = ship.GenerateRange(cat, tune, deps, rng)
	} else {
		s, rep, err = ship.Generate(cat, tune, deps, rng, *length, *fill)
	}
	if err != nil {
		logger.Fatalf("generate: %v", err)
	}
	logger.Printf("generated ship=%s run=%s middle=%d fill=%.3f target=%d cargo=%d digest=%s",
		shipID, runID, rep.MiddleLength, rep.Fill, rep.Target, rep.CargoModules, rep.Digest)

	if genLog != nil {
		if err := genLog.WriteGeneration(persistlog.GenerationEntry{
			Report:        rep,
			CatalogDigest: cat.Digest,
			TuningDigest:  tune.Digest(),
			Ranged:        ranged,
			RunID:         runID,
		}); err != nil {
			logger.Printf("generation log: %v", err)
		}
	}
	if idx != nil {
		idx.RecordGeneration(runID, rep)
	}

	boarded := roster.Board(*crewN)
	logger.Printf("boarded crew=%d housed=%d homeless=%d", *crewN, boarded, roster.Homeless())

	chain := tasks.NewChain(s)
	v := refit.New(s, chain, tune, h)
	publish := func() {
		if obs != nil {
			obs.Publish(observer.LayoutFrame(s, chain, h, roster))
		}
	}
	publish()

	if *demo {
		for _, st := range runDemo(s, chain, v, h, publish) {
			logger.Printf("demo: %s", st)
		}
	}
	fmt.Print(s.Describe())

	if obs == nil {
		return
	}

	ctx, cancel := signalContext()
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP homeship_audit_seq Audit entries emitted by the ship.\n")
		fmt.Fprintf(rw, "# TYPE homeship_audit_seq counter\n")
		fmt.Fprintf(rw, "homeship_audit_seq{ship=%q} %d\n", shipID, s.AuditSeq())

		fmt.Fprintf(rw, "# HELP homeship_observers Connected observers.\n")
		fmt.Fprintf(rw, "# TYPE homeship_observers gauge\n")
		fmt.Fprintf(rw, "homeship_observers{ship=%q} %d\n", shipID, obs.Subscribers())

		fmt.Fprintf(rw, "# HELP homeship_observer_dropped_total Frames dropped for slow observers.\n")
		fmt.Fprintf(rw, "# TYPE homeship_observer_dropped_total counter\n")
		fmt.Fprintf(rw, "homeship_observer_dropped_total{ship=%q} %d\n", shipID, obs.Dropped())

		if idx != nil {
			st := idx.Stats()
			fmt.Fprintf(rw, "# HELP homeship_index_queue_depth Pending index writes.\n")
			fmt.Fprintf(rw, "# TYPE homeship_index_queue_depth gauge\n")
			fmt.Fprintf(rw, "homeship_index_queue_depth{ship=%q} %d\n", shipID, st.QueueDepth)
			fmt.Fprintf(rw, "# HELP homeship_index_dropped_total Index writes dropped when the queue was full.\n")
			fmt.Fprintf(rw, "# TYPE homeship_index_dropped_total counter\n")
			fmt.Fprintf(rw, "homeship_index_dropped_total{ship=%q,kind=\"audit\"} %d\n", shipID, st.DropAuditTotal)
			fmt.Fprintf(rw, "homeship_index_dropped_total{ship=%q,kind=\"generation\"} %d\n", shipID, st.DropGenerationTotal)
		}
	})
	mux.HandleFunc("/observer/layout", obs.LayoutHandler())
	mux.HandleFunc("/observer/ws", obs.WSHandler())

	srv := &http.Server{
		Addr:              *observe,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("observer listening on %s", *observe)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("http: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Command sailnavsim runs the boat simulation engine: a fixed-cadence
// scheduler advancing every registered boat, a TCP request server answering
// wind/ocean/boat queries, a tailed command file feeding the scheduler, and
// a background writer persisting log batches to CSV and sqlite.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/sailnavsim/internal/advfixture"
	"github.com/banshee-data/sailnavsim/internal/commandsrc"
	"github.com/banshee-data/sailnavsim/internal/engineconfig"
	"github.com/banshee-data/sailnavsim/internal/envfixture"
	"github.com/banshee-data/sailnavsim/internal/httputil"
	"github.com/banshee-data/sailnavsim/internal/initloader"
	"github.com/banshee-data/sailnavsim/internal/netserver"
	"github.com/banshee-data/sailnavsim/internal/registry"
	"github.com/banshee-data/sailnavsim/internal/scheduler"
	"github.com/banshee-data/sailnavsim/internal/store"
	"github.com/banshee-data/sailnavsim/internal/version"
)

var (
	showVersion      = flag.Bool("version", false, "Print version and exit")
	showVersionShort = flag.Bool("v", false, "Print version and exit (shorthand)")
	perf             = flag.Bool("perf", false, "Log the scheduler's total run time when it stops")
	netPort          = flag.Int("netport", 0, "TCP port for the request server (overrides config)")
	host             = flag.String("host", "", "Admin HTTP listen address")
	commandFile      = flag.String("commandfile", "", "Path to a tailed command file")
	dbPath           = flag.String("dbpath", "sailnavsim.db", "Path to the sqlite database file")
	csvDir           = flag.String("csvdir", "", "Directory for per-boat CSV logs (empty disables CSV logging)")
	configPath       = flag.String("config", "", "Path to an engine tuning config JSON file (empty uses compiled-in defaults)")
	workers          = flag.Int("workers", 0, "Request server worker count (overrides config)")
	seedCSV          = flag.String("seed", "", "Path to a CSV seed file used only when the database has no boat_snapshot rows")
)

func main() {
	flag.Parse()

	if *showVersion || *showVersionShort {
		fmt.Printf("sailnavsim %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	cfg := engineconfig.Defaults()
	if *configPath != "" {
		loaded, err := engineconfig.LoadEngineConfig(*configPath)
		if err != nil {
			log.Fatalf("sailnavsim: failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *netPort != 0 {
		cfg.NetPort = netPort
	}
	if *workers != 0 {
		cfg.NetWorkers = workers
	}

	db, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("sailnavsim: failed to open database: %v", err)
	}
	defer db.Close()

	reg := registry.New()
	if n, err := initloader.FromStore(reg, db); err != nil {
		log.Fatalf("sailnavsim: failed to hydrate registry from store: %v", err)
	} else if n == 0 && *seedCSV != "" {
		seeded, err := initloader.FromCSV(reg, *seedCSV)
		if err != nil {
			log.Fatalf("sailnavsim: failed to hydrate registry from seed file: %v", err)
		}
		log.Printf("sailnavsim: hydrated %d boats from seed file %q", seeded, *seedCSV)
	} else if n > 0 {
		log.Printf("sailnavsim: hydrated %d boats from database snapshot", n)
	}

	env := envfixture.New()
	celestialProv := envfixture.NewCelestial()
	advModel := advfixture.New()

	cmdLogger := log.New(os.Stderr, "commandsrc: ", log.LstdFlags)
	cmds := commandsrc.NewSource(cmdLogger)

	writerLogger := log.New(os.Stderr, "store: ", log.LstdFlags)
	writer := store.NewWriter(store.Config{
		DB:       db,
		CSVDir:   *csvDir,
		BusyWait: time.Duration(*cfg.SqliteBusyRetrySeconds) * time.Second,
		Logger:   writerLogger,
	})

	schedLogger := log.New(os.Stderr, "scheduler: ", log.LstdFlags)
	sched := scheduler.New(scheduler.Config{
		Registry:      reg,
		Commands:      cmds,
		Sink:          writer,
		Env:           env,
		CelestialProv: celestialProv,
		Advanced:      advModel,
		TickInterval:  time.Duration(*cfg.TickIntervalSeconds) * time.Second,
		Logger:        schedLogger,
	})

	netLogger := log.New(os.Stderr, "netserver: ", log.LstdFlags)
	netSrv := netserver.New(netserver.Config{
		Registry: reg,
		Env:      env,
		Commands: cmds,
		Workers:  *cfg.NetWorkers,
		Queue:    *cfg.NetQueue,
		Logger:   netLogger,
	})

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *commandFile != "" {
		stopTail := make(chan struct{})
		go func() {
			<-ctx.Done()
			close(stopTail)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			cmds.TailFile(*commandFile, time.Duration(*cfg.CommandPollSeconds)*time.Second, stopTail)
			log.Print("sailnavsim: command tailer stopped")
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		writer.Run(ctx)
		log.Print("sailnavsim: writer stopped")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		t0 := time.Now()
		sched.Run(ctx)
		if *perf {
			log.Printf("sailnavsim: scheduler ran for %v", time.Since(t0))
		}
		log.Print("sailnavsim: scheduler stopped")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		addr := fmt.Sprintf(":%d", *cfg.NetPort)
		if err := netSrv.Serve(ctx, addr); err != nil {
			log.Printf("sailnavsim: net server exited: %v", err)
		}
	}()

	if *host != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runAdminServer(ctx, *host, db, reg)
		}()
	}

	wg.Wait()
	log.Print("sailnavsim: graceful shutdown complete")
}

// runAdminServer mounts the sqlite debug surface plus a small JSON status
// endpoint and serves it until ctx is cancelled.
func runAdminServer(ctx context.Context, addr string, db *store.DB, reg *registry.Registry) {
	mux := http.NewServeMux()
	db.AttachAdminRoutes(mux)

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSONOK(w, map[string]any{
			"version":   version.Version,
			"boatCount": reg.Len(),
		})
	})

	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("sailnavsim: admin server failed: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("sailnavsim: admin server shutdown error: %v", err)
	}
}

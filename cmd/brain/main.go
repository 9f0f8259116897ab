// Command brain runs the Brain Dispatcher: the IPC listener, the websocket
// snapshot server, and (with --self-test) the built-in choreography check.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"silexa/brain/internal/brainsrv"
	"silexa/brain/internal/logshard"
	"silexa/brain/internal/notify"
	"silexa/brain/internal/security"
	"silexa/brain/internal/settings"
	"silexa/brain/internal/wstate"
)

func main() {
	selfTest := flag.Bool("self-test", false, "run the built-in choreography check and exit")
	ipcPort := flag.Int("ipc-port", 7000, "TCP port for the verb:payload IPC listener")
	wsPort := flag.Int("ws-port", 7001, "HTTP port for /healthz and the /ws/state snapshot stream")
	configDir := flag.String("config-dir", defaultConfigDir(), "directory holding settings.json and the log shard")
	overrideFile := flag.String("pattern-override", "", "optional TOML file overriding the dangerous-command pattern table")
	notifyURL := flag.String("notify-url", os.Getenv("BRAIN_NOTIFY_URL"), "optional webhook URL for Critical confirmation and deep-inspection events")
	flag.Parse()

	logger := log.New(os.Stdout, "brain ", log.LstdFlags|log.LUTC)

	if err := os.MkdirAll(*configDir, 0o755); err != nil {
		logger.Fatalf("create config dir: %v", err)
	}

	audit := logshard.NewJSONLAudit(logshard.DailyPath(filepath.Join(*configDir, "audit"), time.Now()))
	sec := security.NewManager(audit)

	if *overrideFile != "" {
		watcher := security.NewTableWatcher(*overrideFile, sec)
		go func() {
			ticker := time.NewTicker(5 * time.Second)
			defer ticker.Stop()
			for range ticker.C {
				if err := watcher.Poll(); err != nil {
					logger.Printf("pattern override poll: %v", err)
				}
			}
		}()
	}

	store := wstate.NewStore()
	settingsStore := settings.Open(filepath.Join(*configDir, "settings.json"), logger)
	loaded := settingsStore.Load()
	wstate.Do(store, func(w *wstate.World) (struct{}, error) {
		w.Settings = loaded
		return struct{}{}, nil
	})

	notifier := notify.New(*notifyURL, logger)
	brain := brainsrv.New(store, sec, logger, notifier, audit)
	defer brain.Shutdown()

	if *selfTest {
		if err := brainsrv.SelfTest(brain); err != nil {
			fmt.Fprintf(os.Stderr, "self-test failed: %v\n", err)
			os.Exit(2)
		}
		fmt.Println("self-test passed")
		os.Exit(0)
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", *ipcPort))
	if err != nil {
		logger.Fatalf("ipc listen: %v", err)
	}
	logger.Printf("ipc listening on %s", ln.Addr())

	go func() {
		if err := brain.Serve(ln); err != nil {
			logger.Fatalf("ipc serve: %v", err)
		}
	}()

	httpAddr := fmt.Sprintf(":%d", *wsPort)
	logger.Printf("http listening on %s", httpAddr)
	if err := http.ListenAndServe(httpAddr, brain.NewHTTPMux()); err != nil {
		logger.Fatalf("http serve: %v", err)
	}
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".brain"
	}
	return filepath.Join(home, ".config", "brain")
}

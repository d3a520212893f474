package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
)

// initConfig fills the global Config from the environment, falling
// back to the compiled defaults.
func initConfig() {
	Config.Addr = envStr("HONEY_ADDR", DefaultAddr)
	Config.DBPath = envStr("HONEY_DB_PATH", DefaultDBPath)
	Config.PingInterval = envSeconds("HONEY_PING_INTERVAL", DefaultPingInterval)
	Config.PingTimeout = envSeconds("HONEY_PING_TIMEOUT", DefaultPingTimeout)
	Config.StateThrottle = envSeconds("HONEY_THROTTLE_SECONDS", DefaultStateThrottle)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envSeconds(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

func main() {
	setupLogging()
	initConfig()
	InfoLog.Println("Initializing Honey game server...")

	initDB()
	defer db.Close()

	if !loadState() {
		InfoLog.Println("No snapshot found, generating fresh universe")
		worldLock.Lock()
		universe = generateUniverse()
		territories = generateTerritories()
		initBots()
		worldLock.Unlock()
		saveState()
	}

	go runSaver()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handleWS)
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Honey game server. Connect via /ws?player=<id>"))
	})

	server := &http.Server{
		Addr:    Config.Addr,
		Handler: middlewareCORS(middlewareSecurity(mux)),
		// No ReadTimeout: websocket connections are long-lived and the
		// keepalive loop handles dead peers.
	}

	go func() {
		InfoLog.Printf("Listening on %s (uuid %s)", Config.Addr, ServerUUID)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ErrorLog.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	InfoLog.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	server.Shutdown(ctx)

	// Shutdown does not reach hijacked websockets; close them and join
	// their loops, then let in-flight battles resolve and persist their
	// outcome before the final snapshot.
	closeAllSessions()
	awaitSessions()
	awaitBattles()
	saveState()
	InfoLog.Println("Shutdown complete")
}

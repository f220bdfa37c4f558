package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"kotoba-engine/internal/archive"
	"kotoba-engine/internal/asr"
	"kotoba-engine/internal/auth"
	"kotoba-engine/internal/config"
	"kotoba-engine/internal/cte"
	"kotoba-engine/internal/database"
	"kotoba-engine/internal/hiragana"
	"kotoba-engine/internal/registry"
	"kotoba-engine/internal/stats"
	"kotoba-engine/internal/storage"
	"kotoba-engine/internal/streaming"
	"kotoba-engine/internal/translate"
	"kotoba-engine/internal/workerpool"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Comma-separated allow-list, e.g. ALLOWED_ORIGINS=http://localhost:3000
		allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
		if allowedOriginsEnv == "" {
			log.Println("WARNING: ALLOWED_ORIGINS not set - allowing all origins (development mode)")
			return true
		}

		origin := r.Header.Get("Origin")
		for _, allowed := range strings.Split(allowedOriginsEnv, ",") {
			if strings.TrimSpace(allowed) == origin {
				return true
			}
		}
		log.Printf("Rejected WebSocket connection from unauthorized origin: %s", origin)
		return false
	},
}

var startedAt = time.Now()

func main() {
	cfg := config.FromEnv()

	var userID int
	if cfg.StatsEnabled {
		log.Println("Initializing database connection...")
		if err := database.Init(); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer database.Close()
		log.Println("Database connection established")
	}

	reg := registry.New(cfg.Registry)
	go sweepLoop(reg)

	asrClient := asr.New(cfg.ASRBaseURL, cfg.ASR)
	hiraganaConv := &hiragana.HTTPConverter{BaseURL: cfg.HiraganaBaseURL}
	translator := &translate.HTTPTranslator{BaseURL: cfg.TranslateBaseURL}
	pool := workerpool.New(cfg.WorkerPoolSize)
	sched := cte.NewScheduler(asrClient, hiraganaConv, translator, pool)

	var verifier *auth.KeycloakVerifier
	if cfg.AuthEnabled {
		v, err := auth.NewKeycloakVerifierFromEnv()
		if err != nil {
			log.Printf("Keycloak auth disabled: %v", err)
		} else {
			verifier = v
		}
	}

	var archiver *archive.Archiver
	if cfg.MinioEnabled {
		minioClient, err := storage.NewMinioFromEnv()
		if err != nil {
			log.Printf("MinIO disabled: %v", err)
		} else {
			archiver = archive.New(minioClient)
		}
	}

	controller := streaming.New(reg, sched, stats.Recorder{UserID: userID}, archiver)

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if verifier != nil {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if _, err := verifier.VerifyToken(r.Context(), token); err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade:", err)
			return
		}
		sessionID := r.URL.Query().Get("session_id")
		go controller.Serve(context.Background(), conn, sessionID)
	})

	http.HandleFunc("/sessions/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/sessions/")
		if id == "" {
			http.Error(w, "missing session id", http.StatusBadRequest)
			return
		}
		info, ok := reg.Info(id)
		if !ok {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(info)
	})

	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":          "ok",
			"uptime_seconds":  time.Since(startedAt).Seconds(),
			"active_sessions": reg.Count(),
		})
	})

	log.Printf("kotoba-engine listening on %s", cfg.ListenAddr)
	log.Fatal(http.ListenAndServe(cfg.ListenAddr, nil))
}

// sweepLoop periodically reclaims idle sessions so the registry doesn't
// grow without bound from clients that disappear without sending "end".
func sweepLoop(reg *registry.Registry) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		if removed := reg.Sweep(); removed > 0 {
			log.Printf("swept %d expired session(s)", removed)
		}
	}
}


// Command server runs the collaborative painting coordinator: the
// reliable/unreliable protocol acceptor, the dirty-driven persistence
// loop, and whichever optional ambient components are configured.
package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/paintmesh/server/internal/admin"
	"github.com/paintmesh/server/internal/audit"
	"github.com/paintmesh/server/internal/backup"
	"github.com/paintmesh/server/internal/brush"
	"github.com/paintmesh/server/internal/canvas"
	"github.com/paintmesh/server/internal/config"
	"github.com/paintmesh/server/internal/persistence"
	"github.com/paintmesh/server/internal/presence"
	"github.com/paintmesh/server/internal/session"
	"github.com/paintmesh/server/internal/spatial"
)

func main() {
	cfg := config.Load()

	brushes := brush.NewCatalog()
	registry := canvas.NewRegistry(cfg.CanvasW, cfg.CanvasH, brushes)

	if err := persistence.LoadAll(cfg.DocPath, registry, brushes); err != nil {
		log.Printf("persistence: load failed, starting with empty canvases: %v", err)
	}

	var backupUploader *backup.Uploader
	if cfg.S3Bucket != "" {
		up, err := backup.NewUploader(cfg.S3Region, cfg.S3Bucket)
		if err != nil {
			log.Printf("backup: disabled, could not init S3 client: %v", err)
		} else {
			backupUploader = up
			log.Printf("backup: uploading documents to s3://%s", cfg.S3Bucket)
		}
	}

	store := persistence.NewStore(cfg.DocPath, registry, func(doc []byte) {
		if backupUploader != nil {
			backupUploader.Upload(doc)
		}
	})

	var activityLog *audit.Log
	if cfg.DatabaseURL != "" {
		l, err := audit.Open(cfg.DatabaseURL)
		if err != nil {
			log.Printf("audit: disabled, could not connect to Postgres: %v", err)
		} else {
			activityLog = l
			defer activityLog.Close()
			log.Println("audit: activity log connected")
		}
	}

	var presenceCache *presence.Presence
	if cfg.RedisAddr != "" {
		presenceCache = presence.New(cfg.RedisAddr)
		defer presenceCache.Close()
		log.Printf("presence: mirroring membership to redis at %s", cfg.RedisAddr)
	}

	index := spatial.NewIndex()

	var adminSrv *admin.Server
	stop := make(chan struct{})
	if cfg.AdminAddr != "" {
		adminSrv = admin.NewServer(registry, index, activityLog, presenceCache)
		go func() {
			if err := adminSrv.Run(cfg.AdminAddr, stop); err != nil {
				log.Printf("admin: server stopped: %v", err)
			}
		}()
		log.Printf("admin: observability server listening on %s", cfg.AdminAddr)
	}

	hooks := session.Hooks{
		OnJoin: func(canvasID int, roomUID uint8, name string) {
			activityLog.Record(context.Background(), canvasID, "join", roomUID, name)
			presenceCache.Join(context.Background(), canvasID, roomUID, name)
			if adminSrv != nil {
				adminSrv.Notify(canvasID, "join", roomUID)
			}
		},
		OnLeave: func(canvasID int, roomUID uint8) {
			activityLog.Record(context.Background(), canvasID, "leave", roomUID, "")
			presenceCache.Leave(context.Background(), canvasID, roomUID)
			if adminSrv != nil {
				adminSrv.Notify(canvasID, "leave", roomUID)
			}
		},
		OnEvent: func(canvasID int, kind string, roomUID uint8) {
			activityLog.Record(context.Background(), canvasID, kind, roomUID, "")
			if adminSrv != nil {
				adminSrv.Notify(canvasID, kind, roomUID)
			}
		},
		OnActivate: func(canvasID int) {
			if presenceCache == nil || adminSrv == nil {
				return
			}
			go presenceCache.Subscribe(context.Background(), canvasID, func(payload string) {
				kind, roomUID := parsePresenceNotice(payload)
				adminSrv.Notify(canvasID, kind, roomUID)
			})
		},
	}

	var observer canvas.StrokeObserver
	observer = func(canvasID int, x1, y1, x2, y2 float64) {
		index.Record(canvasID, spatial.BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2})
	}

	handler := &session.Handler{
		Registry:       registry,
		Store:          store,
		Brushes:        brushes,
		ReliablePort:   cfg.ReliablePort,
		Hooks:          hooks,
		StrokeObserver: observer,
	}

	go store.Run(stop)

	acceptor := &session.Acceptor{Handler: handler, Port: cfg.ReliablePort}
	log.Printf("canvas dimensions %dx%d, document %s", cfg.CanvasW, cfg.CanvasH, cfg.DocPath)
	if err := acceptor.Run(stop); err != nil {
		log.Printf("acceptor: fatal: %v", err)
		os.Exit(1)
	}
}

// parsePresenceNotice splits a "<kind>:<room_uid>" pub/sub payload, as
// published by Presence.publish, back into its fields for the admin feed.
func parsePresenceNotice(payload string) (kind string, roomUID uint8) {
	k, id, ok := strings.Cut(payload, ":")
	if !ok {
		return payload, 0
	}
	n, _ := strconv.Atoi(id)
	return k, uint8(n)
}

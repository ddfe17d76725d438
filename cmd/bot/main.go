package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/evanblokender/Youtube-vm/internal/app/bot"
	"github.com/evanblokender/Youtube-vm/internal/app/events"
	"github.com/evanblokender/Youtube-vm/internal/app/queue"
	"github.com/evanblokender/Youtube-vm/internal/infrastructure/actuator/vbox"
	"github.com/evanblokender/Youtube-vm/internal/infrastructure/config"
	"github.com/evanblokender/Youtube-vm/internal/infrastructure/persistence/sqlite"
	youtubeadapter "github.com/evanblokender/Youtube-vm/internal/interface/adapters/youtube"
	"github.com/evanblokender/Youtube-vm/internal/interface/api/ws"
	"github.com/evanblokender/Youtube-vm/internal/interface/outs"
	"github.com/evanblokender/Youtube-vm/internal/usecase/admission"
	"github.com/evanblokender/Youtube-vm/internal/usecase/commands"
	"github.com/evanblokender/Youtube-vm/internal/usecase/permissions"
	"github.com/evanblokender/Youtube-vm/internal/usecase/vote"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// ---------- 1) Infraestructura ----------

	users, err := sqlite.NewUserStore(filepath.Join(c.DataDir, "users.db"))
	if err != nil {
		log.Fatalf("error abriendo user store: %v", err)
	}
	defer users.Close()

	vm, err := vbox.NewController(c.VMName, c.VBoxManagePath, filepath.Join(c.DataDir, "screenshots"))
	if err != nil {
		log.Fatalf("error creando controlador de VM: %v", err)
	}

	bus := events.NewBus()

	// ---------- 2) Salidas ----------

	ytAd := youtubeadapter.NewAdapter(youtubeadapter.Config{
		ClientID:     c.YoutubeClientID,
		ClientSecret: c.YoutubeClientSecret,
		RefreshToken: c.YoutubeRefreshToken,
		VideoID:      c.YoutubeVideoID,
	})

	// Los anuncios van solo al overlay y al log. Mandarlos al chat de
	// YouTube quemaría cuota de API en cada comando.
	multiOut := outs.NewMulti()
	multiOut.Register("log", outs.LogSink())
	multiOut.Register("overlay", outs.BusSink(bus))

	// ---------- 3) Pipeline ----------

	registry := commands.NewRegistry(c.CommandPrefix)

	gate := admission.New(c.GlobalCooldown, c.UserCooldown)
	gate.SetCommandCooldown("leaderboard", 15*time.Second)
	gate.SetCommandCooldown("stats", 10*time.Second)
	gate.SetCommandCooldown("uptime", 10*time.Second)

	b := bot.New(
		bot.Config{
			VoteDuration:       c.VoteDuration,
			PointsPerCommand:   c.PointsPerCommand,
			PointsPerVoteWin:   c.PointsPerVoteWin,
			LeaderboardSize:    c.LeaderboardSize,
			DedupWindow:        c.DedupWindow,
			ScreenshotInterval: c.ScreenshotInterval,
		},
		bot.Deps{
			Registry: registry,
			Perms:    permissions.NewResolver(c.AdminUserIDs, c.ModUserIDs),
			Gate:     gate,
			Votes:    vote.New(c.VoteDuration),
			Queue:    queue.New(c.QueueCapacity),
			Actuator: vm,
			Users:    users,
			Out:      multiOut,
			Bus:      bus,
			Executor: bot.NewExecutor(vm, bot.Limits{
				MouseMaxDelta:  c.MouseMaxDelta,
				MouseAbsXMax:   c.MouseAbsXMax,
				MouseAbsYMax:   c.MouseAbsYMax,
				TypeMaxLength:  c.TypeMaxLength,
				MaxWaitSeconds: c.MaxWaitSeconds,
				SnapshotName:   c.SnapshotName,
			}),
		},
	)

	ytAd.SetHandler(b.HandleMessage)

	overlay := ws.NewServer(c.OverlayAddr, bus)

	log.Println("Iniciando bot...")

	go func() {
		if err := overlay.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("overlay server error: %v", err)
		}
	}()

	go func() {
		if err := ytAd.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("youtube adapter error: %v", err)
		}
	}()

	if err := b.Run(ctx); err != nil && err != context.Canceled {
		log.Printf("bot error: %v", err)
	}

	log.Println("Bot apagado.")
}

package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/namvu/quizbridge/internal/bus"
	"github.com/namvu/quizbridge/internal/channels/whatsapp"
	"github.com/namvu/quizbridge/internal/config"
	"github.com/namvu/quizbridge/internal/dispatch"
	"github.com/namvu/quizbridge/internal/gateway"
	"github.com/namvu/quizbridge/internal/gateway/methods"
	"github.com/namvu/quizbridge/internal/identity"
	"github.com/namvu/quizbridge/internal/quiz"
	"github.com/namvu/quizbridge/internal/store"
	"github.com/namvu/quizbridge/internal/store/sqlite"
	"github.com/namvu/quizbridge/pkg/protocol"
)

func runGateway() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	msgBus := bus.New()

	var directory store.Directory
	if dir, err := sqlite.OpenDirectory(cfg.DirectoryPath()); err != nil {
		slog.Warn("identity directory unavailable, linked identities will not resolve", "error", err)
	} else {
		directory = dir
		defer dir.Close()
	}

	resolver := identity.NewResolver(directory)
	filter := identity.NewMentionFilter(resolver)

	channel, err := whatsapp.New(cfg.Channels.WhatsApp, msgBus, directory)
	if err != nil {
		slog.Error("failed to create whatsapp channel", "error", err)
		os.Exit(1)
	}

	engine := quiz.NewEngine(channel, msgBus)
	dispatcher := dispatch.New(msgBus, msgBus, filter, engine, channel.BotAddress)

	server := gateway.NewServer(cfg, msgBus)
	methods.NewQuizMethods(engine).Register(server.Router())
	methods.NewSendMethods(channel).Register(server.Router())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start(ctx)
	})

	g.Go(func() error {
		return dispatcher.Run(ctx)
	})

	if cfg.Channels.WhatsApp.Enabled {
		if err := channel.Start(ctx); err != nil {
			slog.Error("failed to start whatsapp channel", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("whatsapp channel disabled; gateway methods that send will fail")
	}

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("graceful shutdown initiated")

		server.BroadcastEvent(*protocol.NewEvent(protocol.EventShutdown, nil))
		if n := engine.EndAll(quiz.ReasonCancelled); n > 0 {
			slog.Info("cancelled active quizzes", "count", n)
		}
		return channel.Stop(context.Background())
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		slog.Error("gateway exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

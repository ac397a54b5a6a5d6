package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/urgentline/sla-server/config"
	"github.com/urgentline/sla-server/internal/database"
	"github.com/urgentline/sla-server/internal/http"
	"github.com/urgentline/sla-server/internal/http/handlers"
	"github.com/urgentline/sla-server/internal/notification"
	"github.com/urgentline/sla-server/internal/traces"
	"github.com/urgentline/sla-server/pkg/sla"
	"github.com/urgentline/sla-server/pkg/sla/aggregates"
	"gopkg.in/yaml.v3"
)

func buildServerCmd(logger *slog.Logger) *cobra.Command {
	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Runs the SLA tracking server",
		Run: func(cmd *cobra.Command, args []string) {
			err := runServer(logger)
			if err != nil {
				logger.Error(err.Error())
				os.Exit(2)
			}

		},
	}
	return serverCmd
}

func buildDefinitions(definitions []config.Definition) ([]aggregates.Definition, error) {
	result := []aggregates.Definition{}
	for _, definition := range definitions {
		warning, err := time.ParseDuration(definition.WarningDuration)
		if err != nil {
			return nil, fmt.Errorf("invalid warning duration for SLA type %s: %w", definition.TypeID, err)
		}
		critical, err := time.ParseDuration(definition.CriticalDuration)
		if err != nil {
			return nil, fmt.Errorf("invalid critical duration for SLA type %s: %w", definition.TypeID, err)
		}
		max, err := time.ParseDuration(definition.MaxDuration)
		if err != nil {
			return nil, fmt.Errorf("invalid max duration for SLA type %s: %w", definition.TypeID, err)
		}
		result = append(result, aggregates.Definition{
			TypeID:           definition.TypeID,
			DisplayName:      definition.DisplayName,
			WarningDuration:  warning,
			CriticalDuration: critical,
			MaxDuration:      max,
			Priority:         definition.Priority,
		})
	}
	return result, nil
}

func buildNotifier(logger *slog.Logger, config notification.Configuration) (sla.Notifier, error) {
	if config.Type == "redis" {
		return notification.NewRedisNotifier(logger, config)
	}
	return notification.NewLogNotifier(logger), nil
}

func runServer(logger *slog.Logger) error {
	file, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("fail to read configuration file: %w", err)
	}
	var config config.Configuration
	if err := yaml.Unmarshal(file, &config); err != nil {
		return fmt.Errorf("fail to parse yaml configuration file: %w", err)
	}
	tracesShutdown, err := traces.Setup(context.Background(), config.Traces)
	if err != nil {
		return err
	}
	store, err := database.New(logger, config.Database)
	if err != nil {
		return err
	}
	definitions, err := buildDefinitions(config.SLA.Definitions)
	if err != nil {
		return err
	}
	catalog, err := sla.NewCatalog(definitions)
	if err != nil {
		return err
	}
	notifier, err := buildNotifier(logger, config.Notification)
	if err != nil {
		return err
	}
	registry := prometheus.DefaultRegisterer.(*prometheus.Registry)
	slaService, err := sla.New(logger, store, notifier, catalog, registry, config.SLA.Engine)
	if err != nil {
		return err
	}
	handlersBuilder := handlers.NewBuilder(slaService)
	server, err := http.NewServer(logger, config.HTTP, registry, handlersBuilder)
	if err != nil {
		return err
	}

	scheduler := cron.New()
	if config.SLA.History.Retention != "" {
		retention, err := time.ParseDuration(config.SLA.History.Retention)
		if err != nil {
			return fmt.Errorf("invalid history retention: %w", err)
		}
		schedule := config.SLA.History.Schedule
		if schedule == "" {
			schedule = "@daily"
		}
		_, err = scheduler.AddFunc(schedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			purged, err := slaService.PurgeHistory(ctx, retention)
			if err != nil {
				logger.Error(fmt.Sprintf("fail to purge SLA history: %s", err.Error()))
				return
			}
			logger.Info(fmt.Sprintf("purged %d SLA history records", purged))
		})
		if err != nil {
			return fmt.Errorf("fail to schedule the history retention job: %w", err)
		}
	}

	signals := make(chan os.Signal, 1)
	errChan := make(chan error)

	signal.Notify(
		signals,
		syscall.SIGINT,
		syscall.SIGTERM)

	err = slaService.Start()
	if err != nil {
		return err
	}
	err = server.Start()
	if err != nil {
		return err
	}
	scheduler.Start()
	go func() {
		for sig := range signals {
			switch sig {
			case syscall.SIGINT, syscall.SIGTERM:
				logger.Info(fmt.Sprintf("received signal %s, starting shutdown", sig))
				signal.Stop(signals)
				<-scheduler.Stop().Done()
				slaService.Stop()
				err := server.Stop()
				if err != nil {
					errChan <- err
				}
				errChan <- tracesShutdown(context.Background())
			}

		}
	}()
	exitErr := <-errChan
	return exitErr
}

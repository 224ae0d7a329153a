package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/bisq-network/bisqeasyd/internal/config"
	"github.com/bisq-network/bisqeasyd/internal/core/application"
	"github.com/bisq-network/bisqeasyd/internal/core/domain"
	"github.com/bisq-network/bisqeasyd/internal/infrastructure/banlist"
	natsmessenger "github.com/bisq-network/bisqeasyd/internal/infrastructure/messaging/nats"
	dbbadger "github.com/bisq-network/bisqeasyd/internal/infrastructure/storage/db/badger"
	"github.com/bisq-network/bisqeasyd/internal/infrastructure/storage/db/inmemory"
	"github.com/bisq-network/bisqeasyd/pkg/crawler"
	"github.com/bisq-network/bisqeasyd/pkg/explorer/esplora"
	"github.com/bisq-network/bisqeasyd/pkg/verifier"
)

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	tradeRepository, closeDb, err := openTradeRepository()
	if err != nil {
		log.WithError(err).Fatal("error while opening trade store")
	}
	defer closeDb()

	explorerSvc, err := esplora.NewService(config.GetString(config.ExplorerEndpointKey))
	if err != nil {
		log.WithError(err).Fatal("error while connecting to explorer")
	}

	verifierSvc := verifier.NewService(explorerSvc)
	crawlerSvc := crawler.NewService(crawler.Opts{
		VerifierSvc:    verifierSvc,
		Interval:       time.Duration(config.GetInt(config.CrawlIntervalKey)) * time.Second,
		RequestsPerSec: config.GetInt(config.CrawlLimitKey),
		ErrorHandler: func(err error) {
			log.WithError(err).Warn("crawler error")
		},
	})

	messengerSvc, err := natsmessenger.NewMessenger(config.GetString(config.NatsURLKey))
	if err != nil {
		log.WithError(err).Fatal("error while connecting to nats")
	}

	banListSvc, err := banlist.NewFromFile(config.GetString(config.BanListFileKey))
	if err != nil {
		log.WithError(err).Fatal("error while loading ban list")
	}

	tradeSvc := application.NewTradeService(
		tradeRepository, messengerSvc, messengerSvc, banListSvc, crawlerSvc,
	)
	if err := tradeSvc.Start(); err != nil {
		log.WithError(err).Fatal("error while starting trade service")
	}
	defer tradeSvc.Stop()

	log.Info("daemon started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Debug("exiting")
}

func openTradeRepository() (domain.TradeRepository, func(), error) {
	if config.GetString(config.DBTypeKey) == config.DBInMemory {
		return inmemory.NewTradeRepositoryImpl(inmemory.NewTradeStore()),
			func() {}, nil
	}

	dbDir := filepath.Join(config.GetString(config.DatadirKey), config.DbLocation)
	dbManager, err := dbbadger.NewDbManager(dbDir, nil)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := dbManager.Close(); err != nil {
			log.WithError(err).Warn("error while closing trade store")
		}
	}
	return dbbadger.NewTradeRepositoryImpl(dbManager), closeFn, nil
}

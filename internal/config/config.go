package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/viper"
)

const (
	// DatadirKey is the local data directory to store the internal state of
	// the daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the
	// values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// ExplorerEndpointKey is the base URL of the esplora-like explorer used
	// to look up settlement transactions
	ExplorerEndpointKey = "EXPLORER_ENDPOINT"
	// CrawlIntervalKey is the interval in seconds between two confirmation
	// polls of the same payment proof
	CrawlIntervalKey = "CRAWL_INTERVAL"
	// CrawlLimitKey is the max number of explorer requests per second
	CrawlLimitKey = "CRAWL_LIMIT"
	// NatsURLKey is the address of the NATS server carrying trade channels
	NatsURLKey = "NATS_URL"
	// DBTypeKey is used to switch database type between those supported
	DBTypeKey = "DB_TYPE"
	// BanListFileKey is the path of the JSON file holding the moderation
	// blocklist of payment account identifiers
	BanListFileKey = "BAN_LIST_FILE"

	DbLocation = "db"

	DBBadger   = "badger"
	DBInMemory = "inmemory"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("bisq-easyd", false)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("BISQEASY")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(ExplorerEndpointKey, "https://blockstream.info/api")
	vip.SetDefault(CrawlIntervalKey, 20)
	vip.SetDefault(CrawlLimitKey, 10)
	vip.SetDefault(NatsURLKey, "nats://127.0.0.1:4222")
	vip.SetDefault(DBTypeKey, DBBadger)
	vip.SetDefault(BanListFileKey, filepath.Join(defaultDatadir, "banlist.json"))

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func validate() error {
	if vip.GetInt(CrawlIntervalKey) <= 0 {
		return fmt.Errorf("%s must be a positive number of seconds", CrawlIntervalKey)
	}
	if vip.GetInt(CrawlLimitKey) <= 0 {
		return fmt.Errorf("%s must be a positive number of requests", CrawlLimitKey)
	}
	switch dbType := vip.GetString(DBTypeKey); dbType {
	case DBBadger, DBInMemory:
	default:
		return fmt.Errorf("db type %s not supported", dbType)
	}
	return nil
}

func initDatadir() error {
	datadir := vip.GetString(DatadirKey)
	return makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

// Package injector wires the server together from configuration.
package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/mudcore/internal/config"
	"github.com/zeusync/mudcore/internal/core/components"
	"github.com/zeusync/mudcore/internal/core/events/bus"
	"github.com/zeusync/mudcore/internal/core/models"
	"github.com/zeusync/mudcore/internal/core/modules"
	"github.com/zeusync/mudcore/internal/core/navigation"
	"github.com/zeusync/mudcore/internal/core/observability/log"
	"github.com/zeusync/mudcore/internal/core/schema/registry"
	"github.com/zeusync/mudcore/internal/core/serializer"
	"github.com/zeusync/mudcore/internal/core/storage"
	"github.com/zeusync/mudcore/internal/core/world"
	"github.com/zeusync/mudcore/internal/server"
)

// App is everything main needs to run.
type App struct {
	Config  config.Config
	Logger  log.Log
	World   *world.World
	Server  *server.Server
	Storage storage.Storage
}

// ProviderSet builds an App from a config.Config.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideStore,
	navigation.NewGraph,
	components.NewRegistry,
	ProvideSerializer,
	ProvideModules,
	bus.New,
	ProvideStorage,
	ProvideWorldOptions,
	ProvideWorld,
	ProvideServer,
	wire.Struct(new(App), "*"),
)

func ProvideLogger(cfg config.Config) (log.Log, func(), error) {
	logger, err := log.New(log.ParseLevel(cfg.LogLevel), cfg.LogEncoding)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func ProvideStore(cfg config.Config, logger log.Log) *models.Store {
	return models.NewStore(models.WithStrict(cfg.Strict), models.WithLogger(logger))
}

func ProvideSerializer(store *models.Store, table *registry.Registry, logger log.Log) *serializer.Serializer {
	return serializer.New(store, table, serializer.WithLogger(logger))
}

func ProvideModules(ser *serializer.Serializer, logger log.Log) *modules.Registry {
	return modules.NewRegistry(ser, logger)
}

func ProvideStorage(cfg config.Config, logger log.Log) (storage.Storage, func(), error) {
	st, err := storage.Open(cfg.StorageDriver, cfg.SavePath, cfg.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := st.Close(); err != nil {
			logger.Error("storage close failed", log.Error(err))
		}
	}
	return st, cleanup, nil
}

func ProvideWorldOptions(cfg config.Config) world.Options {
	opts := world.DefaultOptions()
	opts.TickInterval = cfg.TickInterval
	opts.AutosaveInterval = cfg.AutosaveInterval
	opts.MoveDelay = cfg.MoveDelay
	opts.StartRoom = navigation.RoomKey(cfg.StartRoom)
	opts.Admins = cfg.Admins
	return opts
}

func ProvideWorld(
	opts world.Options,
	store *models.Store,
	graph *navigation.Graph,
	ser *serializer.Serializer,
	mods *modules.Registry,
	events bus.EventBus,
	st storage.Storage,
	logger log.Log,
) (*world.World, error) {
	return world.New(opts, store, graph, ser, mods, events, st, logger)
}

func ProvideServer(cfg config.Config, w *world.World, logger log.Log) *server.Server {
	sc := server.DefaultServerConfig()
	sc.ListenAddr = cfg.ListenAddr
	sc.MaxClients = cfg.MaxClients
	sc.MaxMessageSize = cfg.MaxMessageSize

	var auth server.Authenticator = server.QueryAccount{}
	if len(cfg.Tokens) > 0 {
		auth = server.TokenAuth(cfg.Tokens)
	}
	return server.NewServer(sc, w, auth, logger)
}

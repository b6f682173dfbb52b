package fx

import (
	"go.uber.org/fx"

	"github.com/mckriel/omg-backend/internal/api"
	"github.com/mckriel/omg-backend/internal/config"
	"github.com/mckriel/omg-backend/internal/database"
	"github.com/mckriel/omg-backend/internal/enrich"
	"github.com/mckriel/omg-backend/internal/logger"
	"github.com/mckriel/omg-backend/internal/repository"
	"github.com/mckriel/omg-backend/internal/server"
	"github.com/mckriel/omg-backend/internal/service"
)

func ProvideTransformer(cfg *config.Config) *enrich.Transformer {
	return enrich.NewTransformer(cfg.Guild)
}

// Interface bindings. Services depend on the narrow interfaces so tests can
// swap in fakes; fx wires the concrete implementations here.

func ProvideGameDataClient(client *api.BlizzardClient) service.GameDataClient {
	return client
}

func ProvideMemberStore(repo *repository.MemberRepository) service.MemberStore {
	return repo
}

func ProvideSnapshotStore(repo *repository.ProgressRepository) service.SnapshotStore {
	return repo
}

func ProvideRawDumper(repo *repository.RawRepository) server.RawDumper {
	return repo
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewMemberRepository),
	fx.Provide(repository.NewProgressRepository),
	fx.Provide(repository.NewRawRepository),
	fx.Provide(ProvideMemberStore),
	fx.Provide(ProvideSnapshotStore),
	fx.Provide(ProvideRawDumper),
	// api client
	fx.Provide(api.NewBlizzardClient),
	fx.Provide(ProvideGameDataClient),
	// svc
	fx.Provide(ProvideTransformer),
	fx.Provide(service.NewIngestionService),
	fx.Provide(service.NewProgressService),
	fx.Provide(service.NewMemberService),
	// server
	fx.Provide(server.New),
)

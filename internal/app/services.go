package app

import (
	"github.com/yungbote/roadwatch-backend/internal/platform/logger"
	"github.com/yungbote/roadwatch-backend/internal/services"
)

type Services struct {
	Reports   services.ReportService
	Rewards   services.RewardService
	Users     services.UserService
	Analytics services.AnalyticsService
}

func wireServices(log *logger.Logger, cfg Config, r Repos) Services {
	log.Info("Wiring services...")
	rewards := services.NewRewardService(log, r.User)
	return Services{
		Reports: services.NewReportService(log, r.Report, r.User, rewards),
		Rewards: rewards,
		Users:   services.NewUserService(log, r.User, r.Role, cfg.BcryptCost),
		Analytics: services.NewAnalyticsService(log, r.Report, services.ClusterDefaults{
			EpsMeters:         cfg.Cluster.EpsMeters,
			MinPts:            cfg.Cluster.MinPts,
			ParallelThreshold: cfg.Cluster.ParallelThreshold,
		}),
	}
}

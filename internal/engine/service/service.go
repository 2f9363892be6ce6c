package service

import (
	"github.com/hemline/merchtrack/internal/engine/policy"
	"github.com/hemline/merchtrack/internal/engine/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services engine service set
type Services struct {
	OTD     *OTDService
	Risk    *RiskService
	Matcher *MatcherService
	Task    *TaskService
	Import  *ImportService
}

// NewServices creates the engine service set with one shared policy.
func NewServices(pol policy.Policy, repos *repository.Repositories, cache *redis.Client, logger *zap.Logger) *Services {
	return &Services{
		OTD:     NewOTDService(pol, repos.PO, repos.Shipment, cache, logger),
		Risk:    NewRiskService(pol, repos, logger),
		Matcher: NewMatcherService(pol, repos, logger),
		Task:    NewTaskService(pol, repos, logger),
		Import:  NewImportService(pol, repos, logger),
	}
}

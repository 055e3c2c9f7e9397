// Package assistant wires the pipeline: snapshot, scope, plan, execute,
// compose. It is the only entry point the HTTP and MCP surfaces call;
// nothing below it is reachable without a resolved scope.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abilabs/insight-engine/pkg/apperrors"
	"github.com/abilabs/insight-engine/pkg/compose"
	"github.com/abilabs/insight-engine/pkg/engine"
	"github.com/abilabs/insight-engine/pkg/forecast"
	"github.com/abilabs/insight-engine/pkg/logging"
	"github.com/abilabs/insight-engine/pkg/models"
	"github.com/abilabs/insight-engine/pkg/planner"
	"github.com/abilabs/insight-engine/pkg/scope"
	"github.com/abilabs/insight-engine/pkg/store"
)

// AskRequest is one natural-language question with the caller's identity.
type AskRequest struct {
	Question string `json:"question"`
	Role     string `json:"role"`
	Identity string `json:"identity,omitempty"`
}

// AskResponse carries the composed answer plus the structured result it
// was composed from.
type AskResponse struct {
	Answer   string         `json:"answer"`
	Result   *models.Result `json:"result"`
	Snapshot string         `json:"snapshot_version"`
}

// Service is the dual-audience analytics assistant.
type Service interface {
	// Ask answers a natural-language question within the caller's scope.
	Ask(ctx context.Context, req AskRequest) (*AskResponse, error)

	// OrderStatus looks up one order visible to the caller.
	OrderStatus(ctx context.Context, identity, role, orderID string) (*models.OrderStatusInfo, error)

	// StockForecast projects stock-outs for every product. Business only.
	StockForecast(ctx context.Context, role string) ([]models.ForecastRecord, error)

	// DelayReport categorizes pending orders by delivery risk. Business only.
	DelayReport(ctx context.Context, role string) (*models.DelayReport, error)

	// RevenueScan flags anomalous recent revenue. Business only.
	RevenueScan(ctx context.Context, role string) (*models.RevenueAnomalyReport, error)
}

type service struct {
	snapshots  *store.SnapshotCache
	scopes     *scope.Resolver
	translator planner.Translator
	executor   *engine.Executor
	forecaster *forecast.Forecaster
	composer   compose.Composer
	clock      func() time.Time
	logger     *zap.Logger
}

// NewService assembles the pipeline.
func NewService(
	snapshots *store.SnapshotCache,
	scopes *scope.Resolver,
	translator planner.Translator,
	executor *engine.Executor,
	forecaster *forecast.Forecaster,
	composer compose.Composer,
	logger *zap.Logger,
) Service {
	return NewServiceWithClock(snapshots, scopes, translator, executor, forecaster, composer, time.Now, logger)
}

// NewServiceWithClock assembles the pipeline with an explicit clock.
func NewServiceWithClock(
	snapshots *store.SnapshotCache,
	scopes *scope.Resolver,
	translator planner.Translator,
	executor *engine.Executor,
	forecaster *forecast.Forecaster,
	composer compose.Composer,
	clock func() time.Time,
	logger *zap.Logger,
) Service {
	return &service{
		snapshots:  snapshots,
		scopes:     scopes,
		translator: translator,
		executor:   executor,
		forecaster: forecaster,
		composer:   composer,
		clock:      clock,
		logger:     logger.Named("assistant"),
	}
}

var _ Service = (*service)(nil)

// Ask implements Service. Stages run in a fixed order and each checks the
// context, so a cancelled caller stops the pipeline between stages.
func (s *service) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Question) == "" {
		return nil, fmt.Errorf("empty question: %w", apperrors.ErrUnsupportedPlan)
	}

	snap, err := s.snapshots.Get(ctx)
	if err != nil {
		return nil, err
	}

	accessScope, err := s.scopes.Resolve(ctx, req.Identity, role, snap)
	if err != nil {
		return nil, err
	}

	plan, err := s.translator.Translate(ctx, req.Question, accessScope)
	if err != nil {
		return nil, err
	}

	result, err := s.executor.Execute(ctx, plan, accessScope, snap)
	if err != nil {
		return nil, err
	}

	answer, err := s.composer.Compose(ctx, req.Question, result, role)
	if err != nil {
		return nil, err
	}

	s.logger.Info("question answered",
		zap.String("role", string(role)),
		zap.String("question", logging.SanitizeQuestion(req.Question)),
		zap.Int("rows", result.RowCount()),
		zap.String("snapshot", snap.Version))

	return &AskResponse{
		Answer:   answer,
		Result:   result,
		Snapshot: snap.Version,
	}, nil
}

// OrderStatus implements Service. An order outside the caller's scope is
// reported as not found, identical to a nonexistent order.
func (s *service) OrderStatus(ctx context.Context, identity, role, orderID string) (*models.OrderStatusInfo, error) {
	parsedRole, err := models.ParseRole(role)
	if err != nil {
		return nil, err
	}

	snap, err := s.snapshots.Get(ctx)
	if err != nil {
		return nil, err
	}

	accessScope, err := s.scopes.Resolve(ctx, identity, parsedRole, snap)
	if err != nil {
		return nil, err
	}

	order, ok := snap.OrderByID[strings.TrimSpace(orderID)]
	if !ok || !accessScope.AdmitsCustomer(order.CustomerID) {
		return nil, fmt.Errorf("order %q: %w", orderID, apperrors.ErrOrderNotFound)
	}

	return s.statusInfo(order), nil
}

func (s *service) statusInfo(order *models.Order) *models.OrderStatusInfo {
	now := s.clock()
	info := &models.OrderStatusInfo{
		OrderID:           order.ID,
		Status:            order.Status,
		OrderDate:         order.OrderDate,
		ShipDate:          order.ShipDate,
		EstimatedDelivery: order.EstimatedDelivery,
		ShippingMethod:    order.ShippingMethod,
	}

	if days, ok := order.ProcessingDays(); ok {
		info.ProcessingDays = &days
	}

	remaining := -daysBetween(order.EstimatedDelivery, now)
	info.DaysUntilDelivery = remaining

	switch {
	case order.Status.Terminal():
		info.DelayStatus = string(order.Status)
	case remaining < 0:
		info.Overdue = true
		info.DelayStatus = fmt.Sprintf("overdue by %d days", -remaining)
	case remaining == 0:
		info.DelayStatus = "due today"
	default:
		info.DelayStatus = fmt.Sprintf("due in %d days", remaining)
	}

	return info
}

// daysBetween counts whole calendar days from a to b; negative when a is
// in the future.
func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}

func requireBusiness(role string) error {
	parsed, err := models.ParseRole(role)
	if err != nil {
		return err
	}
	if parsed != models.RoleBusiness {
		return fmt.Errorf("forecasts: %w", apperrors.ErrRoleNotAllowed)
	}
	return nil
}

// StockForecast implements Service.
func (s *service) StockForecast(ctx context.Context, role string) ([]models.ForecastRecord, error) {
	if err := requireBusiness(role); err != nil {
		return nil, err
	}
	snap, err := s.snapshots.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.forecaster.Forecast(ctx, snap)
}

// DelayReport implements Service.
func (s *service) DelayReport(ctx context.Context, role string) (*models.DelayReport, error) {
	if err := requireBusiness(role); err != nil {
		return nil, err
	}
	snap, err := s.snapshots.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.forecaster.DelayScan(ctx, snap)
}

// RevenueScan implements Service.
func (s *service) RevenueScan(ctx context.Context, role string) (*models.RevenueAnomalyReport, error) {
	if err := requireBusiness(role); err != nil {
		return nil, err
	}
	snap, err := s.snapshots.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.forecaster.RevenueScan(ctx, snap)
}

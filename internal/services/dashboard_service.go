package services

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/mirador-clusterview/internal/api"
	"github.com/miradorstack/mirador-clusterview/internal/rpc"
)

// DashboardService implements the gRPC Dashboard service.
type DashboardService struct {
	rpc.UnimplementedDashboardServer

	logger *slog.Logger
	views  api.Views
}

// NewDashboardService constructs the dashboard service facade.
func NewDashboardService(logger *slog.Logger, views api.Views) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{logger: logger, views: views}
}

// GetDashboard returns every projection in one document.
func (s *DashboardService) GetDashboard(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	out, err := api.ToStruct(s.views.Dashboard())
	return s.reply("dashboard", out, err)
}

// GetMetrics returns the utilization gauges and pod breakdown.
func (s *DashboardService) GetMetrics(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	out, err := api.ToStruct(s.views.Metrics())
	return s.reply("metrics", out, err)
}

// GetAlerts returns the decorated alert list under "alerts".
func (s *DashboardService) GetAlerts(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	out, err := api.ToListStruct("alerts", s.views.Alerts())
	return s.reply("alerts", out, err)
}

// GetCompliance returns the compliance pie.
func (s *DashboardService) GetCompliance(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	out, err := api.ToStruct(s.views.Compliance())
	return s.reply("compliance", out, err)
}

// GetHistory returns the dual-axis trend chart.
func (s *DashboardService) GetHistory(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	out, err := api.ToStruct(s.views.History())
	return s.reply("history", out, err)
}

func (s *DashboardService) ready() error {
	if s.views == nil {
		return status.Error(codes.FailedPrecondition, "projection builder not configured")
	}
	return nil
}

func (s *DashboardService) reply(view string, out *structpb.Struct, err error) (*structpb.Struct, error) {
	if err != nil {
		s.logger.Error("projection conversion failed", slog.String("view", view), slog.Any("error", err))
		return nil, status.Error(codes.Internal, "failed to encode "+view)
	}
	return out, nil
}

// Package rpc declares the clusterview.v1.Dashboard gRPC service.
//
// Requests and responses are protobuf well-known types, so the service needs no
// generated message code: every call takes google.protobuf.Empty and returns a
// google.protobuf.Struct holding the JSON form of the projection.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "clusterview.v1.Dashboard"

// Full method names.
const (
	MethodGetDashboard  = "/" + ServiceName + "/GetDashboard"
	MethodGetMetrics    = "/" + ServiceName + "/GetMetrics"
	MethodGetAlerts     = "/" + ServiceName + "/GetAlerts"
	MethodGetCompliance = "/" + ServiceName + "/GetCompliance"
	MethodGetHistory    = "/" + ServiceName + "/GetHistory"
)

// DashboardServer is implemented by the dashboard service.
type DashboardServer interface {
	GetDashboard(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetMetrics(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetAlerts(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetCompliance(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetHistory(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// UnimplementedDashboardServer can be embedded for forward compatibility.
type UnimplementedDashboardServer struct{}

func (UnimplementedDashboardServer) GetDashboard(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetDashboard not implemented")
}

func (UnimplementedDashboardServer) GetMetrics(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetMetrics not implemented")
}

func (UnimplementedDashboardServer) GetAlerts(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAlerts not implemented")
}

func (UnimplementedDashboardServer) GetCompliance(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetCompliance not implemented")
}

func (UnimplementedDashboardServer) GetHistory(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetHistory not implemented")
}

// RegisterDashboardServer attaches srv to the gRPC registrar.
func RegisterDashboardServer(s grpc.ServiceRegistrar, srv DashboardServer) {
	s.RegisterService(&DashboardServiceDesc, srv)
}

type unaryCall func(DashboardServer, context.Context, *emptypb.Empty) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(emptypb.Empty)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DashboardServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DashboardServer), ctx, req.(*emptypb.Empty))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// DashboardServiceDesc is the grpc.ServiceDesc for the dashboard service.
var DashboardServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DashboardServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetDashboard", Handler: unaryHandler(MethodGetDashboard, DashboardServer.GetDashboard)},
		{MethodName: "GetMetrics", Handler: unaryHandler(MethodGetMetrics, DashboardServer.GetMetrics)},
		{MethodName: "GetAlerts", Handler: unaryHandler(MethodGetAlerts, DashboardServer.GetAlerts)},
		{MethodName: "GetCompliance", Handler: unaryHandler(MethodGetCompliance, DashboardServer.GetCompliance)},
		{MethodName: "GetHistory", Handler: unaryHandler(MethodGetHistory, DashboardServer.GetHistory)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "clusterview/v1/dashboard.proto",
}

// DashboardClient calls the dashboard service.
type DashboardClient struct {
	cc grpc.ClientConnInterface
}

// NewDashboardClient wraps an existing connection.
func NewDashboardClient(cc grpc.ClientConnInterface) *DashboardClient {
	return &DashboardClient{cc: cc}
}

// Call invokes one of the Method* names.
func (c *DashboardClient) Call(ctx context.Context, method string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

package grpc

// proto.go defines the churn.v1.ChurnService contract by hand. Messages are
// plain structs carried by the JSON codec.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Full method names, used for routing and per-method auth scopes.
const (
	ServiceName                   = "churn.v1.ChurnService"
	MethodPredict                 = "/churn.v1.ChurnService/Predict"
	MethodGetPrediction           = "/churn.v1.ChurnService/GetPrediction"
	MethodListCustomerPredictions = "/churn.v1.ChurnService/ListCustomerPredictions"
)

// ChurnServiceServer is the server API for ChurnService.
type ChurnServiceServer interface {
	Predict(context.Context, *PredictRequest) (*PredictionReply, error)
	GetPrediction(context.Context, *GetPredictionRequest) (*PredictionReply, error)
	ListCustomerPredictions(context.Context, *ListCustomerPredictionsRequest) (*ListCustomerPredictionsReply, error)
	mustEmbedUnimplementedChurnServiceServer()
}

// UnimplementedChurnServiceServer provides forward-compatible default implementations.
type UnimplementedChurnServiceServer struct{}

func (UnimplementedChurnServiceServer) Predict(context.Context, *PredictRequest) (*PredictionReply, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Predict not implemented")
}
func (UnimplementedChurnServiceServer) GetPrediction(context.Context, *GetPredictionRequest) (*PredictionReply, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetPrediction not implemented")
}
func (UnimplementedChurnServiceServer) ListCustomerPredictions(context.Context, *ListCustomerPredictionsRequest) (*ListCustomerPredictionsReply, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListCustomerPredictions not implemented")
}
func (UnimplementedChurnServiceServer) mustEmbedUnimplementedChurnServiceServer() {}

// RegisterChurnServiceServer registers the ChurnServiceServer with the gRPC server.
func RegisterChurnServiceServer(s grpclib.ServiceRegistrar, srv ChurnServiceServer) {
	s.RegisterService(&_ChurnService_serviceDesc, srv) //nolint:revive // gRPC handler registration
}

//nolint:revive // gRPC handler registration
var _ChurnService_serviceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChurnServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "Predict", Handler: _ChurnService_Predict_Handler},                                 //nolint:revive // gRPC handler registration
		{MethodName: "GetPrediction", Handler: _ChurnService_GetPrediction_Handler},                     //nolint:revive // gRPC handler registration
		{MethodName: "ListCustomerPredictions", Handler: _ChurnService_ListCustomerPredictions_Handler}, //nolint:revive // gRPC handler registration
	},
	Streams: []grpclib.StreamDesc{},
}

//nolint:revive,errcheck // gRPC handler registration
func _ChurnService_Predict_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	in := new(PredictRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChurnServiceServer).Predict(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: MethodPredict}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ChurnServiceServer).Predict(ctx, req.(*PredictRequest))
	}
	return interceptor(ctx, in, info, handler)
}

//nolint:revive,errcheck // gRPC handler registration
func _ChurnService_GetPrediction_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetPredictionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChurnServiceServer).GetPrediction(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: MethodGetPrediction}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ChurnServiceServer).GetPrediction(ctx, req.(*GetPredictionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

//nolint:revive,errcheck // gRPC handler registration
func _ChurnService_ListCustomerPredictions_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListCustomerPredictionsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChurnServiceServer).ListCustomerPredictions(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: MethodListCustomerPredictions}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ChurnServiceServer).ListCustomerPredictions(ctx, req.(*ListCustomerPredictionsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ChurnServiceClient is the client API for ChurnService.
type ChurnServiceClient struct {
	cc grpclib.ClientConnInterface
}

// NewChurnServiceClient wraps a client connection.
func NewChurnServiceClient(cc grpclib.ClientConnInterface) *ChurnServiceClient {
	return &ChurnServiceClient{cc: cc}
}

func (c *ChurnServiceClient) Predict(ctx context.Context, in *PredictRequest, opts ...grpclib.CallOption) (*PredictionReply, error) {
	out := new(PredictionReply)
	if err := c.cc.Invoke(ctx, MethodPredict, in, out, append(opts, JSONCallOption())...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ChurnServiceClient) GetPrediction(ctx context.Context, in *GetPredictionRequest, opts ...grpclib.CallOption) (*PredictionReply, error) {
	out := new(PredictionReply)
	if err := c.cc.Invoke(ctx, MethodGetPrediction, in, out, append(opts, JSONCallOption())...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ChurnServiceClient) ListCustomerPredictions(ctx context.Context, in *ListCustomerPredictionsRequest, opts ...grpclib.CallOption) (*ListCustomerPredictionsReply, error) {
	out := new(ListCustomerPredictionsReply)
	if err := c.cc.Invoke(ctx, MethodListCustomerPredictions, in, out, append(opts, JSONCallOption())...); err != nil {
		return nil, err
	}
	return out, nil
}

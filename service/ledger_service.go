package service

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName = "ticket_chain.LedgerService"

	submitMethod      = "/" + ServiceName + "/Submit"
	mineMethod        = "/" + ServiceName + "/Mine"
	getTicketMethod   = "/" + ServiceName + "/GetTicket"
	getHistoryMethod  = "/" + ServiceName + "/GetHistory"
	exportChainMethod = "/" + ServiceName + "/ExportChain"
	importChainMethod = "/" + ServiceName + "/ImportChain"
)

// LedgerServiceClient is the client API for the ledger service.
type LedgerServiceClient interface {
	// Admit a signed transaction to the node's pending pool.
	Submit(ctx context.Context, in *SubmitRequest, opts ...grpc.CallOption) (*SubmitResponse, error)
	// Seal the pending pool into a new block.
	Mine(ctx context.Context, in *MineRequest, opts ...grpc.CallOption) (*MineResponse, error)
	GetTicket(ctx context.Context, in *GetTicketRequest, opts ...grpc.CallOption) (*GetTicketResponse, error)
	GetHistory(ctx context.Context, in *GetHistoryRequest, opts ...grpc.CallOption) (*GetHistoryResponse, error)
	ExportChain(ctx context.Context, in *ExportChainRequest, opts ...grpc.CallOption) (*ExportChainResponse, error)
	// Offer a chain to the node, adopted only if valid and strictly longer.
	ImportChain(ctx context.Context, in *ImportChainRequest, opts ...grpc.CallOption) (*ImportChainResponse, error)
}

type ledgerServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewLedgerServiceClient(cc grpc.ClientConnInterface) LedgerServiceClient {
	return &ledgerServiceClient{cc}
}

func (c *ledgerServiceClient) invoke(ctx context.Context, method string, in, out interface{}, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *ledgerServiceClient) Submit(ctx context.Context, in *SubmitRequest, opts ...grpc.CallOption) (*SubmitResponse, error) {
	out := new(SubmitResponse)
	if err := c.invoke(ctx, submitMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerServiceClient) Mine(ctx context.Context, in *MineRequest, opts ...grpc.CallOption) (*MineResponse, error) {
	out := new(MineResponse)
	if err := c.invoke(ctx, mineMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerServiceClient) GetTicket(ctx context.Context, in *GetTicketRequest, opts ...grpc.CallOption) (*GetTicketResponse, error) {
	out := new(GetTicketResponse)
	if err := c.invoke(ctx, getTicketMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerServiceClient) GetHistory(ctx context.Context, in *GetHistoryRequest, opts ...grpc.CallOption) (*GetHistoryResponse, error) {
	out := new(GetHistoryResponse)
	if err := c.invoke(ctx, getHistoryMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerServiceClient) ExportChain(ctx context.Context, in *ExportChainRequest, opts ...grpc.CallOption) (*ExportChainResponse, error) {
	out := new(ExportChainResponse)
	if err := c.invoke(ctx, exportChainMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerServiceClient) ImportChain(ctx context.Context, in *ImportChainRequest, opts ...grpc.CallOption) (*ImportChainResponse, error) {
	out := new(ImportChainResponse)
	if err := c.invoke(ctx, importChainMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// LedgerServiceServer is the server API for the ledger service.
// Implementations should embed UnimplementedLedgerServiceServer.
type LedgerServiceServer interface {
	Submit(context.Context, *SubmitRequest) (*SubmitResponse, error)
	Mine(context.Context, *MineRequest) (*MineResponse, error)
	GetTicket(context.Context, *GetTicketRequest) (*GetTicketResponse, error)
	GetHistory(context.Context, *GetHistoryRequest) (*GetHistoryResponse, error)
	ExportChain(context.Context, *ExportChainRequest) (*ExportChainResponse, error)
	ImportChain(context.Context, *ImportChainRequest) (*ImportChainResponse, error)
}

type UnimplementedLedgerServiceServer struct{}

func (UnimplementedLedgerServiceServer) Submit(context.Context, *SubmitRequest) (*SubmitResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Submit not implemented")
}
func (UnimplementedLedgerServiceServer) Mine(context.Context, *MineRequest) (*MineResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Mine not implemented")
}
func (UnimplementedLedgerServiceServer) GetTicket(context.Context, *GetTicketRequest) (*GetTicketResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetTicket not implemented")
}
func (UnimplementedLedgerServiceServer) GetHistory(context.Context, *GetHistoryRequest) (*GetHistoryResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetHistory not implemented")
}
func (UnimplementedLedgerServiceServer) ExportChain(context.Context, *ExportChainRequest) (*ExportChainResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ExportChain not implemented")
}
func (UnimplementedLedgerServiceServer) ImportChain(context.Context, *ImportChainRequest) (*ImportChainResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ImportChain not implemented")
}

func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerService_ServiceDesc, srv)
}

func _LedgerService_Submit_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SubmitRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServiceServer).Submit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: submitMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LedgerServiceServer).Submit(ctx, req.(*SubmitRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _LedgerService_Mine_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(MineRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServiceServer).Mine(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: mineMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LedgerServiceServer).Mine(ctx, req.(*MineRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _LedgerService_GetTicket_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetTicketRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServiceServer).GetTicket(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getTicketMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LedgerServiceServer).GetTicket(ctx, req.(*GetTicketRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _LedgerService_GetHistory_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetHistoryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServiceServer).GetHistory(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getHistoryMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LedgerServiceServer).GetHistory(ctx, req.(*GetHistoryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _LedgerService_ExportChain_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ExportChainRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServiceServer).ExportChain(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: exportChainMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LedgerServiceServer).ExportChain(ctx, req.(*ExportChainRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _LedgerService_ImportChain_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ImportChainRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServiceServer).ImportChain(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: importChainMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LedgerServiceServer).ImportChain(ctx, req.(*ImportChainRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// LedgerService_ServiceDesc is the grpc.ServiceDesc for the ledger service. Messages are the plain
// structs of this package, encoded with the json codec.
var LedgerService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Submit", Handler: _LedgerService_Submit_Handler},
		{MethodName: "Mine", Handler: _LedgerService_Mine_Handler},
		{MethodName: "GetTicket", Handler: _LedgerService_GetTicket_Handler},
		{MethodName: "GetHistory", Handler: _LedgerService_GetHistory_Handler},
		{MethodName: "ExportChain", Handler: _LedgerService_ExportChain_Handler},
		{MethodName: "ImportChain", Handler: _LedgerService_ImportChain_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ledger_service",
}

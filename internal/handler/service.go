// Package handler exposes the till over gRPC. Messages are
// google.protobuf.Struct so clients need no generated stubs; any gRPC
// client with reflection support can call the service.
package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "omnipos.pharmacy.v1.PharmacyService"

// PharmacyServiceServer is implemented by *PharmacyHandler.
type PharmacyServiceServer interface {
	GenerateReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListProducts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	AdjustStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CompleteSale(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeleteSale(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Undo(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Redo(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetSetting(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SaveSetting(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(PharmacyServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func method(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PharmacyServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(PharmacyServiceServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PharmacyServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method("GenerateReport", PharmacyServiceServer.GenerateReport),
		method("ListProducts", PharmacyServiceServer.ListProducts),
		method("GetProduct", PharmacyServiceServer.GetProduct),
		method("UpdateProduct", PharmacyServiceServer.UpdateProduct),
		method("AdjustStock", PharmacyServiceServer.AdjustStock),
		method("CompleteSale", PharmacyServiceServer.CompleteSale),
		method("DeleteSale", PharmacyServiceServer.DeleteSale),
		method("Undo", PharmacyServiceServer.Undo),
		method("Redo", PharmacyServiceServer.Redo),
		method("GetSetting", PharmacyServiceServer.GetSetting),
		method("SaveSetting", PharmacyServiceServer.SaveSetting),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/pharmacy/v1/pharmacy.proto",
}

func RegisterPharmacyServiceServer(s grpc.ServiceRegistrar, srv PharmacyServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

package grpcsvc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Сервис описан вручную: запрос и ответ передаются как google.protobuf.Struct
// с тем же JSON-форматом, что и в HTTP API.
const (
	MaterialsServiceName           = "bom.v1.MaterialsService"
	grpcMethodCalculateMaterials   = "/bom.v1.MaterialsService/CalculateMaterials"
	calculateMaterialsMethodName   = "CalculateMaterials"
	materialsServiceDescriptorFile = "bom/v1/materials.proto"
)

// MaterialsServer описывает серверную часть bom.v1.MaterialsService.
type MaterialsServer interface {
	// CalculateMaterials принимает {"items": [{"product": int, "quantity": number}, ...]}.
	CalculateMaterials(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// MaterialsServiceDesc описывает сервис для grpc.Server.
var MaterialsServiceDesc = grpc.ServiceDesc{
	ServiceName: MaterialsServiceName,
	HandlerType: (*MaterialsServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: calculateMaterialsMethodName,
			Handler:    calculateMaterialsHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: materialsServiceDescriptorFile,
}

// RegisterMaterialsServer регистрирует реализацию на сервере.
func RegisterMaterialsServer(s grpc.ServiceRegistrar, srv MaterialsServer) {
	s.RegisterService(&MaterialsServiceDesc, srv)
}

func calculateMaterialsHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MaterialsServer).CalculateMaterials(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: grpcMethodCalculateMaterials,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MaterialsServer).CalculateMaterials(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// MaterialsClient вызывает bom.v1.MaterialsService.
type MaterialsClient interface {
	CalculateMaterials(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type materialsClient struct {
	cc grpc.ClientConnInterface
}

// NewMaterialsClient создаёт клиента поверх соединения.
func NewMaterialsClient(cc grpc.ClientConnInterface) MaterialsClient {
	return &materialsClient{cc: cc}
}

func (c *materialsClient) CalculateMaterials(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, grpcMethodCalculateMaterials, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

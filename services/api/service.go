package api

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "btcx.LightClient"

// Full method names, as seen by interceptors.
const (
	MethodHealth             = "/" + serviceName + "/Health"
	MethodBestBlockHeight    = "/" + serviceName + "/BestBlockHeight"
	MethodBestBlockHash      = "/" + serviceName + "/BestBlockHash"
	MethodGetTip             = "/" + serviceName + "/GetTip"
	MethodSubmit             = "/" + serviceName + "/Submit"
	MethodRequestAttestation = "/" + serviceName + "/RequestAttestation"
	MethodSubmitAttestation  = "/" + serviceName + "/SubmitAttestation"
	MethodGetSubmitters      = "/" + serviceName + "/GetSubmitters"
	MethodAuthorize          = "/" + serviceName + "/Authorize"
	MethodRevoke             = "/" + serviceName + "/Revoke"
)

// protectedMethods require the admin token.
var protectedMethods = map[string]bool{
	MethodAuthorize: true,
	MethodRevoke:    true,
}

// relayMethods require the relay token.
var relayMethods = map[string]bool{
	MethodSubmitAttestation: true,
}

// LightClientAPI is the gRPC surface of the light client.
type LightClientAPI interface {
	HealthGRPC(ctx context.Context, req *HealthRequest) (*HealthResponse, error)
	BestBlockHeight(ctx context.Context, req *Empty) (*HeightResponse, error)
	BestBlockHash(ctx context.Context, req *Empty) (*HashResponse, error)
	GetTip(ctx context.Context, req *Empty) (*TipResponse, error)
	Submit(ctx context.Context, req *SubmitRequest) (*TipResponse, error)
	RequestAttestation(ctx context.Context, req *AttestationRequest) (*AttestationRequestResponse, error)
	SubmitAttestation(ctx context.Context, req *AttestationMessage) (*TipResponse, error)
	GetSubmitters(ctx context.Context, req *Empty) (*SubmittersResponse, error)
	Authorize(ctx context.Context, req *SubmitterRequest) (*Empty, error)
	Revoke(ctx context.Context, req *SubmitterRequest) (*Empty, error)
}

var lightClientServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*LightClientAPI)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("Health", LightClientAPI.HealthGRPC),
		unaryHandler("BestBlockHeight", LightClientAPI.BestBlockHeight),
		unaryHandler("BestBlockHash", LightClientAPI.BestBlockHash),
		unaryHandler("GetTip", LightClientAPI.GetTip),
		unaryHandler("Submit", LightClientAPI.Submit),
		unaryHandler("RequestAttestation", LightClientAPI.RequestAttestation),
		unaryHandler("SubmitAttestation", LightClientAPI.SubmitAttestation),
		unaryHandler("GetSubmitters", LightClientAPI.GetSubmitters),
		unaryHandler("Authorize", LightClientAPI.Authorize),
		unaryHandler("Revoke", LightClientAPI.Revoke),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "btcx/lightclient",
}

// RegisterLightClientAPIServer registers srv with s.
func RegisterLightClientAPIServer(s grpc.ServiceRegistrar, srv LightClientAPI) {
	s.RegisterService(&lightClientServiceDesc, srv)
}

func unaryHandler[Req, Resp any](method string, call func(LightClientAPI, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + serviceName + "/" + method

	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}

			api := srv.(LightClientAPI)

			if interceptor == nil {
				return call(api, ctx, in)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}

			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(api, ctx, req.(*Req))
			})
		},
	}
}

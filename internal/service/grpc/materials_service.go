package grpcsvc

import (
	"context"
	"encoding/json"
	"errors"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vladislavdragonenkov/bomalloc/internal/contract"
	"github.com/vladislavdragonenkov/bomalloc/internal/domain"
	"github.com/vladislavdragonenkov/bomalloc/internal/service/materials"
)

// MetadataPassID задаёт ключ заголовка ответа с идентификатором прохода.
const MetadataPassID = "x-allocation-pass-id"

// MaterialsService реализует gRPC API поверх сервиса расчёта материалов.
type MaterialsService struct {
	calc   materials.Calculator
	logger *log.Entry
}

// NewMaterialsService конструирует сервис с зависимостями.
func NewMaterialsService(calc materials.Calculator, logger *log.Entry) *MaterialsService {
	if logger == nil {
		logger = log.New().WithField("component", "materials-grpc")
	}
	return &MaterialsService{calc: calc, logger: logger}
}

// CalculateMaterials проверяет позиции тем же разбором, что и HTTP API, и выполняет расчёт.
func (s *MaterialsService) CalculateMaterials(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	body := []byte("null")
	if items, ok := req.GetFields()["items"]; ok {
		raw, err := protojson.Marshal(items)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, contract.MsgMalformedPayload)
		}
		body = raw
	}

	demands, err := contract.ParseDemands(body)
	if err != nil {
		return nil, toStatus(err)
	}

	calc, err := s.calc.Calculate(ctx, demands)
	if err != nil {
		s.logger.WithError(err).Warn("materials calculation failed")
		return nil, toStatus(err)
	}

	if err := grpc.SetHeader(ctx, metadata.Pairs(MetadataPassID, calc.PassID)); err != nil {
		s.logger.WithError(err).Debug("failed to set pass id header")
	}

	out, err := toStruct(contract.NewResponse(calc.Results))
	if err != nil {
		s.logger.WithError(err).Error("failed to encode materials response")
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return out, nil
}

func toStruct(resp contract.Response) (*structpb.Struct, error) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

func toStatus(err error) error {
	var ve *contract.ValidationError
	switch {
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, ve.Message)
	case errors.Is(err, domain.ErrDemandsRequired),
		errors.Is(err, domain.ErrProductIDInvalid),
		errors.Is(err, domain.ErrQuantityInvalid):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "calculation timed out")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case domain.IsCatalogUnavailable(err):
		return status.Error(codes.Unavailable, "catalog is temporarily unavailable")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

var _ MaterialsServer = (*MaterialsService)(nil)

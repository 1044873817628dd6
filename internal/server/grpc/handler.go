package grpc

import (
	"context"

	"github.com/dmitrijs2005/attendpass/internal/credential"
	pb "github.com/dmitrijs2005/attendpass/internal/proto"
	"github.com/dmitrijs2005/attendpass/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func respond(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}
	return out, nil
}

func issuedMap(in *services.Issued) map[string]any {
	return map[string]any{
		pb.FieldCredential: pb.CredentialMap(in.Credential),
		pb.FieldWire:       in.Wire,
	}
}

func (s *GRPCServer) Issue(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r, err := pb.RequestFromStruct(req)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	out, err := s.credentials.Issue(ctx, r)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return respond(issuedMap(out))
}

func (s *GRPCServer) IssueBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	items, err := pb.StructList(req, pb.FieldRequests)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	reqs := make([]credential.Request, len(items))
	for i, item := range items {
		if reqs[i], err = pb.RequestFromStruct(item); err != nil {
			return nil, s.toStatus(ctx, err)
		}
	}

	var policy credential.BatchPolicy
	if policy.ExpiryMinutes, err = pb.OptionalInt(req, pb.FieldExpiryMinutes); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if policy.Sequential, err = pb.Bool(req, pb.FieldSequential); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	export, err := pb.Bool(req, pb.FieldExport)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	out, err := s.credentials.IssueBatch(ctx, reqs, policy, export)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	results := make([]any, len(out.Items))
	for i, item := range out.Items {
		m := map[string]any{pb.FieldSessionID: item.SessionID}
		if item.Err != nil {
			m[pb.FieldError] = item.Err.Error()
			m[pb.FieldCode] = errorCode(item.Err).String()
		} else {
			m[pb.FieldWire] = item.Issued.Wire
			m[pb.FieldExpiresAt] = item.Issued.Credential.ExpiresAt
		}
		results[i] = m
	}

	resp := map[string]any{pb.FieldResults: results}
	if out.ExportURL != "" {
		resp[pb.FieldExportKey] = out.ExportKey
		resp[pb.FieldExportURL] = out.ExportURL
	}
	return respond(resp)
}

func (s *GRPCServer) Renew(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	wire, err := pb.String(req, pb.FieldWire)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	expiry, err := pb.OptionalInt(req, pb.FieldExpiryMinutes)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	out, err := s.credentials.Renew(ctx, wire, expiry)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return respond(issuedMap(out))
}

// Validate is the scanning path: rejections are results, not errors.
func (s *GRPCServer) Validate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	wire, err := pb.String(req, pb.FieldWire)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	attendeeID, err := pb.String(req, pb.FieldAttendeeID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	out, err := s.checkins.CheckIn(ctx, wire, attendeeID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	resp := map[string]any{pb.FieldAccepted: out.Accepted}
	if out.Accepted {
		resp[pb.FieldHandoff] = pb.HandoffMap(out.Payload.Handoff())
		resp[pb.FieldRecorded] = out.Recorded
		resp[pb.FieldDuplicate] = out.Duplicate
	} else {
		resp[pb.FieldReason] = string(out.Reason)
		resp[pb.FieldMessage] = out.Reason.Message()
	}
	return respond(resp)
}

func (s *GRPCServer) Attendance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sessionID, err := pb.String(req, pb.FieldSessionID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	a, err := s.checkins.Attendance(ctx, sessionID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return respond(pb.AttendanceMap(pb.Attendance{
		SessionID: a.SessionID,
		EventID:   a.EventID,
		CheckIns:  a.CheckIns,
		UpdatedAt: a.UpdatedAt.UnixMilli(),
	}))
}

func (s *GRPCServer) Ping(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return respond(map[string]any{pb.FieldStatus: "OK"})
}

//go:build protogen

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/metabridge-io/metabridge/libs/grpcx"
	cohortv1 "github.com/metabridge-io/metabridge/protos/gen/cohort/v1"
	"github.com/metabridge-io/metabridge/services/exchange-service/internal/omrs"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// cohortFacade reads the metadata graph from a remote cohort repository
// service over gRPC.
type cohortFacade struct {
	client cohortv1.CohortRepositoryServiceClient
}

func NewCohortFacade(addr string) (Facade, error) {
	if addr == "" {
		return nil, nil
	}
	conn, err := grpcx.Dial(context.Background(), addr, grpcx.DialOptions{Timeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}
	return &cohortFacade{client: cohortv1.NewCohortRepositoryServiceClient(conn)}, nil
}

func (f *cohortFacade) Entity(ctx context.Context, guid string) (*omrs.Entity, error) {
	resp, err := f.client.GetEntity(ctx, &cohortv1.GetEntityRequest{Guid: guid})
	if err != nil {
		return nil, mapStatusError(err, guid)
	}

	e := &omrs.Entity{
		GUID:                 resp.GetGuid(),
		TypeName:             resp.GetTypeName(),
		MetadataCollectionID: resp.GetMetadataCollectionId(),
		Status:               resp.GetStatus(),
		CreatedBy:            resp.GetCreatedBy(),
		UpdatedBy:            resp.GetUpdatedBy(),
		Version:              resp.GetVersion(),
		Properties:           propertiesMap(resp.GetProperties()),
	}
	for _, c := range resp.GetClassifications() {
		e.Classifications = append(e.Classifications, omrs.Classification{
			Name:       c.GetName(),
			Properties: propertiesMap(c.GetProperties()),
		})
	}
	return e, nil
}

func (f *cohortFacade) Relationships(ctx context.Context, entityGUID, relationshipType string, startFrom, pageSize int) ([]omrs.Relationship, error) {
	resp, err := f.client.GetRelationships(ctx, &cohortv1.GetRelationshipsRequest{
		EntityGuid:       entityGUID,
		RelationshipType: relationshipType,
		StartFrom:        int32(startFrom),
		PageSize:         int32(pageSize),
	})
	if err != nil {
		return nil, mapStatusError(err, entityGUID)
	}

	var out []omrs.Relationship
	for _, r := range resp.GetRelationships() {
		out = append(out, omrs.Relationship{
			GUID:                 r.GetGuid(),
			TypeName:             r.GetTypeName(),
			MetadataCollectionID: r.GetMetadataCollectionId(),
			Status:               r.GetStatus(),
			CreatedBy:            r.GetCreatedBy(),
			UpdatedBy:            r.GetUpdatedBy(),
			Version:              r.GetVersion(),
			Properties:           propertiesMap(r.GetProperties()),
			EndOne: omrs.EntityProxy{
				GUID:     r.GetEndOne().GetGuid(),
				TypeName: r.GetEndOne().GetTypeName(),
			},
			EndTwo: omrs.EntityProxy{
				GUID:     r.GetEndTwo().GetGuid(),
				TypeName: r.GetEndTwo().GetTypeName(),
			},
		})
	}
	return out, nil
}

func propertiesMap(props map[string]string) map[string]any {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

func mapStatusError(err error, guid string) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("entity %s: %w", guid, ErrNotFound)
	case codes.PermissionDenied:
		return fmt.Errorf("entity %s: %w", guid, ErrUnauthorized)
	default:
		return err
	}
}

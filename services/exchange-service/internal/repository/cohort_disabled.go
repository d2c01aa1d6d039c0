//go:build !protogen

package repository

// NewCohortFacade is the no-op variant used when the cohort gRPC protos are
// not generated; callers fall back to the local Postgres facade.
func NewCohortFacade(_ string) (Facade, error) {
	return nil, nil
}

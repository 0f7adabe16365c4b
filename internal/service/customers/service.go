// Package customers is the front end's view of the customer API: every call
// is a loopback HTTP round trip through the authenticated client, so the API
// stays the single source of truth for validation.
package customers

import (
	"context"
	"strconv"

	"github.com/jmehdipour/customer-portal/internal/apiclient"
)

type Service struct {
	api *apiclient.Client
}

func NewService(api *apiclient.Client) *Service {
	return &Service{api: api}
}

func (s *Service) List(ctx context.Context) (*apiclient.Response, error) {
	return s.api.Get(ctx, "/api/customers")
}

func (s *Service) Find(ctx context.Context, id int64) (*apiclient.Response, error) {
	return s.api.Get(ctx, "/api/customers/"+strconv.FormatInt(id, 10))
}

func (s *Service) Create(ctx context.Context, fields any) (*apiclient.Response, error) {
	return s.api.Post(ctx, "/api/customers", fields)
}

func (s *Service) Update(ctx context.Context, id int64, fields any) (*apiclient.Response, error) {
	return s.api.Put(ctx, "/api/customers/"+strconv.FormatInt(id, 10), fields)
}

func (s *Service) Delete(ctx context.Context, id int64) (*apiclient.Response, error) {
	return s.api.Delete(ctx, "/api/customers/"+strconv.FormatInt(id, 10))
}

package session

import (
	"context"

	"github.com/jmehdipour/customer-portal/internal/apiclient"
)

type tokenSource struct {
	store Store
	sid   string
}

// TokenSource binds one session's token for injection into an API client, so
// the token never lives in ambient state.
func TokenSource(store Store, sid string) apiclient.TokenSource {
	return tokenSource{store: store, sid: sid}
}

func (t tokenSource) Token(ctx context.Context) (string, error) {
	return t.store.Token(ctx, t.sid)
}

package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/timegrid/timegrid/internal/common"
	"github.com/timegrid/timegrid/internal/server/auth"
	"github.com/timegrid/timegrid/internal/server/models"
)

type contextKey int

const identityKey contextKey = iota

// identityFrom returns the authenticated identity stored by withAuth.
func identityFrom(ctx context.Context) (models.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(models.Identity)
	return ident, ok
}

// withAuth verifies the bearer token and stores the caller's identity in
// the request context. Requests without a valid token never reach the
// wrapped handler.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.writeError(w, r, common.ErrInvalidToken)
			return
		}

		ident, err := auth.IdentityFromToken(token, s.secretKey)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), identityKey, ident)))
	}
}

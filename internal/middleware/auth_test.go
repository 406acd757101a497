package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type staticValidator struct {
	identity *model.Identity
}

func (v *staticValidator) ValidateAccessToken(token string) (*model.Identity, error) {
	if token != "valid-token" || v.identity == nil {
		return nil, apperrors.Unauthorized("invalid token", nil)
	}
	return v.identity, nil
}

func setupRouter(identity *model.Identity, roles ...model.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	auth := NewAuthMiddleware(&staticValidator{identity: identity})
	group := r.Group("/", auth.Authenticate())
	if len(roles) > 0 {
		group.Use(RequireRoles(roles...))
	}
	group.GET("/ping", func(c *gin.Context) {
		id, _ := CurrentIdentity(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id.UserID})
	})
	return r
}

func doRequest(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticateMissingHeader(t *testing.T) {
	r := setupRouter(&model.Identity{UserID: uuid.New(), Role: model.RoleMember})

	w := doRequest(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	r := setupRouter(&model.Identity{UserID: uuid.New(), Role: model.RoleMember})

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "valid-token").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "Basic valid-token").Code)
}

func TestAuthenticateInvalidToken(t *testing.T) {
	r := setupRouter(&model.Identity{UserID: uuid.New(), Role: model.RoleMember})

	w := doRequest(r, "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateSetsIdentity(t *testing.T) {
	identity := &model.Identity{UserID: uuid.New(), Role: model.RoleMember}
	r := setupRouter(identity)

	w := doRequest(r, "Bearer valid-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), identity.UserID.String())
}

func TestRequireRoles(t *testing.T) {
	member := &model.Identity{UserID: uuid.New(), Role: model.RoleMember}

	denied := setupRouter(member, model.RoleAdmin)
	assert.Equal(t, http.StatusForbidden, doRequest(denied, "Bearer valid-token").Code)

	allowed := setupRouter(member, model.RoleAdmin, model.RoleMember)
	assert.Equal(t, http.StatusOK, doRequest(allowed, "Bearer valid-token").Code)
}

func TestRequireFeatureDisabledLooksAbsent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/claims", RequireFeature(false, "reimbursement"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/claims", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

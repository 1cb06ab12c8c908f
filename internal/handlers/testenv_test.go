package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/svm-engineering/storefront/internal/config"
	authmw "github.com/svm-engineering/storefront/internal/middleware/auth"
	"github.com/svm-engineering/storefront/internal/mykafka"
	"github.com/svm-engineering/storefront/internal/service/token"
)

type testEnv struct {
	T  *testing.T
	E  *echo.Echo
	DB *gorm.DB

	Auth      *AuthHandler
	Products  *ProductHandler
	Orders    *OrderHandler
	Employees *EmployeeHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	prod := mykafka.NewProducer(nil)
	tokens := &token.Service{
		DB:            db,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}

	return &testEnv{
		T:         t,
		E:         echo.New(),
		DB:        db,
		Auth:      &AuthHandler{DB: db, Tokens: tokens, Producer: prod},
		Products:  &ProductHandler{DB: db, Producer: prod},
		Orders:    &OrderHandler{DB: db, Producer: prod},
		Employees: &EmployeeHandler{DB: db},
	}
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

// asUser simulates what the auth middleware attaches after verifying a
// bearer token.
func asUser(c echo.Context, id uint, email, role string) {
	c.Set(authmw.ContextUserID, id)
	c.Set(authmw.ContextEmail, email)
	c.Set(authmw.ContextRole, role)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

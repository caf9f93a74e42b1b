package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	appidentity "github.com/voucherdesk/backend/internal/application/identity"
	apptenancy "github.com/voucherdesk/backend/internal/application/tenancy"
	appvenue "github.com/voucherdesk/backend/internal/application/venue"
	appvoucher "github.com/voucherdesk/backend/internal/application/voucher"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"github.com/voucherdesk/backend/internal/infrastructure/cache"
	"github.com/voucherdesk/backend/internal/infrastructure/persistence"
	"github.com/voucherdesk/backend/internal/infrastructure/persistence/persistencetest"
	"github.com/voucherdesk/backend/internal/infrastructure/storage"
	"github.com/voucherdesk/backend/internal/interfaces/http/dto"
	"github.com/voucherdesk/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

// testEnv wires real services over a private SQLite database
type testEnv struct {
	t   *testing.T
	ctx context.Context

	root    identity.Principal
	company *apptenancy.CompanyDTO
	store   *storage.StubObjectStorage

	users        *appidentity.UserService
	permissions  *appidentity.PermissionService
	companies    *apptenancy.CompanyService
	memberships  *apptenancy.MembershipService
	designations *apptenancy.DesignationService
	accounts     *apptenancy.BankAccountService
	organization *apptenancy.OrganizationService
	vouchers     *appvoucher.Service
	functions    *appvenue.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := persistencetest.NewSQLiteDB(t)
	scope := persistence.NewGormTransactionScope(db)
	log := zap.NewNop()
	authz := appidentity.NewAuthorizationService(scope, log)
	store := storage.NewStubObjectStorage()

	e := &testEnv{
		t:            t,
		ctx:          context.Background(),
		store:        store,
		users:        appidentity.NewUserService(scope, log),
		permissions:  appidentity.NewPermissionService(scope, log),
		companies:    apptenancy.NewCompanyService(scope, nil, "", log),
		memberships:  apptenancy.NewMembershipService(scope, cache.NewInMemoryGroupMirror(), nil, log),
		designations: apptenancy.NewDesignationService(scope, log),
		accounts:     apptenancy.NewBankAccountService(scope, log),
		organization: apptenancy.NewOrganizationService(scope, log),
		vouchers:     appvoucher.NewService(scope, authz, storage.NewAttachmentRemover(store, log), nil, log),
		functions:    appvenue.NewService(scope, authz, nil, time.UTC, log),
	}

	rootUser, err := identity.NewUser("root", "root@example.com", true)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormUserRepository(db).Create(e.ctx, rootUser))
	e.root = identity.Principal{UserID: rootUser.ID, Username: rootUser.Username, IsSuperuser: true}

	e.company, err = e.companies.CreateCompany(e.ctx, e.root, apptenancy.CompanyInput{Name: "Acme Hospitality"})
	require.NoError(t, err)
	return e
}

// newUser creates a plain user
func (e *testEnv) newUser(username string) identity.Principal {
	e.t.Helper()
	u, err := e.users.CreateUser(e.ctx, e.root, appidentity.CreateUserInput{Username: username})
	require.NoError(e.t, err)
	return identity.Principal{UserID: u.ID, Username: u.Username}
}

// member creates a user holding a membership of the test company
func (e *testEnv) member(username string, group tenancy.RoleGroup, designationID *uuid.UUID) identity.Principal {
	e.t.Helper()
	p := e.newUser(username)
	_, err := e.memberships.CreateMembership(e.ctx, e.root, apptenancy.CreateMembershipInput{
		UserID:        p.UserID,
		CompanyID:     e.company.ID,
		Group:         group,
		DesignationID: designationID,
	})
	require.NoError(e.t, err)
	return p
}

// engine mounts routes behind a stub that authenticates p and selects the
// test company
func (e *testEnv) engine(p identity.Principal, register func(g *gin.RouterGroup)) *gin.Engine {
	r := gin.New()
	g := r.Group("/api/v1", func(c *gin.Context) {
		middleware.SetPrincipal(c, p)
		middleware.SetCompanyID(c, e.company.ID)
		c.Next()
	})
	register(g)
	return r
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// formFile is one file part of a multipart request
type formFile struct {
	field, name, content string
}

func doMultipart(r http.Handler, method, path string, fields map[string]string, files ...formFile) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		h.Set("Content-Type", "application/pdf")
		part, _ := mw.CreatePart(h)
		_, _ = part.Write([]byte(f.content))
	}
	_ = mw.Close()

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope[T any] struct {
	Success bool          `json:"success"`
	Data    T             `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
	Meta    *dto.Meta     `json:"meta"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	return decode[T](t, w).Data
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	env := decode[json.RawMessage](t, w)
	require.False(t, env.Success)
	require.NotNil(t, env.Error, w.Body.String())
	return env.Error
}

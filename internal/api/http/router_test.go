package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/civic-desk/complaint-service/internal/api/http/handlers"
	"github.com/civic-desk/complaint-service/internal/auth"
	"github.com/civic-desk/complaint-service/internal/config"
	"github.com/civic-desk/complaint-service/internal/directory"
	"github.com/civic-desk/complaint-service/internal/domain"
	"github.com/civic-desk/complaint-service/internal/events"
	"github.com/civic-desk/complaint-service/internal/observability"
	"github.com/civic-desk/complaint-service/internal/repository"
	"github.com/civic-desk/complaint-service/internal/service"
)

const password = "correct-horse"

type testServer struct {
	app    *fiber.App
	store  *repository.MemoryStore
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T, throttle *handlers.LoginThrottle) *testServer {
	t.Helper()
	logger := zap.NewNop()
	store := repository.NewMemoryStore()
	metrics := observability.NewMetrics()
	dir := directory.New()
	dispatcher := events.NewInMemoryDispatcher()
	tokens := auth.NewTokenManager("router-test-secret", 8*time.Hour, 24*time.Hour, 24*time.Hour)
	guard := auth.NewAuthorityGuard(auth.GuardDependencies{
		Tokens:    tokens,
		Accounts:  store.Accounts(),
		Directory: dir,
		Logger:    logger,
		Metrics:   metrics,
	})
	authority := service.NewAuthorityService(service.AuthorityDependencies{
		AccountRepo: store.Accounts(),
		Tokens:      tokens,
		Guard:       guard,
		Directory:   dir,
		Logger:      logger,
		Metrics:     metrics,
	})
	dashboard := service.NewDashboardService(service.DashboardDependencies{
		ComplaintRepo: store.Complaints(),
		HistoryRepo:   store.History(),
		Directory:     dir,
		Dispatcher:    dispatcher,
		Logger:        logger,
		Metrics:       metrics,
	})
	citizen := service.NewCitizenService(config.AuthConfig{BcryptCost: 4}, service.CitizenDependencies{
		AccountRepo:   store.Accounts(),
		ComplaintRepo: store.Complaints(),
		Tokens:        tokens,
		Dispatcher:    dispatcher,
		Logger:        logger,
	})
	cookies := auth.CookieWriter{}

	app := fiber.New(fiber.Config{Immutable: true})
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("complaint-service", "test", nil, nil),
		Authority:      handlers.NewAuthorityHandler(authority, dir, cookies, throttle, logger, metrics),
		Dashboard:      handlers.NewDashboardHandler(dashboard, dir),
		Citizen:        handlers.NewCitizenHandler(citizen, dir, cookies),
		Guard:          guard,
		CitizenSession: auth.NewCitizenSession(tokens, store.Accounts()),
		Cookies:        cookies,
		Metrics:        metrics,
		MetricsHandler: metrics.Handler(),
	})
	return &testServer{app: app, store: store, tokens: tokens}
}

func (s *testServer) account(t *testing.T, username string, staff bool, dept domain.Department) *domain.Account {
	t.Helper()
	hash, err := auth.HashPassword(password, 4)
	require.NoError(t, err)
	account := &domain.Account{
		Username:     username,
		Name:         strings.ToUpper(username[:1]) + username[1:],
		PasswordHash: hash,
		IsStaff:      staff,
		IsActive:     true,
		Department:   dept,
	}
	require.NoError(t, s.store.Accounts().Create(context.Background(), account))
	return account
}

func (s *testServer) complaint(t *testing.T, owner *domain.Account, dept domain.Department, title string) *domain.Complaint {
	t.Helper()
	complaint := &domain.Complaint{
		OwnerID:            owner.ID,
		Category:           domain.ComplaintCategoryElectricity,
		Title:              title,
		Description:        title,
		Location:           "Ward 4",
		Priority:           domain.ComplaintPriorityMedium,
		Status:             domain.ComplaintStatusPending,
		AssignedDepartment: dept,
	}
	require.NoError(t, s.store.Complaints().Create(context.Background(), complaint))
	return complaint
}

func (s *testServer) do(t *testing.T, req *nethttp.Request) *nethttp.Response {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (s *testServer) staffLogin(t *testing.T, username, next string) *nethttp.Response {
	t.Helper()
	return s.do(t, formRequest(nethttp.MethodPost, "/authority/login/", url.Values{
		"username": {username},
		"password": {password},
		"next":     {next},
	}))
}

func formRequest(method, target string, form url.Values) *nethttp.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return req
}

func withCookie(req *nethttp.Request, cookie *nethttp.Cookie) *nethttp.Request {
	req.AddCookie(cookie)
	return req
}

func findCookie(resp *nethttp.Response, name string) *nethttp.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name && cookie.Value != "" {
			return cookie
		}
	}
	return nil
}

func flashOf(t *testing.T, resp *nethttp.Response) string {
	t.Helper()
	cookie := findCookie(resp, "flash")
	require.NotNil(t, cookie, "expected a flash cookie")
	decoded, err := url.QueryUnescape(cookie.Value)
	require.NoError(t, err)
	return decoded
}

type renderedView struct {
	View     string          `json:"view"`
	Messages []string        `json:"messages"`
	Data     json.RawMessage `json:"data"`
}

func decodeView(t *testing.T, resp *nethttp.Response) renderedView {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var view renderedView
	require.NoError(t, json.Unmarshal(body, &view), string(body))
	return view
}

func TestAdminLoginTowardDepartmentDashboardIsRejected(t *testing.T) {
	s := newTestServer(t, nil)
	s.account(t, "chief", true, domain.DepartmentAdmin)

	resp := s.staffLogin(t, "chief", "/authority/power/")

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Nil(t, findCookie(resp, auth.AccessCookieName))
	assert.Nil(t, findCookie(resp, auth.RefreshCookieName))
	view := decodeView(t, resp)
	assert.Equal(t, handlers.ViewAuthorityLogin, view.View)
	require.Len(t, view.Messages, 1)
	assert.Contains(t, view.Messages[0], "Power")
}

func TestAdminLoginTowardAdminDashboard(t *testing.T) {
	s := newTestServer(t, nil)
	s.account(t, "chief", true, domain.DepartmentAdmin)

	resp := s.staffLogin(t, "chief", "/authority/dashboard/")

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/authority/dashboard/", resp.Header.Get(fiber.HeaderLocation))
	access := findCookie(resp, auth.AccessCookieName)
	require.NotNil(t, access)
	assert.True(t, access.HttpOnly)
	require.NotNil(t, findCookie(resp, auth.RefreshCookieName))
	assert.Contains(t, flashOf(t, resp), "Welcome")

	dashboard := s.do(t, withCookie(httptest.NewRequest(nethttp.MethodGet, "/authority/dashboard/", nil), access))
	assert.Equal(t, fiber.StatusOK, dashboard.StatusCode)
	assert.Equal(t, handlers.ViewAdminDashboard, decodeView(t, dashboard).View)
}

func TestDepartmentStaffLoginWithoutNextLandsOnOwnDashboard(t *testing.T) {
	s := newTestServer(t, nil)
	s.account(t, "ravi", true, domain.DepartmentPower)

	resp := s.staffLogin(t, "ravi", "")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/authority/power/", resp.Header.Get(fiber.HeaderLocation))
}

func TestCitizenCannotLogIntoAuthorityArea(t *testing.T) {
	s := newTestServer(t, nil)
	s.account(t, "asha", false, domain.DepartmentNone)

	resp := s.staffLogin(t, "asha", "/authority/power/")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Nil(t, findCookie(resp, auth.AccessCookieName))
	assert.Equal(t, handlers.ViewAuthorityLogin, decodeView(t, resp).View)
}

func TestPowerStaffOpeningHealthComplaintIsRedirected(t *testing.T) {
	s := newTestServer(t, nil)
	citizen := s.account(t, "asha", false, domain.DepartmentNone)
	s.account(t, "ravi", true, domain.DepartmentPower)
	complaint := s.complaint(t, citizen, domain.DepartmentHealth, "Open drain")

	access := findCookie(s.staffLogin(t, "ravi", ""), auth.AccessCookieName)
	require.NotNil(t, access)

	target := fmt.Sprintf("/authority/complaints/%d/", complaint.ID)
	resp := s.do(t, withCookie(httptest.NewRequest(nethttp.MethodGet, target, nil), access))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, handlers.AuthorityLandingPath, resp.Header.Get(fiber.HeaderLocation))
	assert.Contains(t, flashOf(t, resp), "permission")
}

func TestUnauthenticatedDashboardRedirectsToLogin(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, httptest.NewRequest(nethttp.MethodGet, "/authority/power/", nil))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/authority/login/?next="+url.QueryEscape("/authority/power/"), resp.Header.Get(fiber.HeaderLocation))
	assert.NotEmpty(t, flashOf(t, resp))
}

func TestStaffForOtherDepartmentIsSentToLanding(t *testing.T) {
	s := newTestServer(t, nil)
	s.account(t, "ravi", true, domain.DepartmentPower)
	access := findCookie(s.staffLogin(t, "ravi", ""), auth.AccessCookieName)
	require.NotNil(t, access)

	health := s.do(t, withCookie(httptest.NewRequest(nethttp.MethodGet, "/authority/health/", nil), access))
	assert.Equal(t, fiber.StatusFound, health.StatusCode)
	assert.Equal(t, handlers.AuthorityLandingPath, health.Header.Get(fiber.HeaderLocation))
	assert.Contains(t, flashOf(t, health), "Public Health")

	admin := s.do(t, withCookie(httptest.NewRequest(nethttp.MethodGet, "/authority/dashboard/", nil), access))
	assert.Equal(t, fiber.StatusFound, admin.StatusCode)
	assert.Equal(t, handlers.AuthorityLandingPath, admin.Header.Get(fiber.HeaderLocation))
}

func TestUnknownDepartmentRendersNotFound(t *testing.T) {
	s := newTestServer(t, nil)
	s.account(t, "ravi", true, domain.DepartmentPower)
	access := findCookie(s.staffLogin(t, "ravi", ""), auth.AccessCookieName)
	require.NotNil(t, access)

	resp := s.do(t, withCookie(httptest.NewRequest(nethttp.MethodGet, "/authority/parks/", nil), access))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "authority/not_found", decodeView(t, resp).View)
}

func TestCredentialScopesAreSeparate(t *testing.T) {
	s := newTestServer(t, nil)
	citizen := s.account(t, "asha", false, domain.DepartmentNone)
	staff := s.account(t, "ravi", true, domain.DepartmentPower)

	citizenToken, err := s.tokens.IssueCitizen(citizen)
	require.NoError(t, err)
	resp := s.do(t, withCookie(httptest.NewRequest(nethttp.MethodGet, "/authority/power/", nil),
		&nethttp.Cookie{Name: auth.AccessCookieName, Value: citizenToken.Value}))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get(fiber.HeaderLocation), handlers.AuthorityLoginPath))

	pair, err := s.tokens.IssueAuthority(domain.SessionClaims{
		UserID: staff.ID, Username: staff.Username, Department: staff.Department, IsStaff: true,
	})
	require.NoError(t, err)
	resp = s.do(t, withCookie(httptest.NewRequest(nethttp.MethodGet, "/my-complaints", nil),
		&nethttp.Cookie{Name: auth.CitizenCookieName, Value: pair.Access.Value}))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, handlers.CitizenLoginPath, resp.Header.Get(fiber.HeaderLocation))

	resp = s.do(t, withCookie(httptest.NewRequest(nethttp.MethodGet, "/authority/power/", nil),
		&nethttp.Cookie{Name: auth.AccessCookieName, Value: pair.Refresh.Value}))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get(fiber.HeaderLocation), handlers.AuthorityLoginPath))
}

func TestComplaintUpdateFlow(t *testing.T) {
	s := newTestServer(t, nil)
	citizen := s.account(t, "asha", false, domain.DepartmentNone)
	s.account(t, "ravi", true, domain.DepartmentPower)
	complaint := s.complaint(t, citizen, domain.DepartmentNone, "Street light out")
	access := findCookie(s.staffLogin(t, "ravi", ""), auth.AccessCookieName)
	require.NotNil(t, access)
	target := fmt.Sprintf("/authority/complaints/%d/", complaint.ID)

	invalid := s.do(t, withCookie(formRequest(nethttp.MethodPost, target, url.Values{"status": {"closed"}}), access))
	assert.Equal(t, fiber.StatusBadRequest, invalid.StatusCode)
	assert.Equal(t, handlers.ViewComplaintDetail, decodeView(t, invalid).View)

	resp := s.do(t, withCookie(formRequest(nethttp.MethodPost, target, url.Values{
		"status":              {"in_progress"},
		"priority":            {"high"},
		"assigned_department": {"power"},
	}), access))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/authority/power/", resp.Header.Get(fiber.HeaderLocation))

	stored, err := s.store.Complaints().GetByID(context.Background(), complaint.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusInProgress, stored.Status)
	assert.Equal(t, domain.ComplaintPriorityHigh, stored.Priority)
	assert.Equal(t, domain.DepartmentPower, stored.AssignedDepartment)

	history, err := s.store.History().ListByComplaint(context.Background(), complaint.ID)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestLoginThrottle(t *testing.T) {
	s := newTestServer(t, handlers.NewLoginThrottle(1, 2))
	s.account(t, "ravi", true, domain.DepartmentPower)

	for i := 0; i < 2; i++ {
		resp := s.do(t, formRequest(nethttp.MethodPost, "/authority/login/", url.Values{
			"username": {"ravi"}, "password": {"wrong"},
		}))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
	resp := s.staffLogin(t, "ravi", "")
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Nil(t, findCookie(resp, auth.AccessCookieName))
}

func TestLogoutClearsAuthorityCookies(t *testing.T) {
	s := newTestServer(t, nil)
	s.account(t, "ravi", true, domain.DepartmentPower)
	access := findCookie(s.staffLogin(t, "ravi", ""), auth.AccessCookieName)
	require.NotNil(t, access)

	resp := s.do(t, withCookie(httptest.NewRequest(nethttp.MethodGet, "/authority/logout/", nil), access))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, handlers.AuthorityLoginPath, resp.Header.Get(fiber.HeaderLocation))
	assert.Nil(t, findCookie(resp, auth.AccessCookieName))
}

func TestCitizenPortalFlow(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, formRequest(nethttp.MethodPost, "/register", url.Values{
		"username": {"asha"}, "name": {"Asha Rao"}, "password": {"pw-123456"},
	}))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	session := findCookie(resp, auth.CitizenCookieName)
	require.NotNil(t, session)
	assert.Nil(t, findCookie(resp, auth.AccessCookieName))

	resp = s.do(t, withCookie(formRequest(nethttp.MethodPost, "/submit-complaint", url.Values{
		"category": {"road"}, "title": {"Pothole"}, "description": {"Deep pothole"}, "location": {"Ring Road"},
	}), session))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, handlers.CitizenComplaintsPath, resp.Header.Get(fiber.HeaderLocation))

	resp = s.do(t, withCookie(httptest.NewRequest(nethttp.MethodGet, "/my-complaints", nil), session))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	view := decodeView(t, resp)
	assert.Equal(t, handlers.ViewCitizenComplaints, view.View)
	var data struct {
		Complaints []struct {
			Title  string `json:"title"`
			Status string `json:"status"`
		} `json:"complaints"`
	}
	require.NoError(t, json.Unmarshal(view.Data, &data))
	require.Len(t, data.Complaints, 1)
	assert.Equal(t, "Pothole", data.Complaints[0].Title)
	assert.Equal(t, "pending", data.Complaints[0].Status)

	home := s.do(t, httptest.NewRequest(nethttp.MethodGet, "/", nil))
	assert.Equal(t, fiber.StatusFound, home.StatusCode)
	assert.Equal(t, handlers.CitizenLoginPath, home.Header.Get(fiber.HeaderLocation))
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	live := s.do(t, httptest.NewRequest(nethttp.MethodGet, "/health/live", nil))
	assert.Equal(t, fiber.StatusOK, live.StatusCode)
	ready := s.do(t, httptest.NewRequest(nethttp.MethodGet, "/health/ready", nil))
	assert.Equal(t, fiber.StatusOK, ready.StatusCode)

	s.staffLogin(t, "nobody", "")
	resp := s.do(t, httptest.NewRequest(nethttp.MethodGet, "/metrics", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "authority_login_attempts_total")
	assert.Contains(t, string(body), "http_requests_total")
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, httptest.NewRequest(nethttp.MethodGet, "/nowhere/at/all", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestMetricsStayScrapableAfterFailingRequests(t *testing.T) {
	s := newTestServer(t, nil)

	for i := 0; i < 25; i++ {
		s.do(t, httptest.NewRequest(nethttp.MethodGet, fmt.Sprintf("/nowhere-%d/%s", i, strings.Repeat("z", i)), nil))
		s.do(t, httptest.NewRequest(nethttp.MethodGet, fmt.Sprintf("/authority/complaints/%d/", 1000+i), nil))
	}

	resp := s.do(t, httptest.NewRequest(nethttp.MethodGet, "/metrics", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "http_errors_total")
	assert.Contains(t, text, `path="/authority/complaints/:id"`)
	assert.Contains(t, text, `path="`+observability.UnmatchedRoute+`"`)
	assert.NotContains(t, text, "/nowhere-")
	assert.NotContains(t, text, "/authority/complaints/1000/")
}

func TestStoredRecordsSurviveLaterRequests(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, formRequest(nethttp.MethodPost, "/register", url.Values{
		"username": {"asha"}, "name": {"Asha Rao"}, "password": {"pw-123456"},
	}))
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	session := findCookie(resp, auth.CitizenCookieName)
	require.NotNil(t, session)
	resp = s.do(t, withCookie(formRequest(nethttp.MethodPost, "/submit-complaint", url.Values{
		"category": {"road"}, "title": {"Pothole"}, "description": {"Deep pothole"}, "location": {"Ring Road"},
	}), session))
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	for i := 0; i < 20; i++ {
		s.do(t, formRequest(nethttp.MethodPost, "/login", url.Values{
			"username": {strings.Repeat("q", 4+i)}, "password": {strings.Repeat("w", 12)},
		}))
	}

	ctx := context.Background()
	account, err := s.store.Accounts().GetByUsername(ctx, "asha")
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", account.Name)
	complaints, err := s.store.Complaints().ListByOwner(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, complaints, 1)
	assert.Equal(t, "Pothole", complaints[0].Title)
	assert.Equal(t, "Ring Road", complaints[0].Location)

	login := s.do(t, formRequest(nethttp.MethodPost, "/login", url.Values{
		"username": {"asha"}, "password": {"pw-123456"},
	}))
	assert.Equal(t, fiber.StatusFound, login.StatusCode)
	assert.NotNil(t, findCookie(login, auth.CitizenCookieName))
}

func TestDashboardRejectsMalformedPaging(t *testing.T) {
	s := newTestServer(t, nil)
	s.account(t, "chief", true, domain.DepartmentAdmin)
	access := findCookie(s.staffLogin(t, "chief", "/authority/dashboard/"), auth.AccessCookieName)
	require.NotNil(t, access)

	resp := s.do(t, withCookie(httptest.NewRequest(nethttp.MethodGet, "/authority/dashboard/?page=abc", nil), access))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)

	ok := s.do(t, withCookie(httptest.NewRequest(nethttp.MethodGet, "/authority/dashboard/?page=2", nil), access))
	assert.Equal(t, fiber.StatusOK, ok.StatusCode)
}

package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/last-man-standing/internal/domain/user"
	"github.com/riskibarqy/last-man-standing/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/last-man-standing/internal/platform/cache"
	"github.com/riskibarqy/last-man-standing/internal/platform/id"
	"github.com/riskibarqy/last-man-standing/internal/platform/logging"
	"github.com/riskibarqy/last-man-standing/internal/usecase"
)

var handlerTestNow = time.Date(2025, 9, 13, 12, 0, 0, 0, time.UTC)

func handlerTestClock() time.Time { return handlerTestNow }

type routerFixture struct {
	router      http.Handler
	deadlineSvc *usecase.DeadlineService
}

func newRouterFixture(t *testing.T, principal user.Principal) *routerFixture {
	t.Helper()

	teams := memory.NewTeamRepository(memory.SeedTeams())
	picks := memory.NewPickRepository()
	winners := memory.NewWinnerRepository()
	deadlines := memory.NewDeadlineRepository()

	gen := id.NewRandomGenerator()
	deadlineSvc := usecase.NewDeadlineService(deadlines, gen, 38, handlerTestClock)
	pickSvc := usecase.NewPickService(teams, picks, winners, deadlineSvc, gen, 38, handlerTestClock)
	teamSvc := usecase.NewTeamService(teams, cache.NewStore(time.Minute))
	settlementSvc := usecase.NewSettlementService(
		teams,
		winners,
		deadlines,
		pickSvc,
		deadlineSvc,
		nil,
		usecase.NewNameResolver(nil),
		gen,
		logging.NewNop(),
		usecase.SettlementOptions{
			DeadlineLead:    2 * time.Hour,
			FallbackDelay:   168 * time.Hour,
			FallbackHour:    15,
			ScheduleTimeout: time.Second,
			Workers:         2,
			MaxWeek:         38,
		},
		handlerTestClock,
	)

	handler := NewHandler(teamSvc, pickSvc, deadlineSvc, settlementSvc, logging.NewNop())
	verifier := &fakeVerifier{principal: principal}

	return &routerFixture{
		router:      NewRouter(handler, verifier, logging.NewNop(), []string{"*"}),
		deadlineSvc: deadlineSvc,
	}
}

func doRequest(t *testing.T, router http.Handler, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if authed {
		req.Header.Set("Authorization", "Bearer token-abc")
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()

	var envelope struct {
		APIVersion string `json:"apiVersion"`
		Data       any    `json:"data"`
	}
	envelope.Data = target
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if envelope.APIVersion != "2.0" {
		t.Fatalf("expected apiVersion 2.0, got %q", envelope.APIVersion)
	}
}

func TestRouter_Healthz(t *testing.T) {
	fx := newRouterFixture(t, user.Principal{UserID: "user-1"})

	rec := doRequest(t, fx.router, http.MethodGet, "/healthz", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_ListTeamsSorted(t *testing.T) {
	fx := newRouterFixture(t, user.Principal{UserID: "user-1"})

	rec := doRequest(t, fx.router, http.MethodGet, "/v1/teams", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var teams []teamDTO
	decodeData(t, rec, &teams)
	if len(teams) != 20 {
		t.Fatalf("expected 20 teams, got %d", len(teams))
	}
	if teams[0].Name != "Arsenal" {
		t.Fatalf("expected Arsenal first, got %q", teams[0].Name)
	}
}

func TestRouter_GetTeamNotFound(t *testing.T) {
	fx := newRouterFixture(t, user.Principal{UserID: "user-1"})

	rec := doRequest(t, fx.router, http.MethodGet, "/v1/teams/esp-rma", "", false)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRouter_SubmitAndListPicks(t *testing.T) {
	fx := newRouterFixture(t, user.Principal{UserID: "user-1"})
	if _, err := fx.deadlineSvc.Upsert(t.Context(), 1, handlerTestNow.Add(2*time.Hour)); err != nil {
		t.Fatalf("upsert deadline: %v", err)
	}

	rec := doRequest(t, fx.router, http.MethodPut, "/v1/picks/me/1", `{"team_id":"eng-che"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, fx.router, http.MethodGet, "/v1/picks/me", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var picks []pickDTO
	decodeData(t, rec, &picks)
	if len(picks) != 1 {
		t.Fatalf("expected one pick, got %d", len(picks))
	}
	if picks[0].TeamID != "eng-che" || picks[0].TeamName != "Chelsea" {
		t.Fatalf("unexpected pick %+v", picks[0])
	}
}

func TestRouter_SubmitRequiresAuth(t *testing.T) {
	fx := newRouterFixture(t, user.Principal{UserID: "user-1"})

	rec := doRequest(t, fx.router, http.MethodPut, "/v1/picks/me/1", `{"team_id":"eng-che"}`, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRouter_SubmitLockedWeek(t *testing.T) {
	fx := newRouterFixture(t, user.Principal{UserID: "user-1"})
	if _, err := fx.deadlineSvc.Upsert(t.Context(), 1, handlerTestNow.Add(time.Hour)); err != nil {
		t.Fatalf("upsert deadline: %v", err)
	}
	if _, err := fx.deadlineSvc.SetClosed(t.Context(), 1, true); err != nil {
		t.Fatalf("close deadline: %v", err)
	}

	rec := doRequest(t, fx.router, http.MethodPut, "/v1/picks/me/1", `{"team_id":"eng-che"}`, true)
	if rec.Code != http.StatusLocked {
		t.Fatalf("expected 423, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRouter_SubmitRejectsInvalidBody(t *testing.T) {
	fx := newRouterFixture(t, user.Principal{UserID: "user-1"})

	rec := doRequest(t, fx.router, http.MethodPut, "/v1/picks/me/1", `{"team":"eng-che"}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = doRequest(t, fx.router, http.MethodPut, "/v1/picks/me/abc", `{"team_id":"eng-che"}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric week, got %d", rec.Code)
	}
}

func TestRouter_AdminRoutesRejectNonAdmin(t *testing.T) {
	fx := newRouterFixture(t, user.Principal{UserID: "user-1"})

	rec := doRequest(t, fx.router, http.MethodPost, "/v1/admin/weeks/1/settle", `{"team_ids":["eng-che"]}`, true)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRouter_AdminSettleWeek(t *testing.T) {
	fx := newRouterFixture(t, user.Principal{UserID: "admin-1", IsAdmin: true})
	if _, err := fx.deadlineSvc.Upsert(t.Context(), 1, handlerTestNow.Add(2*time.Hour)); err != nil {
		t.Fatalf("upsert deadline: %v", err)
	}

	rec := doRequest(t, fx.router, http.MethodPut, "/v1/picks/me/1", `{"team_id":"eng-che"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit pick: expected 200, got %d", rec.Code)
	}

	rec = doRequest(t, fx.router, http.MethodPost, "/v1/admin/weeks/1/settle", `{"team_ids":["eng-che"]}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	var result settlementResultDTO
	decodeData(t, rec, &result)
	if result.Week != 1 || result.NextWeek != 2 {
		t.Fatalf("unexpected settlement result %+v", result)
	}
	if len(result.Winners) != 1 || result.Winners[0] != "eng-che" {
		t.Fatalf("unexpected winners %v", result.Winners)
	}
	if result.Participants != 1 {
		t.Fatalf("expected one participant, got %d", result.Participants)
	}
	if result.NextDeadline == nil {
		t.Fatal("expected next deadline to be opened")
	}
}

func TestRouter_AdminDeclareWinnersRejectsEmpty(t *testing.T) {
	fx := newRouterFixture(t, user.Principal{UserID: "admin-1", IsAdmin: true})

	rec := doRequest(t, fx.router, http.MethodPost, "/v1/admin/winners/1", `{"team_ids":[]}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRouter_DeadlineViewExposesGate(t *testing.T) {
	fx := newRouterFixture(t, user.Principal{UserID: "user-1"})
	if _, err := fx.deadlineSvc.Upsert(t.Context(), 3, handlerTestNow.Add(30*time.Minute)); err != nil {
		t.Fatalf("upsert deadline: %v", err)
	}

	rec := doRequest(t, fx.router, http.MethodGet, "/v1/deadlines/3", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var view deadlineViewDTO
	decodeData(t, rec, &view)
	if view.Gate.State != usecase.DeadlineStateUrgent {
		t.Fatalf("expected urgent gate, got %q", view.Gate.State)
	}
	if view.Gate.Locked {
		t.Fatal("expected unlocked gate")
	}
	if view.Deadline == nil {
		t.Fatal("expected deadline payload")
	}
}

func TestRouter_ListPicksAssignsOpenWeek(t *testing.T) {
	fx := newRouterFixture(t, user.Principal{UserID: "user-1"})
	if _, err := fx.deadlineSvc.Upsert(t.Context(), 1, handlerTestNow.Add(2*time.Hour)); err != nil {
		t.Fatalf("upsert deadline: %v", err)
	}

	rec := doRequest(t, fx.router, http.MethodGet, "/v1/picks/me", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	var picks []pickDTO
	decodeData(t, rec, &picks)
	if len(picks) != 1 {
		t.Fatalf("expected the open week to be assigned on view, got %d picks", len(picks))
	}
	if !picks[0].AutoAssigned || picks[0].Week != 1 || picks[0].TeamID != "eng-ars" {
		t.Fatalf("unexpected assigned pick %+v", picks[0])
	}
}

func TestRouter_PickHistoryHidesOpenWeeks(t *testing.T) {
	fx := newRouterFixture(t, user.Principal{UserID: "user-1"})
	if _, err := fx.deadlineSvc.Upsert(t.Context(), 1, handlerTestNow.Add(time.Hour)); err != nil {
		t.Fatalf("upsert deadline: %v", err)
	}

	rec := doRequest(t, fx.router, http.MethodPut, "/v1/picks/me/1", `{"team_id":"eng-che"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit week 1: expected 200, got %d", rec.Code)
	}
	if _, err := fx.deadlineSvc.SetClosed(t.Context(), 1, true); err != nil {
		t.Fatalf("close week 1: %v", err)
	}
	if _, err := fx.deadlineSvc.Upsert(t.Context(), 2, handlerTestNow.Add(48*time.Hour)); err != nil {
		t.Fatalf("upsert week 2 deadline: %v", err)
	}
	rec = doRequest(t, fx.router, http.MethodPut, "/v1/picks/me/2", `{"team_id":"eng-ars"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit week 2: expected 200, got %d", rec.Code)
	}

	rec = doRequest(t, fx.router, http.MethodGet, "/v1/picks/history", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	var histories []participantHistoryDTO
	decodeData(t, rec, &histories)
	if len(histories) != 1 {
		t.Fatalf("expected one participant, got %d", len(histories))
	}
	if len(histories[0].Picks) != 1 || histories[0].Picks[0].Week != 1 {
		t.Fatalf("open week leaked to players: %+v", histories[0].Picks)
	}
}

func TestRouter_PickHistoryShowsOpenWeeksToAdmins(t *testing.T) {
	fx := newRouterFixture(t, user.Principal{UserID: "admin-1", IsAdmin: true})
	if _, err := fx.deadlineSvc.Upsert(t.Context(), 1, handlerTestNow.Add(time.Hour)); err != nil {
		t.Fatalf("upsert deadline: %v", err)
	}

	rec := doRequest(t, fx.router, http.MethodPut, "/v1/picks/me/1", `{"team_id":"eng-che"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit week 1: expected 200, got %d", rec.Code)
	}

	rec = doRequest(t, fx.router, http.MethodGet, "/v1/picks/history", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	var histories []participantHistoryDTO
	decodeData(t, rec, &histories)
	if len(histories) != 1 || len(histories[0].Picks) != 1 {
		t.Fatalf("admin view must include open weeks: %+v", histories)
	}
}

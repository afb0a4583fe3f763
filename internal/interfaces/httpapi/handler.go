package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/last-man-standing/internal/domain/deadline"
	"github.com/riskibarqy/last-man-standing/internal/domain/pick"
	"github.com/riskibarqy/last-man-standing/internal/domain/team"
	"github.com/riskibarqy/last-man-standing/internal/platform/logging"
	"github.com/riskibarqy/last-man-standing/internal/usecase"
)

type Handler struct {
	teamService       *usecase.TeamService
	pickService       *usecase.PickService
	deadlineService   *usecase.DeadlineService
	settlementService *usecase.SettlementService
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(
	teamService *usecase.TeamService,
	pickService *usecase.PickService,
	deadlineService *usecase.DeadlineService,
	settlementService *usecase.SettlementService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		teamService:       teamService,
		pickService:       pickService,
		deadlineService:   deadlineService,
		settlementService: settlementService,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	teams, err := h.teamService.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list teams failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]teamDTO, 0, len(teams))
	for _, item := range teams {
		items = append(items, teamToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeam")
	defer span.End()

	item, err := h.teamService.Get(ctx, r.PathValue("teamID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamToDTO(item))
}

func (h *Handler) ListDeadlines(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListDeadlines")
	defer span.End()

	views, err := h.deadlineService.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list deadlines failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]deadlineViewDTO, 0, len(views))
	for _, view := range views {
		items = append(items, deadlineViewToDTO(view))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetCurrentDeadline(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCurrentDeadline")
	defer span.End()

	week, err := h.deadlineService.CurrentWeek(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	view, err := h.deadlineService.ViewForWeek(ctx, week)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, deadlineViewToDTO(view))
}

func (h *Handler) GetDeadline(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetDeadline")
	defer span.End()

	week, err := parseWeekPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	view, err := h.deadlineService.ViewForWeek(ctx, week)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, deadlineViewToDTO(view))
}

func (h *Handler) ListMyPicks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyPicks")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	// Viewing picks assigns one for the open week when none was chosen yet.
	// An exhausted catalog still serves history; there is nothing left to
	// assign for that participant.
	if _, _, err := h.pickService.EnsureCurrentPick(ctx, principal.UserID); err != nil {
		if !errors.Is(err, usecase.ErrCatalogExhausted) {
			h.logger.ErrorContext(ctx, "ensure current pick failed", "participant_id", principal.UserID, "error", err)
			writeError(ctx, w, err)
			return
		}
	}

	views, err := h.pickService.History(ctx, principal.UserID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list picks failed", "participant_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]pickDTO, 0, len(views))
	for _, view := range views {
		items = append(items, pickViewToDTO(view))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

// ListPickHistory shows every participant's picks for already-locked weeks.
// Admins see open weeks too.
func (h *Handler) ListPickHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPickHistory")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	histories, err := h.pickService.SharedHistory(ctx, principal.IsAdmin)
	if err != nil {
		h.logger.ErrorContext(ctx, "list pick history failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, historiesToDTO(histories))
}

func (h *Handler) SubmitMyPick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitMyPick")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	week, err := parseWeekPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req submitPickRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	submitted, err := h.pickService.Submit(ctx, principal.UserID, week, req.TeamID)
	if err != nil {
		h.logger.WarnContext(ctx, "submit pick failed",
			"participant_id", principal.UserID,
			"week", week,
			"team_id", req.TeamID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, pickToDTO(submitted, team.Team{ID: submitted.TeamID}))
}

func (h *Handler) GetMyStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMyStatus")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	status, err := h.pickService.Status(ctx, principal.UserID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, statusToDTO(status))
}

func (h *Handler) ListStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListStandings")
	defer span.End()

	standings, err := h.pickService.Standings(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list standings failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]participantStatusDTO, 0, len(standings))
	for _, status := range standings {
		items = append(items, statusToDTO(status))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func decodeJSONBody(r *http.Request, target any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func parseWeekPath(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.PathValue("week"))
	week, err := strconv.Atoi(raw)
	if err != nil || week < 1 {
		return 0, fmt.Errorf("%w: week must be a positive integer, got %q", usecase.ErrInvalidInput, raw)
	}

	return week, nil
}

type submitPickRequest struct {
	TeamID string `json:"team_id" validate:"required"`
}

type teamDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Short string `json:"short"`
}

type deadlineDTO struct {
	Week     int       `json:"week"`
	Time     time.Time `json:"time"`
	IsClosed bool      `json:"is_closed"`
}

type gateDTO struct {
	Locked           bool   `json:"locked"`
	State            string `json:"state"`
	RemainingSeconds int64  `json:"remaining_seconds"`
}

type deadlineViewDTO struct {
	Week     int          `json:"week"`
	Deadline *deadlineDTO `json:"deadline,omitempty"`
	Gate     gateDTO      `json:"gate"`
}

type pickDTO struct {
	Week         int    `json:"week"`
	TeamID       string `json:"team_id"`
	TeamName     string `json:"team_name,omitempty"`
	AutoAssigned bool   `json:"auto_assigned"`
}

type participantStatusDTO struct {
	ParticipantID  string `json:"participant_id"`
	AsOfWeek       int    `json:"as_of_week"`
	Eliminated     bool   `json:"eliminated"`
	EliminatedWeek int    `json:"eliminated_week,omitempty"`
	Reason         string `json:"reason,omitempty"`
	TeamID         string `json:"team_id,omitempty"`
	TeamName       string `json:"team_name,omitempty"`
}

func teamToDTO(item team.Team) teamDTO {
	return teamDTO{ID: item.ID, Name: item.Name, Short: item.Short}
}

func deadlineToDTO(item deadline.Deadline) *deadlineDTO {
	return &deadlineDTO{
		Week:     item.Week,
		Time:     item.Time,
		IsClosed: item.IsClosed,
	}
}

func deadlineViewToDTO(view usecase.DeadlineView) deadlineViewDTO {
	out := deadlineViewDTO{
		Week: view.Week,
		Gate: gateDTO{
			Locked:           view.Gate.Locked,
			State:            view.Gate.State,
			RemainingSeconds: int64(view.Gate.Remaining / time.Second),
		},
	}
	if view.Exists {
		out.Deadline = deadlineToDTO(view.Deadline)
	}

	return out
}

func pickViewToDTO(view usecase.PickView) pickDTO {
	return pickToDTO(view.Pick, view.Team)
}

func pickToDTO(item pick.Pick, teamItem team.Team) pickDTO {
	return pickDTO{
		Week:         item.Week,
		TeamID:       item.TeamID,
		TeamName:     teamItem.Name,
		AutoAssigned: item.AutoAssigned,
	}
}

func statusToDTO(status usecase.ParticipantStatus) participantStatusDTO {
	return participantStatusDTO{
		ParticipantID:  status.ParticipantID,
		AsOfWeek:       status.AsOfWeek,
		Eliminated:     status.Status.Eliminated,
		EliminatedWeek: status.Status.EliminatedWeek,
		Reason:         status.Status.Reason,
		TeamID:         status.Status.TeamID,
		TeamName:       status.TeamName,
	}
}

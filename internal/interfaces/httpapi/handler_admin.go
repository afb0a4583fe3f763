package httpapi

import (
	"net/http"
	"time"

	"github.com/riskibarqy/last-man-standing/internal/domain/winner"
	"github.com/riskibarqy/last-man-standing/internal/usecase"
)

func (h *Handler) ListAllPicks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListAllPicks")
	defer span.End()

	histories, err := h.pickService.AllHistory(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list all picks failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, historiesToDTO(histories))
}

func historiesToDTO(histories []usecase.ParticipantHistory) []participantHistoryDTO {
	items := make([]participantHistoryDTO, 0, len(histories))
	for _, history := range histories {
		picks := make([]pickDTO, 0, len(history.Picks))
		for _, view := range history.Picks {
			picks = append(picks, pickViewToDTO(view))
		}
		items = append(items, participantHistoryDTO{
			ParticipantID: history.ParticipantID,
			Picks:         picks,
		})
	}

	return items
}

func (h *Handler) UpsertDeadline(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpsertDeadline")
	defer span.End()

	week, err := parseWeekPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req upsertDeadlineRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.deadlineService.Upsert(ctx, week, req.Time)
	if err != nil {
		h.logger.WarnContext(ctx, "upsert deadline failed", "week", week, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, deadlineToDTO(item))
}

func (h *Handler) SetDeadlineClosed(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetDeadlineClosed")
	defer span.End()

	week, err := parseWeekPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req setClosedRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.deadlineService.SetClosed(ctx, week, req.Closed)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, deadlineToDTO(item))
}

func (h *Handler) ListWinners(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListWinners")
	defer span.End()

	week, err := parseWeekPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	winners, err := h.settlementService.ListWinners(ctx, week)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, winnersToDTO(week, winners))
}

func (h *Handler) DeclareWinners(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeclareWinners")
	defer span.End()

	week, err := parseWeekPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req declareWinnersRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	winners, err := h.settlementService.DeclareWinners(ctx, week, req.TeamIDs)
	if err != nil {
		h.logger.WarnContext(ctx, "declare winners failed", "week", week, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, winnersToDTO(week, winners))
}

func (h *Handler) ToggleWinner(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ToggleWinner")
	defer span.End()

	week, err := parseWeekPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req toggleWinnerRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	nowWinner, err := h.settlementService.ToggleWinner(ctx, week, req.TeamID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, toggleWinnerDTO{
		Week:   week,
		TeamID: req.TeamID,
		Winner: nowWinner,
	})
}

func (h *Handler) PrefillWinners(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PrefillWinners")
	defer span.End()

	week, err := parseWeekPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	prefill, err := h.settlementService.PrefillWinners(ctx, week)
	if err != nil {
		h.logger.WarnContext(ctx, "prefill winners failed", "week", week, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, winnerPrefillDTO{
		Week:      prefill.Week,
		TeamIDs:   prefill.TeamIDs,
		Unmatched: prefill.Unmatched,
	})
}

func (h *Handler) SettleWeek(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SettleWeek")
	defer span.End()

	week, err := parseWeekPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req declareWinnersRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.settlementService.Settle(ctx, week, req.TeamIDs)
	if err != nil {
		h.logger.ErrorContext(ctx, "settle week failed", "week", week, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, settlementResultToDTO(result))
}

func (h *Handler) ResetCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResetCompetition")
	defer span.End()

	var req resetRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.settlementService.Reset(ctx, req.StartWeek)
	if err != nil {
		h.logger.WarnContext(ctx, "reset failed", "start_week", req.StartWeek, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, resetResultDTO{
		StartWeek:      result.StartWeek,
		Deadline:       deadlineToDTO(result.Deadline),
		DeadlineSource: result.DeadlineSource,
	})
}

type upsertDeadlineRequest struct {
	Time time.Time `json:"time" validate:"required"`
}

type setClosedRequest struct {
	Closed bool `json:"closed"`
}

type declareWinnersRequest struct {
	TeamIDs []string `json:"team_ids" validate:"required,min=1,dive,required"`
}

type toggleWinnerRequest struct {
	TeamID string `json:"team_id" validate:"required"`
}

type resetRequest struct {
	StartWeek int `json:"start_week" validate:"required,min=1"`
}

type participantHistoryDTO struct {
	ParticipantID string    `json:"participant_id"`
	Picks         []pickDTO `json:"picks"`
}

type weekWinnersDTO struct {
	Week    int      `json:"week"`
	TeamIDs []string `json:"team_ids"`
}

type toggleWinnerDTO struct {
	Week   int    `json:"week"`
	TeamID string `json:"team_id"`
	Winner bool   `json:"winner"`
}

type winnerPrefillDTO struct {
	Week      int      `json:"week"`
	TeamIDs   []string `json:"team_ids"`
	Unmatched []string `json:"unmatched,omitempty"`
}

type settlementResultDTO struct {
	Week           int          `json:"week"`
	Winners        []string     `json:"winners"`
	Participants   int          `json:"participants"`
	MissedPicks    int          `json:"missed_picks"`
	Eliminated     int          `json:"eliminated"`
	NextWeek       int          `json:"next_week"`
	NextDeadline   *deadlineDTO `json:"next_deadline,omitempty"`
	DeadlineSource string       `json:"deadline_source,omitempty"`
}

type resetResultDTO struct {
	StartWeek      int          `json:"start_week"`
	Deadline       *deadlineDTO `json:"deadline"`
	DeadlineSource string       `json:"deadline_source"`
}

func winnersToDTO(week int, winners []winner.WeeklyWinner) weekWinnersDTO {
	teamIDs := make([]string, 0, len(winners))
	for _, item := range winners {
		teamIDs = append(teamIDs, item.TeamID)
	}

	return weekWinnersDTO{Week: week, TeamIDs: teamIDs}
}

func settlementResultToDTO(result usecase.SettlementResult) settlementResultDTO {
	out := settlementResultDTO{
		Week:           result.Week,
		Winners:        winnersToDTO(result.Week, result.Winners).TeamIDs,
		Participants:   result.Participants,
		MissedPicks:    result.MissedPicks,
		Eliminated:     result.Eliminated,
		NextWeek:       result.NextWeek,
		DeadlineSource: result.DeadlineSource,
	}
	if result.NextDeadlineExists {
		out.NextDeadline = deadlineToDTO(result.NextDeadline)
	}

	return out
}

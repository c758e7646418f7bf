package api

import (
	"net/http"

	"github.com/Freeeeeet/mealmate/internal/model"
	"github.com/Freeeeeet/mealmate/internal/service"
	"github.com/Freeeeeet/mealmate/internal/timeslot"
)

type matchRequestBody struct {
	RequesterID        flexID `json:"requester_id"`
	MealType           string `json:"meal_type"`
	RequestDate        string `json:"request_date"`
	PreferredTimeStart string `json:"preferred_time_start"`
	PreferredTimeEnd   string `json:"preferred_time_end"`
	PreferredLocation  string `json:"preferred_location"`
	Message            string `json:"message"`
}

type createdMatch struct {
	MatchID   int64             `json:"match_id"`
	Status    model.MatchStatus `json:"status"`
	MealType  model.MealType    `json:"meal_type"`
	MealDate  timeslot.Date     `json:"meal_date"`
	MealTime  timeslot.Clock    `json:"meal_time"`
	Location  string            `json:"location"`
	User1ID   int64             `json:"user1_id"`
	User2ID   int64             `json:"user2_id"`
	Candidate model.Contact     `json:"candidate"`
}

type matchRequestResponse struct {
	RequestID int64          `json:"request_id"`
	Matches   []createdMatch `json:"matches"`
}

// HandleCreateMatchRequest records a meal request and returns the matches
// made for it. An empty list is a normal outcome.
func (h *Handlers) HandleCreateMatchRequest(w http.ResponseWriter, r *http.Request) {
	var body matchRequestBody
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.matchService.SubmitRequest(r.Context(), service.SubmitRequestInput{
		RequesterID:        int64(body.RequesterID),
		MealType:           body.MealType,
		RequestDate:        body.RequestDate,
		PreferredTimeStart: body.PreferredTimeStart,
		PreferredTimeEnd:   body.PreferredTimeEnd,
		PreferredLocation:  body.PreferredLocation,
		Message:            body.Message,
	})
	if err != nil {
		h.writeServiceError(w, r, err, "requester not found", "Failed to create match request")
		return
	}

	resp := matchRequestResponse{
		RequestID: res.Request.ID,
		Matches:   make([]createdMatch, 0, len(res.Matches)),
	}
	for _, m := range res.Matches {
		resp.Matches = append(resp.Matches, createdMatch{
			MatchID:   m.ID,
			Status:    m.Status,
			MealType:  m.MealType,
			MealDate:  m.MealDate,
			MealTime:  m.MealTime,
			Location:  m.Location,
			User1ID:   m.User1ID,
			User2ID:   m.User2ID,
			Candidate: m.Candidate,
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleListMatches returns every match the user takes part in.
func (h *Handlers) HandleListMatches(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	matches, err := h.matchService.ListForUser(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err, "user not found", "Failed to fetch matches")
		return
	}

	h.writeJSON(w, http.StatusOK, matches)
}

type statusBody struct {
	Status string `json:"status"`
}

// HandleUpdateMatchStatus confirms or cancels a match.
func (h *Handlers) HandleUpdateMatchStatus(w http.ResponseWriter, r *http.Request) {
	matchID, err := pathID(r, "matchId")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body statusBody
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.matchService.SetStatus(r.Context(), matchID, body.Status); err != nil {
		h.writeServiceError(w, r, err, "match not found", "Failed to update match")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

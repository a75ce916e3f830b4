package routehandlers

import (
	"encoding/json"
	"net/http"

	"github.com/coreybb/dailybrief/processing"
	"github.com/coreybb/dailybrief/webutil"
)

type ProcessHandler struct {
	Processor *processing.CommandProcessor
}

func NewProcessHandler(processor *processing.CommandProcessor) *ProcessHandler {
	return &ProcessHandler{Processor: processor}
}

// HandleProcess accepts one free-text command from a subscriber and returns
// the interpreter's response. Malformed requests are client errors; a store
// failure surfaces as an internal error with the record untouched.
func (h *ProcessHandler) HandleProcess(w http.ResponseWriter, r *http.Request) error {
	var requestData struct {
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestData); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	if requestData.Message == "" {
		return webutil.ErrBadRequest("Message is required")
	}

	result, err := h.Processor.Process(r.Context(), requestData.Email, requestData.Message)
	if err != nil {
		return webutil.ErrInternalServerWrap("Sorry, something went wrong on our end. Please try again.", err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, result)
	return nil
}

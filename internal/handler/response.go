package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// envelope is the transport-level response shape. Status 0 is success,
// -1 a rejected operation, 401 an authentication failure; the engine's
// internal status codes are translated here and never leak to clients.
type envelope struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
	Data   any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, httpStatus int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(env)
}

// writeOK writes a success envelope.
func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Status: 0, Msg: "OK", Data: data})
}

// writeFail writes a rejected-operation envelope. Rejections are part
// of the scripted protocol, so the HTTP status stays 200.
func writeFail(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, envelope{Status: -1, Msg: msg})
}

// writeUnauthorized writes an authentication-failure envelope.
func writeUnauthorized(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusUnauthorized, envelope{Status: 401, Msg: msg})
}

// parseJSON decodes the request body as JSON into v. An empty body
// leaves v untouched.
func parseJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return errors.New("request body must be valid JSON")
	}
	return nil
}

package respond

import (
	"encoding/json"
	"net/http"
)

type payload struct {
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func write(w http.ResponseWriter, status int, p payload) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(p)
}

func OK(w http.ResponseWriter, result interface{}) {
	write(w, http.StatusOK, payload{Result: result})
}

func Created(w http.ResponseWriter, result interface{}) {
	write(w, http.StatusCreated, payload{Result: result})
}

func Fail(w http.ResponseWriter, status int, err error) {
	write(w, status, payload{Error: err.Error()})
}

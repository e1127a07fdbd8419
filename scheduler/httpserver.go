package scheduler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// NewStatusHandler serves the operational read-only view of the
// scheduler: a health check and a snapshot of connection state, counters
// and tracked tasks.
func NewStatusHandler(state *State) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/healthcheck", healthCheckHandler).Methods("GET")
	router.HandleFunc("/get-current-state", currentStateHandler(state)).Methods("GET")
	return router
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(200)
	if _, err := w.Write([]byte("OK")); err != nil {
		log.Printf("Error writing healthcheck %v\n", err)
	}
}

func currentStateHandler(state *State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		outBytes, err := json.Marshal(state.Snapshot())
		if err != nil {
			log.Warning("Unable to serialize JSON response: ", err)
			w.WriteHeader(500)
			return
		}
		w.Header().Add("Content-Type", "application/json")
		if _, err = w.Write(outBytes); err != nil {
			log.Printf("Error writing state response %v\n", err)
		}
	}
}

package httputil

import (
	"encoding/json"
	"fmt"
	"html"
	"log"
	"net/http"

	api_models "github.com/omgcreativity/laojia/internal/models"
)

// RespondJSON writes a JSON response with the given status code and payload.
func RespondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		log.Printf("Error encoding JSON response: %v", err)
		// Can't write header again here, just log the error
	}
}

// RespondError writes a JSON error response with the given status code and message.
func RespondError(w http.ResponseWriter, statusCode int, message string) {
	resp := api_models.ErrorResponse{Error: message}
	RespondJSON(w, statusCode, resp)
}

// RespondBridgePage writes an HTML page whose body text carries the payload
// between BRIDGE_DATA: and :END delimiters. The relay worker scrapes the
// RENDERED body text, so the payload is HTML-escaped here: a literal < or
// </pre> inside a message must not break the page, and the entities render
// back to the original characters.
func RespondBridgePage(w http.ResponseWriter, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error encoding bridge payload: %v", err)
		RespondPlainPage(w, "internal error")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "<html><body><pre>BRIDGE_DATA:%s:END</pre></body></html>", html.EscapeString(string(data)))
}

// RespondPlainPage writes an HTML page with NO bridge marker. The absence of
// the marker is itself the "not ready / wrong state" signal to the worker.
func RespondPlainPage(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "<html><body><pre>%s</pre></body></html>", html.EscapeString(text))
}

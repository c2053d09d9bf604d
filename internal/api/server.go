// Package api exposes the protocol engine over HTTP.
package api

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/arbilina/lumi-agent-engine/internal/domain"
	"github.com/arbilina/lumi-agent-engine/internal/engine"
	"github.com/arbilina/lumi-agent-engine/internal/intake"
	"github.com/arbilina/lumi-agent-engine/internal/store"
)

// Server handles HTTP requests for the protocol API
type Server struct {
	store      *store.Store
	engine     *engine.Engine
	normalizer *intake.Normalizer
	addr       string
	log        *zap.Logger
}

// New creates a new API server
func New(s *store.Store, eng *engine.Engine, n *intake.Normalizer, addr string, log *zap.Logger) *Server {
	return &Server{store: s, engine: eng, normalizer: n, addr: addr, log: log}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	s.log.Info("starting server", zap.String("addr", s.addr))
	return http.ListenAndServe(s.addr, s.routes())
}

// routes builds the handler tree; split out from Run for tests
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.welcome)
	mux.HandleFunc("POST /api/get-protocol", s.getProtocol)
	mux.HandleFunc("GET /protocol/{userID}", s.protocolPage)
	mux.HandleFunc("POST /file-upload-test", s.fileUploadTest)
	mux.HandleFunc("GET /health", s.health)

	return withCORS(s.withRecover(mux))
}

// withCORS adds CORS headers for frontend development
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

// withRecover converts panics during rule evaluation into a generic
// 500 so a single bad request cannot take the process down
func (s *Server) withRecover(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("panic in handler",
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
				)
				writeError(w, http.StatusInternalServerError, "An internal server error occurred.")
			}
		}()
		h.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) welcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "Hello, I'm Lumi's Agentic Backend! The API is running correctly.")
}

// lifestyleOverlay carries optional structured lifestyle fields
type lifestyleOverlay struct {
	SleepQuality string `json:"sleep_quality,omitempty"`
	StressLevel  *int   `json:"stress_level,omitempty"`
}

// ProtocolRequest is the body for POST /api/get-protocol. Intake text
// may arrive in one of three shapes, tried in order: the preferred
// full_intake_text/goals_text pair, the legacy user_intake/q7_results
// pair, or the concatenation of the labeled short-answer fields.
// Structured fields, when present, overlay the parsed record.
type ProtocolRequest struct {
	UserID string `json:"user_id,omitempty"`

	FullIntakeText string `json:"full_intake_text,omitempty"`
	GoalsText      string `json:"goals_text,omitempty"`

	UserIntake string `json:"user_intake,omitempty"`
	Q7Results  string `json:"q7_results,omitempty"`

	Q1       string `json:"q1,omitempty"`
	Q2Health string `json:"q2_health,omitempty"`
	Q3Weight string `json:"q3_weight,omitempty"`
	Q4Skin   string `json:"q4_skin,omitempty"`
	Q5Stress string `json:"q5_stress,omitempty"`
	Q6Meds   string `json:"q6_meds,omitempty"`

	Medications    []string          `json:"medications,omitempty"`
	Conditions     []string          `json:"conditions,omitempty"`
	DietNotes      string            `json:"diet_notes,omitempty"`
	Movement       string            `json:"movement,omitempty"`
	MenopauseStage string            `json:"menopause_stage,omitempty"`
	Lifestyle      *lifestyleOverlay `json:"lifestyle,omitempty"`

	TestData string `json:"test_data,omitempty"`
}

// intakeText resolves the three accepted input shapes in order
func (req *ProtocolRequest) intakeText() (text, goals string) {
	text = req.FullIntakeText
	goals = req.GoalsText

	if text == "" {
		text = req.UserIntake
	}
	if goals == "" {
		goals = req.Q7Results
	}

	if text == "" {
		var parts []string
		for _, q := range []string{req.Q1, req.Q2Health, req.Q3Weight, req.Q4Skin, req.Q5Stress, req.Q6Meds} {
			if q != "" {
				parts = append(parts, q)
			}
		}
		text = strings.Join(parts, " ")
	}

	return text, goals
}

func (s *Server) getProtocol(w http.ResponseWriter, r *http.Request) {
	var req ProtocolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	text, goals := req.intakeText()
	if text == "" {
		writeError(w, http.StatusBadRequest,
			"No intake text provided. Please send full_intake_text, user_intake, or q1..q6.")
		return
	}

	rec := s.normalizer.Normalize(text, goals)

	rec.UserID = req.UserID
	if rec.UserID == "" {
		rec.UserID = domain.AnonUserID
	}
	rec.TestData = req.TestData

	// Structured overlays take precedence over parsed text.
	if len(req.Medications) > 0 {
		rec.Medications = req.Medications
	}
	if len(req.Conditions) > 0 {
		rec.Conditions = req.Conditions
	}
	if req.DietNotes != "" {
		rec.DietNotes = req.DietNotes
	}
	if req.Movement != "" {
		rec.Movement = req.Movement
	}
	if req.MenopauseStage != "" {
		rec.MenopauseStage = domain.MenopauseStage(req.MenopauseStage)
	}
	if req.Lifestyle != nil {
		if req.Lifestyle.SleepQuality != "" {
			rec.Lifestyle.SleepQuality = domain.SleepQuality(req.Lifestyle.SleepQuality)
		}
		if req.Lifestyle.StressLevel != nil {
			rec.Lifestyle.StressLevel = *req.Lifestyle.StressLevel
		}
	}

	protocol := s.engine.BuildProtocol(r.Context(), rec)

	writeJSON(w, http.StatusOK, protocol)
}

// FileUploadRequest is the placeholder upload-confirmation body
type FileUploadRequest struct {
	FileURL  string `json:"file_url,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

func (s *Server) fileUploadTest(w http.ResponseWriter, r *http.Request) {
	var req FileUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FileURL == "" {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "warning",
			"message": "File upload test received data, but key fields were missing. Expected: file_url, file_name.",
		})
		return
	}

	name := req.FileName
	if name == "" {
		name = "N/A"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":        "success",
		"message":       "File upload confirmed! Data received from Voiceflow.",
		"received_file": name,
	})
}

var protocolPageTmpl = template.Must(template.New("protocol").Parse(`<html>
    <head><title>Lumi Protocol Dashboard</title></head>
    <body style="font-family: sans-serif; padding: 20px;">
        <h1>Lumi Protocol for User ID: {{.UserID}}</h1>
{{if .Saved}}        <p style="color: green; font-weight: bold;">&#9989; Success! Your data has been securely saved.</p>
{{else}}        <p>No saved protocol found for this ID yet.</p>
{{end}}        <p>The full personalised dashboard experience is part of the V1 roadmap.</p>
        <p>For now, you can view your complete recommendations directly in the chat.</p>
    </body>
</html>
`))

// protocolPage serves the placeholder dashboard page linked from every
// generated protocol
func (s *Server) protocolPage(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	saved, err := s.store.HasProtocol(userID)
	if err != nil {
		s.log.Warn("dashboard lookup failed", zap.String("user_id", userID), zap.Error(err))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	protocolPageTmpl.Execute(w, struct {
		UserID string
		Saved  bool
	}{UserID: userID, Saved: saved})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/integrail/pagegen/pkg/client/dto"
	"github.com/integrail/pagegen/pkg/llm"
	"github.com/integrail/pagegen/pkg/metrics"
	"github.com/integrail/pagegen/pkg/relay"
)

const maxRequestBody = 1 << 20

// GenerateHandler handles POST /generate-landing-page.
func GenerateHandler(svc relay.Service, m *metrics.Metrics, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := chiMiddleware.GetReqID(r.Context())

		var req dto.GenerationRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
			genErr := llm.NewError(llm.KindInvalidRequest, err, "invalid request body: %s", err.Error())
			m.ObserveGeneration(string(genErr.Kind), time.Since(start), 0)
			log.Warn().Str("request_id", reqID).Str("kind", string(genErr.Kind)).Msg(genErr.Message)
			writeError(w, log, genErr)
			return
		}

		html, err := svc.Generate(r.Context(), req.Prompt)
		if err != nil {
			genErr := llm.AsError(err)
			m.ObserveGeneration(string(genErr.Kind), time.Since(start), 0)
			event := log.Error()
			if genErr.Kind.ClientError() {
				event = log.Warn()
			}
			event.Str("request_id", reqID).Str("kind", string(genErr.Kind)).Msg(genErr.Message)
			writeError(w, log, genErr)
			return
		}

		m.ObserveGeneration(metrics.OutcomeOK, time.Since(start), len(html))
		log.Info().Str("request_id", reqID).Int("htmlChars", len(html)).Dur("took", time.Since(start)).Msg("landing page generated")
		writeJSON(w, log, http.StatusOK, dto.GenerationResult{HTMLContent: html})
	}
}

// HealthHandler handles GET /healthz.
func HealthHandler(log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, log, http.StatusOK, dto.HealthResponse{Status: "ok"})
	}
}

func statusFor(kind llm.Kind) int {
	if kind.ClientError() {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, log zerolog.Logger, genErr *llm.Error) {
	writeJSON(w, log, statusFor(genErr.Kind), dto.ErrorResponse{
		Detail: genErr.Message,
		Kind:   string(genErr.Kind),
	})
}

func writeJSON(w http.ResponseWriter, log zerolog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

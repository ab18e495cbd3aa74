// Package api serves the operational HTTP endpoints of the bot.
package api

import (
	"context"
	"court-booking-bot/booking"
	"court-booking-bot/jobs"
	"encoding/json"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"net/http"
	"strconv"
	"time"
)

type Scheduler interface {
	Schedule(ctx context.Context, courtId, threadId int64) (string, error)
}

type JobRunner interface {
	Run(ctx context.Context, name string, now time.Time) (jobs.BatchResult, error)
}

type Handler struct {
	schedules Scheduler
	runner    JobRunner
	now       func() time.Time
}

type outcome struct {
	CourtId  int64  `json:"court_id"`
	ThreadId int64  `json:"thread_id"`
	Error    string `json:"error,omitempty"`
}

type jobResponse struct {
	Job      string    `json:"job"`
	Items    int       `json:"items"`
	Failed   []outcome `json:"failed"`
	Error    string    `json:"error,omitempty"`
	Finished time.Time `json:"finished"`
}

func NewHandler(schedules Scheduler, runner JobRunner) *Handler {
	return &Handler{schedules: schedules, runner: runner, now: time.Now}
}

func (h *Handler) Router() *mux.Router {
	router := mux.NewRouter()
	router.Methods(http.MethodGet).Path("/healthz").HandlerFunc(h.health)
	router.Methods(http.MethodGet).
		Path("/courts/{court:-?[0-9]+}/threads/{thread:[0-9]+}/schedule").
		HandlerFunc(h.schedule)
	router.Methods(http.MethodPost).Path("/jobs/{name}").HandlerFunc(h.runJob)
	return router
}

func (h *Handler) health(writer http.ResponseWriter, _ *http.Request) {
	writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = writer.Write([]byte("ok"))
}

func (h *Handler) schedule(writer http.ResponseWriter, request *http.Request) {
	vars := mux.Vars(request)
	courtId, err := strconv.ParseInt(vars["court"], 10, 64)
	if err != nil {
		http.Error(writer, "bad court id", http.StatusBadRequest)
		return
	}
	threadId, err := strconv.ParseInt(vars["thread"], 10, 64)
	if err != nil {
		http.Error(writer, "bad thread id", http.StatusBadRequest)
		return
	}
	text, err := h.schedules.Schedule(request.Context(), courtId, threadId)
	if errors.Is(err, booking.ErrUnknownThread) {
		http.Error(writer, "thread not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("court_id", courtId).Int64("thread_id", threadId).Msg("Unable to render schedule")
		http.Error(writer, "internal error", http.StatusInternalServerError)
		return
	}
	writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = writer.Write([]byte(text))
}

func (h *Handler) runJob(writer http.ResponseWriter, request *http.Request) {
	name := mux.Vars(request)["name"]
	result, err := h.runner.Run(request.Context(), name, h.now())
	if errors.Is(err, jobs.ErrUnknownJob) {
		http.Error(writer, "unknown job", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("job_name", name).Msg("Unable to run job")
		http.Error(writer, "internal error", http.StatusInternalServerError)
		return
	}
	jobs.LogResult(result)

	response := jobResponse{
		Job:      result.Job,
		Items:    len(result.Outcomes),
		Failed:   []outcome{},
		Finished: h.now(),
	}
	if result.Err != nil {
		response.Error = result.Err.Error()
	}
	for _, o := range result.Failed() {
		response.Failed = append(response.Failed, outcome{CourtId: o.CourtId, ThreadId: o.ThreadId, Error: o.Err.Error()})
	}
	status := http.StatusOK
	if result.Err != nil {
		status = http.StatusInternalServerError
	}
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	if err := json.NewEncoder(writer).Encode(response); err != nil {
		log.Warn().Err(err).Msg("Unable to write job response")
	}
}

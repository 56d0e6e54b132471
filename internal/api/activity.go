package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/luxgrid/luxgrid-core/internal/activity"
)

// dateLayout is the query-parameter date format for range filters.
const dateLayout = "2006-01-02"

// handleListActivityLog returns one page of activity entries.
//
// GET /activitylog?actor_id=&action=&source=&start_date=&end_date=&page=&limit=
//
// Dates are whole days: start_date bounds from midnight, end_date
// through the end of that day. Both must be supplied together.
func (s *Server) handleListActivityLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := activity.Filter{
		ActorID: q.Get("actor_id"),
		Action:  q.Get("action"),
		Source:  q.Get("source"),
	}

	if page := q.Get("page"); page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 1 {
			writeBadRequest(w, "page must be a positive integer")
			return
		}
		filter.Page = n
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		filter.PageSize = n
	}

	startDate, endDate := q.Get("start_date"), q.Get("end_date")
	if (startDate == "") != (endDate == "") {
		writeBadRequest(w, "start_date and end_date must be supplied together")
		return
	}
	if startDate != "" {
		start, err := time.Parse(dateLayout, startDate)
		if err != nil {
			writeBadRequest(w, "start_date must be formatted as YYYY-MM-DD")
			return
		}
		end, err := time.Parse(dateLayout, endDate)
		if err != nil {
			writeBadRequest(w, "end_date must be formatted as YYYY-MM-DD")
			return
		}
		filter.Start = start
		// Inclusive through the whole end day.
		filter.End = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	result, err := s.activity.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing activity log failed", "error", err)
		writeInternalError(w, "failed to list activity log")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleClearActivityLog removes every activity entry, then records the
// clearance itself as the first entry of the fresh log.
//
// DELETE /activitylog
func (s *Server) handleClearActivityLog(w http.ResponseWriter, r *http.Request) {
	removed, err := s.activity.DeleteAll(r.Context())
	if err != nil {
		s.logger.Error("clearing activity log failed", "error", err)
		writeInternalError(w, "failed to clear activity log")
		return
	}

	caller := callerFrom(r)
	entry := &activity.Entry{
		ActorID:       caller.ActorID,
		Action:        "clear_activity_log",
		Details:       map[string]any{"removed": removed},
		Source:        activity.SourceManual,
		OriginAddress: caller.Origin,
	}
	if err := s.activity.Create(r.Context(), entry); err != nil {
		s.logger.Error("recording log clearance failed", "error", err)
		writeInternalError(w, "failed to record log clearance")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "activity log cleared",
		"removed": removed,
	})
}

// handleDeleteActivityEntry removes a single activity entry and records
// the removal.
//
// DELETE /activitylog/{id}
func (s *Server) handleDeleteActivityEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := s.activity.DeleteByID(r.Context(), id)
	if errors.Is(err, activity.ErrEntryNotFound) {
		writeNotFound(w, "activity entry not found")
		return
	}
	if err != nil {
		s.logger.Error("deleting activity entry failed", "error", err, "id", id)
		writeInternalError(w, "failed to delete activity entry")
		return
	}

	caller := callerFrom(r)
	entry := &activity.Entry{
		ActorID:       caller.ActorID,
		Action:        "delete_activity_log",
		Details:       map[string]any{"logId": id},
		Source:        activity.SourceManual,
		OriginAddress: caller.Origin,
	}
	if err := s.activity.Create(r.Context(), entry); err != nil {
		s.logger.Error("recording entry deletion failed", "error", err)
		writeInternalError(w, "failed to record entry deletion")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "activity entry deleted",
	})
}

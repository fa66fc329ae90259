package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nikgitofficial/timetracker-sub001/internal/domain/attendance"
	"github.com/nikgitofficial/timetracker-sub001/internal/handler/http/middleware"
	"github.com/nikgitofficial/timetracker-sub001/internal/handler/http/response"
	"github.com/nikgitofficial/timetracker-sub001/internal/pkg/sse"
	"github.com/nikgitofficial/timetracker-sub001/internal/service/file"
)

const streamKeepalive = 30 * time.Second

type AttendanceHandler interface {
	Punch(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	AttachEvidence(w http.ResponseWriter, r *http.Request)
	UploadEvidence(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	fileService       file.FileService
	hub               *sse.Hub
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService, fileService file.FileService, hub *sse.Hub) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		fileService:       fileService,
		hub:               hub,
	}
}

// Punch implements AttendanceHandler.
func (h *attendanceHandlerImpl) Punch(w http.ResponseWriter, r *http.Request) {
	employee, ok := middleware.EmployeeFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req attendance.PunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.Employee = employee

	result, err := h.attendanceService.Punch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if req.Action == attendance.ActionCheckIn {
		response.Created(w, "Check in successful", result)
		return
	}
	response.Success(w, result)
}

// Get implements AttendanceHandler.
func (h *attendanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	employee, ok := middleware.EmployeeFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	req := attendance.GetRecordRequest{
		Employee: employee,
		Date:     r.URL.Query().Get("date"),
	}

	result, err := h.attendanceService.GetRecord(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// AttachEvidence implements AttendanceHandler.
// The caller has already uploaded the selfie and only sends its URL.
func (h *attendanceHandlerImpl) AttachEvidence(w http.ResponseWriter, r *http.Request) {
	employee, ok := middleware.EmployeeFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req attendance.AttachEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.Employee = employee

	result, err := h.attendanceService.AttachEvidence(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Evidence attached", result)
}

// UploadEvidence implements AttendanceHandler.
func (h *attendanceHandlerImpl) UploadEvidence(w http.ResponseWriter, r *http.Request) {
	employee, ok := middleware.EmployeeFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	// Parse multipart form (max 10MB)
	if err := r.ParseMultipartForm(file.MaxProofSize); err != nil {
		slog.Error("Failed to parse multipart form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return
	}

	// Get JSON data from 'data' field
	dataJSON := r.FormValue("data")
	if dataJSON == "" {
		response.BadRequest(w, "Field 'data' is required", nil)
		return
	}

	var meta attendance.UploadEvidenceRequest
	if err := json.Unmarshal([]byte(dataJSON), &meta); err != nil {
		slog.Error("Failed to unmarshal JSON data", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if err := meta.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	// Get file from form
	photo, fileHeader, err := r.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			response.BadRequest(w, "Attendance proof photo is required", nil)
			return
		}
		slog.Error("Failed to get file from form", "error", err)
		response.BadRequest(w, "Invalid file upload", nil)
		return
	}
	defer photo.Close()

	if fileHeader.Size > file.MaxProofSize {
		response.ValidationError(w, map[string]string{"photo": "attendance proof photo size must not exceed 10MB"})
		return
	}

	// No file is stored for a day that was never checked in
	if _, err := h.attendanceService.GetRecord(r.Context(), attendance.GetRecordRequest{Employee: employee, Date: meta.Date}); err != nil {
		response.HandleError(w, err)
		return
	}

	proof, err := h.fileService.UploadAttendanceProof(r.Context(), employee, meta.Date, meta.Action, photo, fileHeader.Filename)
	if err != nil {
		slog.Error("Failed to store attendance proof", "employee", employee.String(), "error", err)
		response.BadRequest(w, err.Error(), nil)
		return
	}

	result, err := h.attendanceService.AttachEvidence(r.Context(), attendance.AttachEvidenceRequest{
		Employee: employee,
		Date:     meta.Date,
		Action:   meta.Action,
		URL:      proof.URL,
	})
	if err != nil {
		if delErr := h.fileService.DeleteAttendanceProof(context.WithoutCancel(r.Context()), proof.Path); delErr != nil {
			slog.Error("Failed to remove unattached attendance proof", "path", proof.Path, "error", delErr)
		}
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Evidence uploaded", result)
}

// Stream implements AttendanceHandler.
// It pushes the caller's record and evidence changes as server-sent events.
func (h *attendanceHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	employee, ok := middleware.EmployeeFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	// Check if streaming is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(employee.String())
	defer cleanup()

	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Name, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

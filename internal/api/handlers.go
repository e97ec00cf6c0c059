// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/ZSC714725/videocompressor/internal/ffmpeg"
	"github.com/ZSC714725/videocompressor/internal/ffmpeg/plan"
	"github.com/ZSC714725/videocompressor/internal/job"

	"github.com/gin-gonic/gin"
)

// Handler holds dependencies
type Handler struct {
	runner        job.Runner
	ffmpeg        ffmpeg.FFmpeg
	defaultTarget int
}

// NewHandler creates API handler. defaultTarget is used when a request
// carries no target size.
func NewHandler(runner job.Runner, ff ffmpeg.FFmpeg, defaultTarget int) *Handler {
	return &Handler{runner: runner, ffmpeg: ff, defaultTarget: defaultTarget}
}

// Register mounts the API routes below r
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.Health)
	r.GET("/plan", h.Plan)

	r.GET("/skills", h.Skills)
	r.POST("/skills/reload", h.ReloadSkills)

	r.GET("/jobs", h.ListJobs)
	r.POST("/jobs", h.AddJob)
	r.GET("/jobs/:id", h.GetJob)
	r.GET("/jobs/:id/report", h.GetReport)
	r.GET("/jobs/:id/events", h.Events)
}

func errResp(c *gin.Context, code int, msg, detail string) {
	c.JSON(code, ErrorResponse{Code: code, Message: msg, Detail: detail})
}

// AddJob POST /jobs
func (h *Handler) AddJob(c *gin.Context) {
	var req JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if req.TargetMB == 0 {
		req.TargetMB = h.defaultTarget
	}

	j, err := h.runner.Submit(c.Request.Context(), job.Request{Input: req.Input, TargetMB: req.TargetMB})
	if err != nil {
		switch {
		case errors.Is(err, job.ErrBusy):
			errResp(c, http.StatusConflict, "A job is already running", err.Error())
		case errors.Is(err, job.ErrInvalidInput):
			errResp(c, http.StatusBadRequest, "Invalid input file", err.Error())
		case errors.Is(err, job.ErrInvalidTarget):
			errResp(c, http.StatusBadRequest, "Invalid target size", err.Error())
		case errors.Is(err, job.ErrProbe):
			errResp(c, http.StatusUnprocessableEntity, "Can't read source duration", err.Error())
		default:
			errResp(c, http.StatusInternalServerError, "Submit failed", err.Error())
		}
		return
	}

	c.JSON(http.StatusAccepted, j.Info())
}

// ListJobs GET /jobs
func (h *Handler) ListJobs(c *gin.Context) {
	jobs := h.runner.List()
	list := JobList{Busy: h.runner.Busy(), Jobs: make([]job.Info, 0, len(jobs))}
	for _, j := range jobs {
		list.Jobs = append(list.Jobs, j.Info())
	}
	c.JSON(http.StatusOK, list)
}

// GetJob GET /jobs/:id
func (h *Handler) GetJob(c *gin.Context) {
	j, err := h.runner.Get(c.Param("id"))
	if err != nil {
		errResp(c, http.StatusNotFound, "Unknown job ID", err.Error())
		return
	}
	c.JSON(http.StatusOK, j.Info())
}

// GetReport GET /jobs/:id/report
func (h *Handler) GetReport(c *gin.Context) {
	j, err := h.runner.Get(c.Param("id"))
	if err != nil {
		errResp(c, http.StatusNotFound, "Unknown job ID", err.Error())
		return
	}

	lines := j.Log()
	report := JobReport{ID: j.ID, State: j.State(), Log: make([][2]string, len(lines))}
	for i, line := range lines {
		report.Log[i] = [2]string{
			line.Timestamp.Format("2006-01-02 15:04:05.000"),
			line.Data,
		}
	}
	c.JSON(http.StatusOK, report)
}

// Events GET /jobs/:id/events streams job events as server-sent events
// until the job ends or the client goes away.
func (h *Handler) Events(c *gin.Context) {
	events, cancel, err := h.runner.Subscribe(c.Param("id"))
	if err != nil {
		errResp(c, http.StatusNotFound, "Unknown job ID", err.Error())
		return
	}
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), ev)
			return !ev.Terminal()
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// Plan GET /plan?duration=&target_size_mb=
func (h *Handler) Plan(c *gin.Context) {
	duration, err := strconv.ParseFloat(c.Query("duration"), 64)
	if err != nil {
		errResp(c, http.StatusBadRequest, "Invalid duration", err.Error())
		return
	}
	target := h.defaultTarget
	if s := c.Query("target_size_mb"); s != "" {
		if target, err = strconv.Atoi(s); err != nil {
			errResp(c, http.StatusBadRequest, "Invalid target size", err.Error())
			return
		}
	}

	req, err := plan.NewRequest(duration, target)
	if err != nil {
		errResp(c, http.StatusBadRequest, "Invalid plan request", err.Error())
		return
	}
	p := req.Plan()
	c.JSON(http.StatusOK, PlanResponse{
		Duration:     req.Duration(),
		TargetMB:     req.TargetMB(),
		VideoBitrate: p.VideoBitrate,
		AudioBitrate: p.AudioBitrate,
		MaxWidth:     plan.MaxWidth,
	})
}

// Health GET /healthz
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, Health{Status: "ok", Busy: h.runner.Busy()})
}

// Skills GET /skills
func (h *Handler) Skills(c *gin.Context) {
	c.JSON(http.StatusOK, skillsToAPI(h.ffmpeg.Skills()))
}

// ReloadSkills POST /skills/reload
func (h *Handler) ReloadSkills(c *gin.Context) {
	if err := h.ffmpeg.ReloadSkills(); err != nil {
		errResp(c, http.StatusInternalServerError, "Reload failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, skillsToAPI(h.ffmpeg.Skills()))
}

package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/talentdao/talentdao-backend/internal/ledger"
	"github.com/talentdao/talentdao-backend/internal/lifecycle"
	"github.com/talentdao/talentdao-backend/internal/marketplace/metrics"
	"github.com/talentdao/talentdao-backend/pkg/types"
)

// ListJobs returns the ledger's job list, optionally filtered by status,
// category, or a case-insensitive title/description match.
func (h *Handler) ListJobs(c *gin.Context) {
	state := h.store.Snapshot()

	status := ledger.JobStatus(strings.ToUpper(c.Query("status")))
	category := ledger.JobCategory(strings.ToUpper(c.Query("category")))
	query := strings.ToLower(c.Query("q"))

	jobs := make([]ledger.Job, 0, len(state.Jobs))
	for _, job := range state.Jobs {
		if status != "" && job.Status != status {
			continue
		}
		if category != "" && job.Category != category {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(job.Title), query) &&
			!strings.Contains(strings.ToLower(job.Description), query) {
			continue
		}
		jobs = append(jobs, job)
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "total": len(jobs)})
}

func (h *Handler) GetJob(c *gin.Context) {
	jobID, err := parseJobID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	job := h.store.Snapshot().FindJob(jobID)
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

type createJobRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	Reward       string   `json:"reward" binding:"required"`
	Category     string   `json:"category" binding:"required"`
	DeadlineDays int      `json:"deadline_days" binding:"required"`
	Tags         []string `json:"tags"`
}

func (h *Handler) CreateJob(c *gin.Context) {
	requester, ok := h.activeWallet(c)
	if !ok {
		return
	}

	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reward, ok := types.ParseBigInt(req.Reward)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reward must be a decimal integer"})
		return
	}

	track := metrics.TrackJobOperation("create")
	job, err := h.engine.CreateJob(c.Request.Context(), requester, lifecycle.CreateJobParams{
		Title:        req.Title,
		Description:  req.Description,
		Reward:       reward,
		Category:     ledger.JobCategory(strings.ToUpper(req.Category)),
		DeadlineDays: req.DeadlineDays,
		Tags:         req.Tags,
	})
	track(err)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (h *Handler) ApplyForJob(c *gin.Context) {
	worker, ok := h.activeWallet(c)
	if !ok {
		return
	}
	jobID, err := parseJobID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	track := metrics.TrackJobOperation("apply")
	err = h.engine.ApplyForJob(c.Request.Context(), worker, jobID)
	track(err)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "applied", "job_id": jobID})
}

type submitWorkRequest struct {
	SubmissionLink string `json:"submission_link" binding:"required"`
}

func (h *Handler) SubmitWork(c *gin.Context) {
	worker, ok := h.activeWallet(c)
	if !ok {
		return
	}
	jobID, err := parseJobID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req submitWorkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	track := metrics.TrackJobOperation("submit")
	err = h.engine.SubmitWork(c.Request.Context(), worker, jobID, req.SubmissionLink)
	track(err)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "submitted", "job_id": jobID})
}

func (h *Handler) ApproveWork(c *gin.Context) {
	requester, ok := h.activeWallet(c)
	if !ok {
		return
	}
	jobID, err := parseJobID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	track := metrics.TrackJobOperation("approve")
	err = h.engine.ApproveWork(c.Request.Context(), requester, jobID)
	track(err)
	if err != nil {
		h.respondError(c, err)
		return
	}
	metrics.SettlementsTotal.Inc()
	c.JSON(http.StatusOK, gin.H{"status": "approved", "job_id": jobID})
}

func (h *Handler) CancelJob(c *gin.Context) {
	requester, ok := h.activeWallet(c)
	if !ok {
		return
	}
	jobID, err := parseJobID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	track := metrics.TrackJobOperation("cancel")
	err = h.engine.CancelJob(c.Request.Context(), requester, jobID)
	track(err)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled", "job_id": jobID})
}

func parseJobID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/playtesthq/jobbox/internal/controller/restapi/v1/response"
	"github.com/playtesthq/jobbox/internal/controller/restapi/v1/validate"
	"github.com/playtesthq/jobbox/internal/dto"
	"github.com/playtesthq/jobbox/internal/entity"
	"github.com/playtesthq/jobbox/internal/usecase/jobs"
	"github.com/playtesthq/jobbox/pkg/types/errs"
)

// @Summary  	Publish async message
// @Description Creates a queued job row and hands a correlated message to the broker
// @Tags 		messages
// @Accept 		json
// @Produce 	json
// @Param 		request body dto.PublishRequest true "Message to publish"
// @Success 	202 {object} response.JobStatus
// @Failure 	400 {object} response.Error "Invalid routing key or body"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/messages [post]
func (r *V1) publishMessage(ctx *fiber.Ctx) error {
	var req dto.PublishRequest

	if err := ctx.BodyParser(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err := validate.RoutingKey(req.RoutingKey); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid routing key")
	}

	if req.OnSuccess != nil {
		if err := validate.RoutingKey(req.OnSuccess.RoutingKey); err != nil {
			return errorResponse(ctx, http.StatusBadRequest, "invalid on_success routing key")
		}
	}

	headers := req.Headers
	if headers == nil {
		headers = make(map[string]string)
	}

	// Transport headers win over body headers so test clients can force
	// dry-run mode for any request.
	if v := ctx.Get(entity.HeaderTestMode); v != "" {
		headers[entity.HeaderTestMode] = v
	}

	status, err := r.publisher.Publish(ctx.UserContext(), req.RoutingKey, req.Payload, headers, req.IdempotencyKey)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - publishMessage")

		return errorResponse(ctx, http.StatusInternalServerError, "publish problems")
	}

	if req.OnSuccess != nil && status.Status == entity.Queued {
		if err := r.continuations.Dispatch(status, *req.OnSuccess, headers); err != nil {
			r.logger.Error(err, "restapi - v1 - publishMessage - r.continuations.Dispatch")
		}
	}

	return ctx.Status(http.StatusAccepted).JSON(response.NewJobStatus(status))
}

// @Summary  	Get job
// @Description Returns the current state of a job
// @Tags 		jobs
// @Produce 	json
// @Param 		id path string true "Job ID(uuid)"
// @Success 	200 {object} response.Job
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Job not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/jobs/{id} [get]
func (r *V1) getJob(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	job, err := r.jobs.Get(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "job not found")
		}
		r.logger.Error(err, "restapi - v1 - getJob")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.Status(http.StatusOK).JSON(response.NewJob(job))
}

// @Summary  	Wait for job completion
// @Description Blocks with bounded backoff until the job reaches a terminal state or the timeout elapses
// @Tags 		jobs
// @Produce 	json
// @Param 		id path string true "Job ID(uuid)"
// @Param 		timeout_seconds query int false "Max seconds to wait, capped at 60"
// @Success 	200 {object} response.Job
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	409 {object} response.JobStatus "Job ended with status=failed"
// @Failure 	500 {object} response.Error "Internal"
// @Failure 	504 {object} response.Error "Job did not finish in time"
// @Router 		/v1/jobs/{id}/wait [get]
func (r *V1) waitJob(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	seconds := validate.DefaultWaitSeconds
	if raw := ctx.Query("timeout_seconds"); raw != "" {
		seconds, err = strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return errorResponse(ctx, http.StatusBadRequest, "timeout_seconds must be a positive number")
		}
	}
	seconds = min(seconds, validate.MaxWaitSeconds)

	job, err := r.jobs.Wait(ctx.UserContext(), id, time.Duration(seconds)*time.Second)
	if err != nil {
		var failure *jobs.JobFailedError
		switch {
		case errors.As(err, &failure):
			return ctx.Status(http.StatusConflict).JSON(response.JobStatus{
				ID:        failure.ID.String(),
				Status:    string(failure.Status),
				ErrorCode: &failure.ErrorCode,
				ErrorMsg:  &failure.ErrorMsg,
			})
		case errors.Is(err, jobs.ErrWaitTimeout):
			return errorResponse(ctx, http.StatusGatewayTimeout, "job did not finish in time")
		default:
			r.logger.Error(err, "restapi - v1 - waitJob")

			return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
		}
	}

	return ctx.Status(http.StatusOK).JSON(response.NewJob(job))
}

// @Summary  	Update job
// @Description Worker-only: applies a lifecycle transition to a pending job
// @Tags 		jobs
// @Accept 		json
// @Param 		id path string true "Job ID(uuid)"
// @Param 		request body dto.JobUpdateRequest true "Transition"
// @Success 	204 "Applied"
// @Failure 	400 {object} response.Error "Invalid ID or body"
// @Failure 	404 {object} response.Error "Job not found"
// @Failure 	422 {object} response.Error "Unknown status"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/jobs/{id} [patch]
func (r *V1) updateJob(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	var req dto.JobUpdateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	var transition entity.Transition

	switch entity.Status(req.Status) {
	case entity.Processing:
		transition = entity.TransitionProcessing{}
	case entity.Succeeded:
		transition = entity.TransitionSucceeded{}
	case entity.Failed:
		transition = entity.TransitionFailed{
			Code: deref(req.ErrorCode),
			Msg:  deref(req.ErrorMsg),
		}
	default:
		return errorResponse(ctx, http.StatusUnprocessableEntity, "unknown status. Allowed: processing, succeeded, failed")
	}

	err = r.jobs.Apply(ctx.UserContext(), id, transition)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "job not found")
		}
		r.logger.Error(err, "restapi - v1 - updateJob")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.SendStatus(http.StatusNoContent)
}

// @Summary  	Claim idempotency key
// @Description Atomically claims a dedup key; claimed=false means another caller already owns it
// @Tags 		idempotency
// @Accept 		json
// @Produce 	json
// @Param 		request body dto.ClaimRequest true "Key to claim"
// @Success 	200 {object} response.Claim
// @Failure 	400 {object} response.Error "Empty key"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/idempotency/claim [post]
func (r *V1) claimIdempotency(ctx *fiber.Ctx) error {
	var req dto.ClaimRequest

	if err := ctx.BodyParser(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if req.Key == "" {
		return errorResponse(ctx, http.StatusBadRequest, "key is required")
	}

	claimed, err := r.jobs.Claim(ctx.UserContext(), req.Key)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - claimIdempotency")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.Status(http.StatusOK).JSON(response.Claim{Claimed: claimed})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

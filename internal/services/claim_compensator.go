package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-models"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-utils"
)

const (
	stepRevertLock     = "revert_lock"
	stepDeleteIdentity = "delete_identity"
)

type compensationStep struct {
	name string
	undo func(ctx context.Context) error
}

// claimCompensator is the rollback stack of one claim attempt. Forward steps
// push their undo as they succeed; Rollback pops them in reverse.
type claimCompensator struct {
	businessID uuid.UUID
	email      string
	claimantID *uuid.UUID
	timeout    time.Duration
	recorder   CompensationRecorder
	steps      []compensationStep
}

func newClaimCompensator(businessID uuid.UUID, email string, recorder CompensationRecorder, timeout time.Duration) *claimCompensator {
	return &claimCompensator{
		businessID: businessID,
		email:      email,
		timeout:    timeout,
		recorder:   recorder,
	}
}

func (c *claimCompensator) push(name string, undo func(ctx context.Context) error) {
	c.steps = append(c.steps, compensationStep{name: name, undo: undo})
}

func (c *claimCompensator) setClaimant(id string) {
	if uid, err := uuid.Parse(id); err == nil {
		c.claimantID = &uid
	}
}

// Rollback runs every pushed step newest first. It detaches from the
// caller's cancellation so a request that hit its deadline still rolls
// back. A failed step does not stop the remaining ones. The returned error
// is for logging and tests; callers surface the original cause.
func (c *claimCompensator) Rollback(ctx context.Context, cause error) error {
	if len(c.steps) == 0 {
		return nil
	}

	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	log := utils.Logger.WithFields(logrus.Fields{
		"business_id": c.businessID.String(),
		"email":       c.email,
		"cause":       errString(cause),
	})
	log.Warn("Rolling back claim")

	var errs []error
	for i := len(c.steps) - 1; i >= 0; i-- {
		step := c.steps[i]
		if err := step.undo(rbCtx); err != nil {
			compensationSteps.WithLabelValues(step.name, "failed").Inc()
			log.WithField("step", step.name).WithError(err).Error("Claim compensation step failed; manual reconciliation required")
			c.record(rbCtx, step.name, cause, err)
			errs = append(errs, err)
			continue
		}
		compensationSteps.WithLabelValues(step.name, "ok").Inc()
	}
	c.steps = nil
	return errors.Join(errs...)
}

func (c *claimCompensator) record(ctx context.Context, step string, cause, err error) {
	if c.recorder == nil {
		return
	}
	f := &models.ClaimCompensationFailure{
		BusinessID: c.businessID,
		ClaimantID: c.claimantID,
		Step:       step,
		Cause:      errString(cause),
		Error:      err.Error(),
	}
	if recErr := c.recorder.Create(ctx, f); recErr != nil {
		utils.Logger.WithFields(logrus.Fields{
			"business_id": c.businessID.String(),
			"step":        step,
		}).WithError(recErr).Error("Failed to record claim compensation failure")
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

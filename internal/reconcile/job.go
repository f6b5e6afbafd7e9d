// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

// Package reconcile implements the inbound half of the sync engine: a job
// queue fed by PMS webhooks, with delayed requeue for bookings that have not
// materialized yet and bounded retry before an event is dropped.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/javinobile/Gauvendi-sub006/internal/models/pms"
)

// ScheduleClass distinguishes a job's first, immediate attempt from its
// delayed re-attempts. The wire values match the upstream queue contract.
type ScheduleClass string

const (
	ScheduleImmediate ScheduleClass = "no-delayed"
	ScheduleDelayed   ScheduleClass = "delayed"
)

// JobData is the payload of one reconciliation job.
type JobData struct {
	Body       pms.WebhookPayload `json:"body"`
	Type       string             `json:"type,omitempty"`
	JobType    ScheduleClass      `json:"jobType"`
	RetryCount int                `json:"retryCount"`
}

// Job is one queue entry of the reconciliation pipeline. RetryCount only
// ever grows, and only through Requeue.
type Job struct {
	Name string  `json:"name"`
	Data JobData `json:"data"`
}

// NewJob builds the initial, immediate job for an inbound webhook event.
func NewJob(payload pms.WebhookPayload) Job {
	return Job{
		Name: "reconcile-webhook",
		Data: JobData{
			Body:       payload,
			Type:       payload.EventType,
			JobType:    ScheduleImmediate,
			RetryCount: 0,
		},
	}
}

// Requeue returns the delayed successor of a job whose booking was not yet
// resolvable.
func (j Job) Requeue() Job {
	j.Data.JobType = ScheduleDelayed
	j.Data.RetryCount++
	return j
}

// Exhausted reports whether the job has reached the requeue cap and must be
// dropped instead of retried.
func (j Job) Exhausted(maxRetryCount int) bool {
	return j.Data.RetryCount >= maxRetryCount
}

// MappingCode derives the booking's external code from the composite
// mapping entity code: the first token before the "-" delimiter.
func (j Job) MappingCode() string {
	code, _, _ := strings.Cut(j.Data.Body.MappingEntityCode, "-")
	return code
}

// Encode serializes the job for the queue transport.
func (j Job) Encode() ([]byte, error) {
	b, err := json.Marshal(j)
	if err != nil {
		return nil, fmt.Errorf("encode job: %w", err)
	}
	return b, nil
}

// DecodeJob parses a queue payload back into a job.
func DecodeJob(payload []byte) (Job, error) {
	var j Job
	if err := json.Unmarshal(payload, &j); err != nil {
		return Job{}, fmt.Errorf("decode job: %w", err)
	}
	return j, nil
}

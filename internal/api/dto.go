package api

import (
	"github.com/starford/wristlog/internal/device"
	"github.com/starford/wristlog/internal/index"
	"github.com/starford/wristlog/internal/recordservice"
)

// AlertRequest is the request body for sending an alert to the watch.
type AlertRequest struct {
	Type string `json:"type" example:"message" validate:"required"`
	Text string `json:"text" example:"Lunch at noon?" validate:"required"`
}

// DatesResponse lists the dates that have a record.
type DatesResponse struct {
	Dates []string `json:"dates" example:"2026-03-14" validate:"required"`
}

// HeartRateDay is one day's heart-rate record (aliased from the domain layer).
type HeartRateDay = recordservice.HeartRateDay

// StepsDay is one day's step record (aliased from the domain layer).
type StepsDay = recordservice.StepsDay

// DeviceResponse is the watch state (aliased from the domain layer).
type DeviceResponse = device.Snapshot

// HeartRateSummaryResponse wraps per-day heart-rate aggregates.
type HeartRateSummaryResponse struct {
	Days []index.HeartRateSummary `json:"days" validate:"required"`
}

// StepsSummaryResponse wraps per-day step totals.
type StepsSummaryResponse struct {
	Days []index.StepsSummary `json:"days" validate:"required"`
}

// FrameItem is one capture frame in the API response.
type FrameItem struct {
	Time      string `json:"time" example:"2026-03-14T09:30:00Z"`
	Direction string `json:"direction" example:"in"`
	Endpoint  string `json:"endpoint" example:"general.notify"`
	Data      string `json:"data" example:"a255"`
	Outcome   string `json:"outcome,omitempty" example:"BatteryResponse"`
	Decoded   any    `json:"decoded,omitempty"`
}

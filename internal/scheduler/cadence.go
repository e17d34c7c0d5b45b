package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/user/source-crawler/internal/entity"
)

const (
	day = 24 * time.Hour

	fallbackInterval = day
	defaultTimeOfDay = "00:00"
)

// ScheduleFor converts a source cadence into a cron schedule. IntervalMinutes
// takes precedence over Frequency. Anything unrecognized runs once a day.
func ScheduleFor(c entity.Cadence) cron.Schedule {
	if c.IntervalMinutes > 0 {
		return cron.Every(time.Duration(c.IntervalMinutes) * time.Minute)
	}

	freq := strings.ToLower(strings.TrimSpace(c.Frequency))
	switch freq {
	case "hourly":
		return cron.Every(time.Hour)
	case "", "daily":
		return dailyAt(c.TimeOfDay)
	case "weekly":
		return cron.Every(7 * day)
	case "monthly":
		return cron.Every(30 * day)
	}

	if days, ok := strings.CutSuffix(freq, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil && n > 0 {
			return cron.Every(time.Duration(n) * day)
		}
		return cron.Every(fallbackInterval)
	}

	if n, err := strconv.Atoi(freq); err == nil && n > 0 {
		return cron.Every(time.Duration(n) * time.Minute)
	}
	return cron.Every(fallbackInterval)
}

// dailyAt runs at HH:MM local time every day.
func dailyAt(timeOfDay string) cron.Schedule {
	if strings.TrimSpace(timeOfDay) == "" {
		timeOfDay = defaultTimeOfDay
	}
	t, err := time.Parse("15:04", strings.TrimSpace(timeOfDay))
	if err != nil {
		return cron.Every(fallbackInterval)
	}
	sched, err := cron.ParseStandard(fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()))
	if err != nil {
		return cron.Every(fallbackInterval)
	}
	return sched
}

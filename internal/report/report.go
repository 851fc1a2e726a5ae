// Package report builds read-only summaries and CSV exports of the
// event catalogue. Nothing here mutates state.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/campushq/campus-events/internal/model"
)

// EventSource is the read access the reporter needs.
type EventSource interface {
	List(ctx context.Context) ([]model.Event, error)
}

// Reporter computes statistics and writes CSV exports.
type Reporter struct {
	events EventSource
}

// NewReporter constructs a Reporter over the given source.
func NewReporter(events EventSource) *Reporter {
	return &Reporter{events: events}
}

// PopularEvent is one entry of a popularity ranking.
type PopularEvent struct {
	Name      string `json:"name"`
	Attendees int    `json:"attendees"`
}

// Statistics summarises the whole catalogue.
type Statistics struct {
	TotalEvents         int           `json:"total_events"`
	TotalAttendees      int           `json:"total_attendees"`
	AvgAttendees        float64       `json:"avg_attendees"`
	MostPopularEvent    *PopularEvent `json:"most_popular_event,omitempty"`
	LeastPopularEvent   *PopularEvent `json:"least_popular_event,omitempty"`
	UpcomingEvents      int           `json:"upcoming_events"`
	CapacityUtilization float64       `json:"capacity_utilization"`
}

// CapacityAnalysis summarises how well event capacities are used.
type CapacityAnalysis struct {
	AvgFillPercentage   float64 `json:"avg_fill_percentage"`
	MaxFillPercentage   float64 `json:"max_fill_percentage"`
	MinFillPercentage   float64 `json:"min_fill_percentage"`
	FullEvents          int     `json:"full_events"`
	EmptyEvents         int     `json:"empty_events"`
	UnderutilizedEvents int     `json:"underutilized_events"`
}

// Statistics computes catalogue-wide numbers. An empty catalogue yields
// a zeroed struct with no popular entries.
func (r *Reporter) Statistics(ctx context.Context, now time.Time) (*Statistics, error) {
	events, err := r.events.List(ctx)
	if err != nil {
		return nil, err
	}
	stats := &Statistics{TotalEvents: len(events)}
	if len(events) == 0 {
		return stats, nil
	}

	totalCapacity := 0
	var most, least *model.Event
	for i := range events {
		e := &events[i]
		count := e.AttendeeCount()
		stats.TotalAttendees += count
		totalCapacity += e.Capacity
		if e.Status == model.StatusActive && e.IsUpcoming(now) {
			stats.UpcomingEvents++
		}
		if most == nil || count > most.AttendeeCount() {
			most = e
		}
		if least == nil || count < least.AttendeeCount() {
			least = e
		}
	}

	stats.AvgAttendees = float64(stats.TotalAttendees) / float64(len(events))
	stats.MostPopularEvent = &PopularEvent{Name: most.Name, Attendees: most.AttendeeCount()}
	stats.LeastPopularEvent = &PopularEvent{Name: least.Name, Attendees: least.AttendeeCount()}
	if totalCapacity > 0 {
		stats.CapacityUtilization = float64(stats.TotalAttendees) / float64(totalCapacity) * 100
	}
	return stats, nil
}

// PopularEvents returns the top events by attendee count, descending.
// A non-positive limit means the default of 5.
func (r *Reporter) PopularEvents(ctx context.Context, limit int) ([]PopularEvent, error) {
	if limit <= 0 {
		limit = 5
	}
	events, err := r.events.List(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].AttendeeCount() > events[j].AttendeeCount()
	})
	if len(events) > limit {
		events = events[:limit]
	}

	popular := make([]PopularEvent, 0, len(events))
	for i := range events {
		popular = append(popular, PopularEvent{
			Name:      events[i].Name,
			Attendees: events[i].AttendeeCount(),
		})
	}
	return popular, nil
}

// CapacityAnalysis computes fill statistics across all events.
// An empty catalogue yields the zero value.
func (r *Reporter) CapacityAnalysis(ctx context.Context) (*CapacityAnalysis, error) {
	events, err := r.events.List(ctx)
	if err != nil {
		return nil, err
	}
	analysis := &CapacityAnalysis{}
	if len(events) == 0 {
		return analysis, nil
	}

	sum := 0.0
	for i := range events {
		e := &events[i]
		fill := e.FillRatio() * 100
		sum += fill
		if i == 0 || fill > analysis.MaxFillPercentage {
			analysis.MaxFillPercentage = fill
		}
		if i == 0 || fill < analysis.MinFillPercentage {
			analysis.MinFillPercentage = fill
		}
		if e.IsFull() {
			analysis.FullEvents++
		}
		if e.AttendeeCount() == 0 {
			analysis.EmptyEvents++
		}
		if fill < 50 {
			analysis.UnderutilizedEvents++
		}
	}
	analysis.AvgFillPercentage = sum / float64(len(events))
	return analysis, nil
}

// AttendanceCSV writes the attendance report, one row per event,
// sorted by date then start time.
func (r *Reporter) AttendanceCSV(ctx context.Context, w io.Writer) error {
	events, err := r.events.List(ctx)
	if err != nil {
		return err
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Date == events[j].Date {
			return events[i].StartTime < events[j].StartTime
		}
		return events[i].Date < events[j].Date
	})

	cw := csv.NewWriter(w)
	header := []string{
		"Event ID", "Event Name", "Date", "Time", "Location", "Organizer ID",
		"Capacity", "Registered", "Available", "Fill Rate (%)", "Status",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range events {
		e := &events[i]
		row := []string{
			e.ID,
			e.Name,
			e.Date,
			e.StartTime,
			e.Location,
			e.OrganizerID,
			fmt.Sprintf("%d", e.Capacity),
			fmt.Sprintf("%d", e.AttendeeCount()),
			fmt.Sprintf("%d", e.Remaining()),
			fmt.Sprintf("%.1f", e.FillRatio()*100),
			string(e.Status),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// EventsCSV writes a full export of every event.
func (r *Reporter) EventsCSV(ctx context.Context, w io.Writer) error {
	events, err := r.events.List(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{
		"Event ID", "Name", "Description", "Date", "Time", "Location",
		"Capacity", "Attendees", "Organizer ID", "Created At", "Updated At", "Status",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range events {
		e := &events[i]
		row := []string{
			e.ID,
			e.Name,
			e.Description,
			e.Date,
			e.StartTime,
			e.Location,
			fmt.Sprintf("%d", e.Capacity),
			fmt.Sprintf("%d", e.AttendeeCount()),
			e.OrganizerID,
			e.CreatedAt.Format(time.RFC3339),
			e.UpdatedAt.Format(time.RFC3339),
			string(e.Status),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// AttendanceFilename returns the timestamped download name for the
// attendance report.
func AttendanceFilename(now time.Time) string {
	return "attendance_report_" + now.Format("20060102_150405") + ".csv"
}

// EventsFilename returns the timestamped download name for the events
// export.
func EventsFilename(now time.Time) string {
	return "events_export_" + now.Format("20060102_150405") + ".csv"
}

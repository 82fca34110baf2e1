package services

import (
	"errors"
	"fmt"
	"time"
)

type GroupBy string

const (
	GroupByDay  GroupBy = "day"
	GroupByWeek GroupBy = "week"
)

var ErrInvalidGroupBy = errors.New("group_by must be day or week")

// ParseGroupBy parses a grouping name. An empty string means daily.
func ParseGroupBy(s string) (GroupBy, error) {
	switch GroupBy(s) {
	case "", GroupByDay:
		return GroupByDay, nil
	case GroupByWeek:
		return GroupByWeek, nil
	}
	return "", ErrInvalidGroupBy
}

// weekRange returns the Monday and Sunday of t's ISO week.
func weekRange(t time.Time) (time.Time, time.Time) {
	offset := int(t.Weekday())
	if offset == 0 {
		offset = 7
	}
	start := t.AddDate(0, 0, -offset+1)
	return start, start.AddDate(0, 0, 6)
}

func groupKey(t time.Time, groupBy GroupBy) string {
	if groupBy == GroupByWeek {
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	}
	return t.Format("2006-01-02")
}

func groupTitle(t time.Time, groupBy GroupBy) string {
	if groupBy == GroupByWeek {
		start, end := weekRange(t)
		return fmt.Sprintf("%s - %s", start.Format("Jan 02"), end.Format("Jan 02, 2006"))
	}
	return t.Format("Monday, 02 Jan 2006")
}

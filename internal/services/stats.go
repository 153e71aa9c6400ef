package services

import (
	"context"
	"sort"
	"strconv"

	"gorm.io/gorm"

	"activation/internal/domain"
)

// DayCount is the number of records created on one UTC day.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DayPlays counts files per play on one UTC day.
type DayPlays struct {
	Date  string         `json:"date"`
	Plays map[string]int `json:"plays"`
}

// FileCountGroup is how many leads have exactly FileCount files.
type FileCountGroup struct {
	FileCount int `json:"fileCount"`
	LeadCount int `json:"leadCount"`
}

// StatsService computes dashboard aggregates.
type StatsService struct {
	db        *gorm.DB
	playCount int
}

// NewStatsService creates a new stats service
func NewStatsService(db *gorm.DB, playCount int) *StatsService {
	return &StatsService{db: db, playCount: playCount}
}

// dayExpr renders created_at as a UTC YYYY-MM-DD string in the active dialect.
func (s *StatsService) dayExpr() string {
	if s.db.Dialector.Name() == "postgres" {
		return "to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD')"
	}
	return "date(created_at)"
}

// countPerDay groups model rows by creation day in the database.
func (s *StatsService) countPerDay(ctx context.Context, model interface{}) ([]DayCount, error) {
	rows := []DayCount{}
	err := s.db.WithContext(ctx).
		Model(model).
		Select(s.dayExpr() + " AS date, COUNT(*) AS count").
		Group(s.dayExpr()).
		Order(s.dayExpr() + " ASC").
		Scan(&rows).Error
	return rows, err
}

// LeadsPerDay counts lead registrations per UTC day, oldest first.
func (s *StatsService) LeadsPerDay(ctx context.Context, caller *Caller) ([]DayCount, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	rows, err := s.countPerDay(ctx, &domain.Lead{})
	if err != nil {
		return nil, storeError("STATS", "Leads per day", err)
	}
	return rows, nil
}

// LeadFilesPerDay counts video records per UTC day, oldest first.
func (s *StatsService) LeadFilesPerDay(ctx context.Context, caller *Caller) ([]DayCount, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	rows, err := s.countPerDay(ctx, &domain.LeadFile{})
	if err != nil {
		return nil, storeError("STATS", "Lead files per day", err)
	}
	return rows, nil
}

// PlayCountsPerDay splits each day's videos by play. Every configured play
// appears in every day, with zero when unused.
func (s *StatsService) PlayCountsPerDay(ctx context.Context, caller *Caller) ([]DayPlays, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	var rows []struct {
		Date  string
		Play  int
		Count int
	}
	err := s.db.WithContext(ctx).
		Model(&domain.LeadFile{}).
		Select(s.dayExpr() + " AS date, play, COUNT(*) AS count").
		Group(s.dayExpr() + ", play").
		Order(s.dayExpr() + " ASC, play ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, storeError("STATS", "Play counts per day", err)
	}

	result := []DayPlays{}
	for _, row := range rows {
		if len(result) == 0 || result[len(result)-1].Date != row.Date {
			plays := make(map[string]int, s.playCount)
			for p := 0; p < s.playCount; p++ {
				plays[strconv.Itoa(p)] = 0
			}
			result = append(result, DayPlays{Date: row.Date, Plays: plays})
		}
		result[len(result)-1].Plays[strconv.Itoa(row.Play)] += row.Count
	}
	return result, nil
}

// LeadsGroupedByFileCount buckets leads by how many videos they have,
// including leads with none.
func (s *StatsService) LeadsGroupedByFileCount(ctx context.Context, caller *Caller) ([]FileCountGroup, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	var perLead []struct {
		FileCount int
	}
	err := s.db.WithContext(ctx).
		Table("leads").
		Select("COUNT(lead_files.id) AS file_count").
		Joins("LEFT JOIN lead_files ON lead_files.lead_id = leads.id").
		Group("leads.id").
		Scan(&perLead).Error
	if err != nil {
		return nil, storeError("STATS", "Leads grouped by file count", err)
	}

	grouped := make(map[int]int)
	for _, row := range perLead {
		grouped[row.FileCount]++
	}

	result := make([]FileCountGroup, 0, len(grouped))
	for fileCount, leadCount := range grouped {
		result = append(result, FileCountGroup{FileCount: fileCount, LeadCount: leadCount})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FileCount < result[j].FileCount })
	return result, nil
}

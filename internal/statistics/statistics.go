// Package statistics summarizes a user's test history.
package statistics

import (
	"math"
	"time"
)

// RecentProgressSize is how many of the latest attempts UserStats.RecentProgress keeps.
const RecentProgressSize = 5

// Attempt is one graded test attempt.
type Attempt struct {
	HistoryID    string
	TestID       string
	SubjectID    string
	ScorePercent int
	CreatedAt    time.Time
}

type SubjectStats struct {
	Count        int     `json:"count"`
	AverageScore float64 `json:"averageScore"`
}

type ResultPoint struct {
	HistoryID string    `json:"historyId"`
	TestID    string    `json:"testId"`
	Score     int       `json:"score"`
	Date      time.Time `json:"date"`
}

type UserStats struct {
	TotalTests     int                     `json:"totalTests"`
	AverageScore   int                     `json:"averageScore"`
	TestsBySubject map[string]SubjectStats `json:"testsBySubject"`
	BestResult     *ResultPoint            `json:"bestResult"`
	WorstResult    *ResultPoint            `json:"worstResult"`
	RecentProgress []ResultPoint           `json:"recentProgress"`
}

// Calculate computes statistics over attempts given in chronological order.
// The best result is the first attempt with the highest score, the worst is the last with the lowest.
func Calculate(attempts []Attempt) UserStats {
	stats := UserStats{
		TestsBySubject: map[string]SubjectStats{},
		RecentProgress: []ResultPoint{},
	}
	if len(attempts) == 0 {
		return stats
	}

	total := 0
	sums := make(map[string]int)
	best, worst := attempts[0], attempts[0]
	for _, a := range attempts {
		total += a.ScorePercent
		sums[a.SubjectID] += a.ScorePercent

		s := stats.TestsBySubject[a.SubjectID]
		s.Count++
		stats.TestsBySubject[a.SubjectID] = s

		if a.ScorePercent > best.ScorePercent {
			best = a
		}
		if a.ScorePercent <= worst.ScorePercent {
			worst = a
		}
	}

	for subjectID, s := range stats.TestsBySubject {
		s.AverageScore = float64(sums[subjectID]) / float64(s.Count)
		stats.TestsBySubject[subjectID] = s
	}

	stats.TotalTests = len(attempts)
	stats.AverageScore = int(math.Round(float64(total) / float64(len(attempts))))
	bestPoint, worstPoint := toPoint(best), toPoint(worst)
	stats.BestResult = &bestPoint
	stats.WorstResult = &worstPoint

	start := max(0, len(attempts)-RecentProgressSize)
	for _, a := range attempts[start:] {
		stats.RecentProgress = append(stats.RecentProgress, toPoint(a))
	}
	return stats
}

func toPoint(a Attempt) ResultPoint {
	return ResultPoint{
		HistoryID: a.HistoryID,
		TestID:    a.TestID,
		Score:     a.ScorePercent,
		Date:      a.CreatedAt,
	}
}

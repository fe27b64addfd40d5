package domain

import (
	"math"
	"time"
)

// Review status constants.
const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

// Review is a product review. At most one review per (product, user).
type Review struct {
	ID                 string    `json:"id"`
	ProductID          string    `json:"product_id"`
	UserID             string    `json:"user_id"`
	UserName           string    `json:"user_name"`
	Rating             int       `json:"rating"` // 1..5
	Title              string    `json:"title,omitempty"`
	Comment            string    `json:"comment,omitempty"`
	IsVerifiedPurchase bool      `json:"is_verified_purchase"`
	Status             string    `json:"status"`
	HelpfulCount       int       `json:"helpful_count"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// RatingSummary is the aggregate over a product's approved reviews.
type RatingSummary struct {
	Average      float64     `json:"average"`
	Count        int         `json:"count"`
	Distribution map[int]int `json:"distribution"` // star value 1..5 -> count
}

// SummarizeRatings computes the rating aggregate from a list of star values.
// The average is rounded to one decimal place.
func SummarizeRatings(ratings []int) RatingSummary {
	summary := RatingSummary{
		Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}
	if len(ratings) == 0 {
		return summary
	}

	sum := 0
	for _, r := range ratings {
		if r < 1 || r > 5 {
			continue
		}
		summary.Distribution[r]++
		summary.Count++
		sum += r
	}
	if summary.Count == 0 {
		return summary
	}

	summary.Average = math.Round(float64(sum)/float64(summary.Count)*10) / 10
	return summary
}

// ValidReviewStatuses returns the set of valid review statuses.
func ValidReviewStatuses() []string {
	return []string{ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected}
}

// IsValidReviewStatus checks whether the given status string is valid.
func IsValidReviewStatus(status string) bool {
	for _, s := range ValidReviewStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

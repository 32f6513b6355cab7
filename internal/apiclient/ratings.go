package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Znbmels/keremet/internal/clinic"
)

// Ratings lists the ratings visible to the caller.
func (c *Client) Ratings(ctx context.Context) ([]clinic.Rating, error) {
	var ratings []clinic.Rating
	if err := c.do(ctx, request{
		op:     "ratings.list",
		method: http.MethodGet,
		base:   c.apiBase,
		path:   "/ratings/",
	}, &ratings); err != nil {
		return nil, err
	}
	return ratings, nil
}

// DoctorRating returns a doctor's aggregate rating. A 404 means no one has
// rated the doctor yet and is reported as a zero aggregate, not an error.
func (c *Client) DoctorRating(ctx context.Context, doctorID int64) (*clinic.DoctorRating, error) {
	query := url.Values{}
	query.Set("doctor_id", strconv.FormatInt(doctorID, 10))

	var rating clinic.DoctorRating
	err := c.do(ctx, request{
		op:     "ratings.average",
		method: http.MethodGet,
		base:   c.apiBase,
		path:   "/ratings/average-rating/",
		query:  query,
	}, &rating)
	if err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return &clinic.DoctorRating{}, nil
		}
		return nil, err
	}
	return &rating, nil
}

// CreateRating submits a score for a completed appointment. Scores are 1..5.
func (c *Client) CreateRating(ctx context.Context, appointmentID int64, score int, comment string) (*clinic.Rating, error) {
	if score < 1 || score > 5 {
		return nil, fmt.Errorf("apiclient: rating score %d out of range 1..5", score)
	}
	body, err := jsonBody(map[string]any{
		"appointment": appointmentID,
		"rating":      score,
		"comment":     comment,
	})
	if err != nil {
		return nil, err
	}
	var rating clinic.Rating
	if err := c.do(ctx, request{
		op:     "ratings.create",
		method: http.MethodPost,
		base:   c.apiBase,
		path:   "/ratings/",
		body:   body,
	}, &rating); err != nil {
		return nil, err
	}
	return &rating, nil
}
